// Package api exposes the scoring pipeline over HTTP. It is a thin
// boundary: decode, score, encode. All evaluation semantics live in
// the domain packages.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trialgate/app"
	"trialgate/internal"
	"trialgate/ports"
)

// Server hosts the scoring API.
type Server struct {
	service      *app.ScoreService
	scores       ports.ScoreRepository // optional
	audits       ports.AuditRepository // optional
	log          *internal.Logger
	defaultPrior float64
	router       chi.Router
}

// NewServer wires the routes. The repositories back the retrieval
// endpoints; when nil those endpoints report the store as unavailable.
func NewServer(service *app.ScoreService, scores ports.ScoreRepository, audits ports.AuditRepository, logger *internal.Logger, defaultPrior float64) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		service:      service,
		scores:       scores,
		audits:       audits,
		log:          logger,
		defaultPrior: defaultPrior,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/signals", s.handleSignals)
		r.Get("/config", s.handleConfig)
		r.Get("/trials/{trialID}/runs/{runID}", s.handleGetResult)
		r.Get("/trials/{trialID}/runs/{runID}/audit", s.handleGetAudit)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving the API on the given port.
func (s *Server) ListenAndServe(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("scoring API listening on :%s", port)
	return srv.ListenAndServe()
}
