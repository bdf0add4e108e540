package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
	"trialgate/internal/report"
)

// scoreRequest carries one trial's inputs. Prior is optional; the
// server's default applies when omitted.
type scoreRequest struct {
	Card      *trial.StudyCard      `json:"card"`
	History   *trial.VersionHistory `json:"history,omitempty"`
	ClassMeta *trial.ClassMetadata  `json:"class_metadata,omitempty"`
	Prior     *float64              `json:"prior,omitempty"`
}

type scoreResponse struct {
	TrialID core.TrialID `json:"trial_id"`
	RunID   core.RunID   `json:"run_id"`
	PFail   float64      `json:"p_fail"`
	Audit   interface{}  `json:"audit"`
}

type signalsResponse struct {
	Signals map[core.SignalID]signal.SignalResult `json:"signals"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Card == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "card is required"})
		return
	}

	prior := s.defaultPrior
	if req.Prior != nil {
		prior = *req.Prior
	}

	eval, err := s.service.ScoreTrial(r.Context(), req.Card, req.History, req.ClassMeta, prior)
	if err != nil {
		s.log.Error("score request failed for trial %s: %v", req.Card.TrialID, err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(report.HTML(eval.Trail))
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{
		TrialID: eval.Result.TrialID,
		RunID:   eval.Result.RunID,
		PFail:   eval.Result.PFail,
		Audit:   eval.Trail,
	})
}

// handleSignals runs only the signal evaluators, for extraction QA.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Card == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "card is required"})
		return
	}

	eval, err := s.service.ScoreTrial(r.Context(), req.Card, req.History, req.ClassMeta, s.defaultPrior)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, signalsResponse{Signals: eval.Signals})
}

// runParams parses the trial and run ids off the route, writing the
// 400 itself on a malformed id.
func runParams(w http.ResponseWriter, r *http.Request) (core.TrialID, core.RunID, bool) {
	trialID, err := core.ParseTrialID(chi.URLParam(r, "trialID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return "", "", false
	}
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return "", "", false
	}
	return trialID, runID, true
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.scores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "result store not configured"})
		return
	}
	trialID, runID, ok := runParams(w, r)
	if !ok {
		return
	}

	result, err := s.scores.GetByRun(r.Context(), trialID, runID)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("result lookup failed for trial %s run %s: %v", trialID, runID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "result lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	if s.audits == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "audit store not configured"})
		return
	}
	trialID, runID, ok := runParams(w, r)
	if !ok {
		return
	}

	trail, err := s.audits.GetByRun(r.Context(), trialID, runID)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("audit lookup failed for trial %s run %s: %v", trialID, runID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "audit lookup failed"})
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(report.HTML(*trail))
		return
	}
	writeJSON(w, http.StatusOK, trail)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.service.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revision": cfg.Revision,
		"bounds":   cfg.Bounds,
		"gates":    len(cfg.Gates),
		"rules":    len(cfg.StopRules),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
