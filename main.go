package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"trialgate/adapters/api"
	"trialgate/adapters/configfile"
	"trialgate/adapters/postgres"
	"trialgate/app"
	"trialgate/domain/scoring"
	"trialgate/internal"
	"trialgate/internal/config"
	"trialgate/ports"
)

func main() {
	// Load .env if present (development convenience)
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	scoringCfg := loadScoringConfig(cfg, logger)

	var scores ports.ScoreRepository
	var audits ports.AuditRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		scores = postgres.NewScoreRepository(db)
		audits = postgres.NewAuditRepository(db)
		logger.Info("result persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set; results will not be persisted")
	}

	service := app.NewScoreService(scoringCfg, logger, scores, audits)
	server := api.NewServer(service, scores, audits, logger, cfg.Scoring.DefaultPrior)

	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// loadScoringConfig refuses to start on a malformed document; a
// missing document falls back to the embedded default.
func loadScoringConfig(cfg *config.Config, logger *internal.Logger) *scoring.Config {
	if _, err := os.Stat(cfg.Scoring.Path); os.IsNotExist(err) {
		logger.Warn("scoring config %s not found; using embedded default", cfg.Scoring.Path)
		return configfile.Default()
	}
	scoringCfg, err := configfile.Load(cfg.Scoring.Path)
	if err != nil {
		log.Fatalf("scoring configuration rejected: %v", err)
	}
	logger.Info("loaded scoring config %s (revision %s)", cfg.Scoring.Path, scoringCfg.Revision)
	return scoringCfg
}
