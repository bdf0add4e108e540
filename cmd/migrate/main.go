// Command migrate creates the result-persistence schema. The scoring
// core never touches these tables directly; they back the repository
// adapters in adapters/postgres.
package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS score_results (
	id         BIGSERIAL PRIMARY KEY,
	trial_id   TEXT NOT NULL,
	run_id     TEXT NOT NULL,
	p_fail     DOUBLE PRECISION NOT NULL,
	payload    JSONB NOT NULL,
	scored_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (trial_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_score_results_trial
	ON score_results (trial_id, scored_at DESC);

CREATE TABLE IF NOT EXISTS audit_trails (
	id              BIGSERIAL PRIMARY KEY,
	trial_id        TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	config_revision TEXT NOT NULL,
	p_fail          DOUBLE PRECISION NOT NULL,
	payload         JSONB NOT NULL,
	built_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (trial_id, run_id)
);
`

func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("migration complete")
}
