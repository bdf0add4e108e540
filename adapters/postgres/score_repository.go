// Package postgres implements the persistence collaborators the
// scoring core hands its results to. The core itself never imports
// this package.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"trialgate/domain/core"
	"trialgate/domain/scoring"
)

// ScoreRepository persists score results keyed by (trial_id, run_id).
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

type scoreRow struct {
	TrialID  string          `db:"trial_id"`
	RunID    string          `db:"run_id"`
	PFail    float64         `db:"p_fail"`
	Payload  json.RawMessage `db:"payload"`
	ScoredAt sql.NullTime    `db:"scored_at"`
}

// Save inserts one immutable score result.
func (r *ScoreRepository) Save(ctx context.Context, result *scoring.Result) error {
	query := `
		INSERT INTO score_results (trial_id, run_id, p_fail, payload, scored_at)
		VALUES ($1, $2, $3, $4, $5)`

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal score result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		result.TrialID.String(),
		result.RunID.String(),
		result.PFail,
		payload,
		result.ScoredAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert score result: %w", err)
	}
	return nil
}

// GetByRun fetches the result for one (trial, run) pair.
func (r *ScoreRepository) GetByRun(ctx context.Context, trialID core.TrialID, runID core.RunID) (*scoring.Result, error) {
	query := `
		SELECT trial_id, run_id, p_fail, payload, scored_at
		FROM score_results
		WHERE trial_id = $1 AND run_id = $2`

	var row scoreRow
	if err := r.db.GetContext(ctx, &row, query, trialID.String(), runID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: trial %s run %s", core.ErrRunNotFound, trialID, runID)
		}
		return nil, fmt.Errorf("failed to fetch score result: %w", err)
	}
	return unmarshalScoreRow(row)
}

// ListByTrial returns the most recent results for a trial, newest first.
func (r *ScoreRepository) ListByTrial(ctx context.Context, trialID core.TrialID, limit int) ([]*scoring.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT trial_id, run_id, p_fail, payload, scored_at
		FROM score_results
		WHERE trial_id = $1
		ORDER BY scored_at DESC
		LIMIT $2`

	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query, trialID.String(), limit); err != nil {
		return nil, fmt.Errorf("failed to list score results: %w", err)
	}

	results := make([]*scoring.Result, 0, len(rows))
	for _, row := range rows {
		result, err := unmarshalScoreRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func unmarshalScoreRow(row scoreRow) (*scoring.Result, error) {
	var result scoring.Result
	if err := json.Unmarshal(row.Payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score result payload: %w", err)
	}
	return &result, nil
}
