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

// AuditRepository persists audit trails as append-only records. Trails
// are never updated or deleted; replaying a run reads them back verbatim.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save inserts one audit trail.
func (r *AuditRepository) Save(ctx context.Context, trail *scoring.AuditTrail) error {
	query := `
		INSERT INTO audit_trails (trial_id, run_id, config_revision, p_fail, payload, built_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	payload, err := json.Marshal(trail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit trail: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		trail.TrialID.String(),
		trail.RunID.String(),
		trail.ConfigRevision.String(),
		trail.PFail,
		payload,
		trail.BuiltAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit trail: %w", err)
	}
	return nil
}

// GetByRun fetches the trail for one (trial, run) pair.
func (r *AuditRepository) GetByRun(ctx context.Context, trialID core.TrialID, runID core.RunID) (*scoring.AuditTrail, error) {
	query := `
		SELECT payload
		FROM audit_trails
		WHERE trial_id = $1 AND run_id = $2`

	var payload json.RawMessage
	if err := r.db.GetContext(ctx, &payload, query, trialID.String(), runID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: trial %s run %s", core.ErrRunNotFound, trialID, runID)
		}
		return nil, fmt.Errorf("failed to fetch audit trail: %w", err)
	}

	var trail scoring.AuditTrail
	if err := json.Unmarshal(payload, &trail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit trail payload: %w", err)
	}
	return &trail, nil
}
