// Package ports declares the boundary contracts the scoring core
// expects its external collaborators to satisfy. The core never
// depends on any concrete implementation.
package ports

import (
	"context"

	"trialgate/domain/core"
	"trialgate/domain/scoring"
)

// ScoreRepository persists score results keyed by (trial_id, run_id).
type ScoreRepository interface {
	Save(ctx context.Context, result *scoring.Result) error
	GetByRun(ctx context.Context, trialID core.TrialID, runID core.RunID) (*scoring.Result, error)
	ListByTrial(ctx context.Context, trialID core.TrialID, limit int) ([]*scoring.Result, error)
}

// AuditRepository persists audit trails as append-only records.
type AuditRepository interface {
	Save(ctx context.Context, trail *scoring.AuditTrail) error
	GetByRun(ctx context.Context, trialID core.TrialID, runID core.RunID) (*scoring.AuditTrail, error)
}
