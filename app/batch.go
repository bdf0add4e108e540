package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"trialgate/domain/core"
	"trialgate/domain/trial"
	"trialgate/internal/errors"
)

// BatchItem is one trial queued for scoring.
type BatchItem struct {
	Card      *trial.StudyCard
	History   *trial.VersionHistory
	ClassMeta *trial.ClassMetadata
	Prior     float64
}

// BatchOutcome is the per-trial result of a batch run. Exactly one of
// Eval or Err is set; a failed trial never aborts the rest.
type BatchOutcome struct {
	TrialID core.TrialID
	Eval    *Evaluation
	Err     error
}

// ScoreBatch scores many trials concurrently. Trials are independent
// and share only the read-only configuration, so the only coordination
// is the worker limit. Outcomes are returned in input order.
func (s *ScoreService) ScoreBatch(ctx context.Context, items []BatchItem, workers int) []BatchOutcome {
	if workers <= 0 {
		workers = 4
	}

	outcomes := make([]BatchOutcome, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			var trialID core.TrialID
			if item.Card != nil {
				trialID = item.Card.TrialID
			}
			eval, err := s.ScoreTrial(ctx, item.Card, item.History, item.ClassMeta, item.Prior)
			if err != nil {
				// Failure marker only; the group never sees the error.
				outcomes[i] = BatchOutcome{
					TrialID: trialID,
					Err:     errors.TrialEvaluationFailed(trialID.String(), err),
				}
				return nil
			}
			outcomes[i] = BatchOutcome{TrialID: trialID, Eval: eval}
			return nil
		})
	}

	// Goroutines only record into their own slot and never return an
	// error, so Wait cannot fail.
	_ = g.Wait()
	return outcomes
}
