// Package app wires the evaluation pipeline end to end: signals, then
// gates, then the posterior score, stop rules, and the audit trail.
package app

import (
	"context"
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/scoring"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
	"trialgate/internal"
	"trialgate/internal/signals"
	"trialgate/ports"
)

// ScoreService runs the full pipeline for one trial at a time. It is
// stateless apart from the immutable configuration, so any number of
// trials may be scored concurrently through the same instance.
type ScoreService struct {
	cfg       *scoring.Config
	engine    *signals.Engine
	log       *internal.Logger
	scores    ports.ScoreRepository // optional
	audits    ports.AuditRepository // optional
}

// NewScoreService builds a service around a validated configuration.
// Repositories may be nil; results are then only returned, not persisted.
func NewScoreService(cfg *scoring.Config, logger *internal.Logger, scores ports.ScoreRepository, audits ports.AuditRepository) *ScoreService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScoreService{
		cfg:    cfg,
		engine: signals.NewEngine(),
		log:    logger,
		scores: scores,
		audits: audits,
	}
}

// Config exposes the immutable configuration the service was built with.
func (s *ScoreService) Config() *scoring.Config { return s.cfg }

// Evaluation is the full output of one scoring run.
type Evaluation struct {
	Signals map[core.SignalID]signal.SignalResult
	Result  scoring.Result
	Trail   scoring.AuditTrail
}

// ScoreTrialByID resolves a trial's current card and history through
// the card reader, enriches with class metadata when the card names a
// drug class and a metadata reader is supplied, and scores the result.
func (s *ScoreService) ScoreTrialByID(ctx context.Context, cards ports.CardReader, classes ports.ClassMetadataReader, trialID core.TrialID, prior float64) (*Evaluation, error) {
	if cards == nil {
		return nil, fmt.Errorf("card reader is required")
	}
	card, err := cards.Current(ctx, trialID)
	if err != nil {
		return nil, fmt.Errorf("resolve card for trial %s: %w", trialID, err)
	}
	history, err := cards.History(ctx, trialID)
	if err != nil {
		return nil, fmt.Errorf("resolve history for trial %s: %w", trialID, err)
	}

	var classMeta *trial.ClassMetadata
	if classes != nil && card.DrugClass != "" {
		classMeta, err = classes.ForClass(ctx, card.DrugClass)
		if err != nil {
			return nil, fmt.Errorf("resolve class metadata for %q: %w", card.DrugClass, err)
		}
	}

	return s.ScoreTrial(ctx, card, history, classMeta, prior)
}

// ScoreTrial evaluates one trial snapshot under a fresh run id.
func (s *ScoreService) ScoreTrial(ctx context.Context, card *trial.StudyCard, history *trial.VersionHistory, classMeta *trial.ClassMetadata, prior float64) (*Evaluation, error) {
	return s.ScoreTrialRun(ctx, core.NewRunID(), card, history, classMeta, prior)
}

// ScoreTrialRun evaluates one trial snapshot under a caller-chosen run
// id. Re-scoring the same trial under different run ids is safe and
// produces independent results.
func (s *ScoreService) ScoreTrialRun(ctx context.Context, runID core.RunID, card *trial.StudyCard, history *trial.VersionHistory, classMeta *trial.ClassMetadata, prior float64) (eval *Evaluation, err error) {
	if card == nil {
		return nil, fmt.Errorf("study card is required")
	}

	// An evaluator blowing up on an unexpected shape must not take the
	// batch down; the trial gets a failure marker instead.
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("evaluation panicked for trial %s run %s: %v", card.TrialID, runID, r)
			eval = nil
			err = fmt.Errorf("evaluation failed for trial %s: %v", card.TrialID, r)
		}
	}()

	signalResults := s.engine.Evaluate(card, history, classMeta)
	present := signal.PresentSignals(signalResults)
	evidence := signal.CollectEvidence(signalResults)

	gateEvals := s.cfg.EvaluateGates(present, evidence)
	result := scoring.Score(card.TrialID, runID, prior, gateEvals, s.cfg)

	pFinal, applied := scoring.ApplyStopRules(result.PFail, present, evidence, s.cfg)
	result.PFail = pFinal
	result.StopRulesApplied = applied

	trail := scoring.BuildAuditTrail(result, s.cfg.Revision, evidence)

	s.log.Debug("scored trial %s run %s: p_fail=%.4f gates_fired=%d stop_rules=%d",
		card.TrialID, runID, result.PFail, countFired(result), len(applied))

	if err := s.persist(ctx, &result, &trail); err != nil {
		return nil, err
	}

	return &Evaluation{Signals: signalResults, Result: result, Trail: trail}, nil
}

func (s *ScoreService) persist(ctx context.Context, result *scoring.Result, trail *scoring.AuditTrail) error {
	if s.scores != nil {
		if err := s.scores.Save(ctx, result); err != nil {
			return fmt.Errorf("persist score result: %w", err)
		}
	}
	if s.audits != nil {
		if err := s.audits.Save(ctx, trail); err != nil {
			return fmt.Errorf("persist audit trail: %w", err)
		}
	}
	return nil
}

func countFired(res scoring.Result) int {
	n := 0
	for _, ev := range res.GateEvals {
		if ev.Fired {
			n++
		}
	}
	return n
}
