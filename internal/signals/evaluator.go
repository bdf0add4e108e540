// Package signals implements the independent risk checks the scoring
// pipeline runs against each trial snapshot. Every evaluator is a pure
// function of the snapshot (plus optional history and class statistics)
// and never errors on missing input: insufficiency yields an unfired
// result with an explanatory reason.
package signals

import (
	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// Evaluator is the contract each risk check satisfies.
type Evaluator interface {
	ID() core.SignalID
	Name() string
	Description() string
	Evaluate(card *trial.StudyCard, history *trial.VersionHistory, classMeta *trial.ClassMetadata) signal.SignalResult
}

// Engine runs the full evaluator set against one trial snapshot.
type Engine struct {
	evaluators []Evaluator
}

// NewEngine builds the engine with all nine evaluators registered.
func NewEngine() *Engine {
	return &Engine{
		evaluators: []Evaluator{
			NewEndpointSwitchEvaluator(),
			NewUnderpoweredEvaluator(),
			NewSubgroupOnlyWinEvaluator(),
			NewITTPPDivergenceEvaluator(),
			NewEffectOutlierEvaluator(),
			NewPValueMarginEvaluator(),
			NewPValueHeapingEvaluator(),
			NewEnrollmentShrinkEvaluator(),
			NewUncontrolledPivotalEvaluator(),
		},
	}
}

// Evaluators returns the registered evaluators in catalogue order.
func (e *Engine) Evaluators() []Evaluator {
	out := make([]Evaluator, len(e.evaluators))
	copy(out, e.evaluators)
	return out
}

// Evaluate runs every evaluator and returns one result per signal id.
// Evaluators run sequentially: each is sub-millisecond and pure, and a
// fixed order keeps runs reproducible.
func (e *Engine) Evaluate(card *trial.StudyCard, history *trial.VersionHistory, classMeta *trial.ClassMetadata) map[core.SignalID]signal.SignalResult {
	results := make(map[core.SignalID]signal.SignalResult, len(e.evaluators))
	for _, ev := range e.evaluators {
		if card == nil {
			results[ev.ID()] = signal.NotFired(ev.ID(), "no study card supplied")
			continue
		}
		results[ev.ID()] = ev.Evaluate(card, history, classMeta)
	}
	return results
}

// defaultAlpha is the two-sided significance threshold assumed when a
// study card does not report one.
const defaultAlpha = 0.05

func alphaFor(card *trial.StudyCard) float64 {
	if card.AnalysisPlan.Alpha != nil && *card.AnalysisPlan.Alpha > 0 && *card.AnalysisPlan.Alpha < 1 {
		return *card.AnalysisPlan.Alpha
	}
	return defaultAlpha
}

// isSignificant decides whether a reported result cleared alpha,
// preferring the extracted flag over recomputing from the p-value.
func isSignificant(r trial.Result, alpha float64) bool {
	if r.IsSignificant != nil {
		return *r.IsSignificant
	}
	return r.PValue != nil && *r.PValue <= alpha
}
