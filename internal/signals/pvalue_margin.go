package signals

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// marginWindow is how far below alpha a p-value still counts as
// uncomfortably close to the threshold.
const marginWindow = 0.01

// PValueMarginEvaluator flags a primary p-value that only just cleared
// the significance threshold. Severity is a deterministic function of
// the distance from alpha.
type PValueMarginEvaluator struct{}

// NewPValueMarginEvaluator creates the evaluator.
func NewPValueMarginEvaluator() *PValueMarginEvaluator {
	return &PValueMarginEvaluator{}
}

func (e *PValueMarginEvaluator) ID() core.SignalID { return signal.PValueMargin }

func (e *PValueMarginEvaluator) Name() string { return "pvalue_margin" }

func (e *PValueMarginEvaluator) Description() string {
	return "Detects primary p-values sitting just under the significance threshold"
}

func (e *PValueMarginEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	result, ok := card.PrimaryITTResult()
	if !ok || result.PValue == nil {
		return signal.NotFired(e.ID(), "no overall p-value reported for the primary endpoint")
	}
	p := *result.PValue
	alpha := alphaFor(card)

	if p >= alpha {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("primary p-value %.4f did not clear alpha %.3f; margin check not applicable", p, alpha))
	}
	distance := alpha - p
	if distance > marginWindow {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("primary p-value %.4f clears alpha %.3f comfortably", p, alpha))
	}

	sev := signal.SeverityLow
	switch {
	case distance < 0.002:
		sev = signal.SeverityHigh
	case distance < 0.005:
		sev = signal.SeverityMedium
	}

	res := signal.Fired(e.ID(), sev, p, result.Evidence,
		fmt.Sprintf("primary p-value %.4f sits %.4f under alpha %.3f", p, distance, alpha))
	res.Metadata = map[string]interface{}{
		"alpha":    alpha,
		"distance": distance,
	}
	return res
}
