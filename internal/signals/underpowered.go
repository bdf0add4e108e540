package signals

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// powerTarget is the conventional minimum power for a pivotal trial.
const powerTarget = 0.80

// UnderpoweredEvaluator flags pivotal trials whose enrollment cannot
// support the effect the analysis plan assumes. Uses the standard
// normal approximation for a two-arm comparison. Non-pivotal trials
// are skipped entirely.
type UnderpoweredEvaluator struct {
	stdNormal distuv.Normal
}

// NewUnderpoweredEvaluator creates the evaluator.
func NewUnderpoweredEvaluator() *UnderpoweredEvaluator {
	return &UnderpoweredEvaluator{stdNormal: distuv.Normal{Mu: 0, Sigma: 1}}
}

func (e *UnderpoweredEvaluator) ID() core.SignalID { return signal.Underpowered }

func (e *UnderpoweredEvaluator) Name() string { return "underpowered" }

func (e *UnderpoweredEvaluator) Description() string {
	return "Detects pivotal trials with insufficient power for the planned effect size"
}

func (e *UnderpoweredEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	if !card.IsPivotal {
		return signal.NotFired(e.ID(), "not a pivotal trial; power check skipped")
	}

	n, ok := card.TotalEnrolled()
	if !ok {
		if card.PlannedEnrollment == nil {
			return signal.NotFired(e.ID(), "missing sample size: no arm sizes or planned enrollment reported")
		}
		n = *card.PlannedEnrollment
	}
	if n <= 0 {
		return signal.NotFired(e.ID(), "missing sample size: reported enrollment is zero")
	}

	if card.AnalysisPlan.AssumedEffect == nil {
		return signal.NotFired(e.ID(), "missing assumed effect size in analysis plan")
	}
	delta := *card.AnalysisPlan.AssumedEffect
	if card.AnalysisPlan.AssumedSD != nil && *card.AnalysisPlan.AssumedSD > 0 {
		delta = delta / *card.AnalysisPlan.AssumedSD
	}
	if delta <= 0 {
		return signal.NotFired(e.ID(), "assumed effect size is not positive; power undefined")
	}

	alpha := alphaFor(card)

	// Two-sided z-test power for a two-arm comparison with n/2 per arm:
	// power = Phi(delta * sqrt(n/4) - z_{1-alpha/2}).
	zAlpha := e.stdNormal.Quantile(1 - alpha/2)
	power := e.stdNormal.CDF(delta*math.Sqrt(float64(n)/4) - zAlpha)

	if power >= powerTarget {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("estimated power %.2f meets the %.2f target", power, powerTarget))
	}

	sev := signal.SeverityLow
	switch {
	case power < 0.50:
		sev = signal.SeverityHigh
	case power < 0.65:
		sev = signal.SeverityMedium
	}

	res := signal.Fired(e.ID(), sev, power, nil,
		fmt.Sprintf("pivotal trial powered at %.2f for standardized effect %.2f with n=%d (target %.2f)",
			power, delta, n, powerTarget))
	res.Metadata = map[string]interface{}{
		"estimated_power":     power,
		"standardized_effect": delta,
		"total_enrollment":    n,
		"alpha":               alpha,
	}
	return res
}
