package signals

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// UncontrolledPivotalEvaluator flags pivotal trials run without a
// concurrent control arm on an endpoint that is not objectively
// measured. Single-arm designs on subjective endpoints rarely survive
// confirmatory review.
type UncontrolledPivotalEvaluator struct{}

// NewUncontrolledPivotalEvaluator creates the evaluator.
func NewUncontrolledPivotalEvaluator() *UncontrolledPivotalEvaluator {
	return &UncontrolledPivotalEvaluator{}
}

func (e *UncontrolledPivotalEvaluator) ID() core.SignalID { return signal.UncontrolledPivotal }

func (e *UncontrolledPivotalEvaluator) Name() string { return "uncontrolled_pivotal" }

func (e *UncontrolledPivotalEvaluator) Description() string {
	return "Detects pivotal trials lacking a concurrent control arm on a non-objective endpoint"
}

func (e *UncontrolledPivotalEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	if !card.IsPivotal {
		return signal.NotFired(e.ID(), "not a pivotal trial; design check skipped")
	}
	if len(card.Arms) == 0 {
		return signal.NotFired(e.ID(), "trial arms not reported")
	}
	if _, ok := card.ControlArm(); ok {
		return signal.NotFired(e.ID(), "concurrent control arm present")
	}

	ep, ok := card.PrimaryEndpoint()
	if !ok {
		return signal.NotFired(e.ID(), "no primary endpoint reported")
	}
	if ep.IsObjective {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("single-arm design but primary endpoint %q is objectively measured", ep.Name))
	}

	sev := signal.SeverityMedium
	if card.Phase == "3" {
		sev = signal.SeverityHigh
	}

	res := signal.Fired(e.ID(), sev, float64(len(card.Arms)), ep.Evidence,
		fmt.Sprintf("pivotal trial has no concurrent control and primary endpoint %q is not objective", ep.Name))
	res.Metadata = map[string]interface{}{
		"arms":             len(card.Arms),
		"primary_endpoint": ep.Name,
		"phase":            card.Phase,
	}
	return res
}
