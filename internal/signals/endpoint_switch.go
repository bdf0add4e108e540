package signals

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// EndpointSwitchEvaluator detects a changed primary endpoint across
// trial versions. A switch landing after last-patient-randomized is
// the classic salvage move and is rated High.
type EndpointSwitchEvaluator struct{}

// NewEndpointSwitchEvaluator creates the evaluator.
func NewEndpointSwitchEvaluator() *EndpointSwitchEvaluator {
	return &EndpointSwitchEvaluator{}
}

func (e *EndpointSwitchEvaluator) ID() core.SignalID { return signal.EndpointSwitch }

func (e *EndpointSwitchEvaluator) Name() string { return "endpoint_switch" }

func (e *EndpointSwitchEvaluator) Description() string {
	return "Detects a primary endpoint changed between registered trial versions"
}

func (e *EndpointSwitchEvaluator) Evaluate(card *trial.StudyCard, history *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	original, ok := history.Earliest()
	if !ok {
		return signal.NotFired(e.ID(), "no version history available")
	}

	origEP, ok := original.PrimaryEndpoint()
	if !ok {
		return signal.NotFired(e.ID(), "earliest version reports no primary endpoint")
	}
	curEP, ok := card.PrimaryEndpoint()
	if !ok {
		return signal.NotFired(e.ID(), "current version reports no primary endpoint")
	}

	if origEP.Name == curEP.Name {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("primary endpoint %q unchanged across %d versions", curEP.Name, len(history.Versions)+1))
	}

	sev := signal.SeverityMedium
	reason := fmt.Sprintf("primary endpoint switched from %q to %q", origEP.Name, curEP.Name)
	if card.LastPatientRandomizedAt != nil && card.CapturedAt.Time().After(*card.LastPatientRandomizedAt) {
		sev = signal.SeverityHigh
		reason += " after last patient randomized"
	}

	res := signal.Fired(e.ID(), sev, float64(card.Version-original.Version), curEP.Evidence, reason)
	res.Metadata = map[string]interface{}{
		"original_endpoint": origEP.Name,
		"current_endpoint":  curEP.Name,
		"original_version":  original.Version,
		"current_version":   card.Version,
	}
	return res
}
