package signals

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// SubgroupOnlyWinEvaluator fires when the positive story rests on a
// subgroup while the overall intent-to-treat primary result is not
// significant. Skips entirely when ITT already won.
type SubgroupOnlyWinEvaluator struct{}

// NewSubgroupOnlyWinEvaluator creates the evaluator.
func NewSubgroupOnlyWinEvaluator() *SubgroupOnlyWinEvaluator {
	return &SubgroupOnlyWinEvaluator{}
}

func (e *SubgroupOnlyWinEvaluator) ID() core.SignalID { return signal.SubgroupOnlyWin }

func (e *SubgroupOnlyWinEvaluator) Name() string { return "subgroup_only_win" }

func (e *SubgroupOnlyWinEvaluator) Description() string {
	return "Detects positive claims resting on a subgroup while the overall ITT result missed"
}

func (e *SubgroupOnlyWinEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	ep, ok := card.PrimaryEndpoint()
	if !ok {
		return signal.NotFired(e.ID(), "no primary endpoint reported")
	}
	alpha := alphaFor(card)

	ittResult, hasITT := card.PrimaryITTResult()
	if hasITT && isSignificant(ittResult, alpha) {
		return signal.NotFired(e.ID(), "overall ITT primary result already significant; subgroup check skipped")
	}

	var win *trial.Result
	subgroupCount := 0
	for i, r := range card.Results {
		if r.EndpointName != ep.Name || r.Subgroup == "" {
			continue
		}
		subgroupCount++
		if win == nil && isSignificant(r, alpha) {
			win = &card.Results[i]
		}
	}
	if subgroupCount == 0 {
		return signal.NotFired(e.ID(), "no subgroup results reported for the primary endpoint")
	}
	if win == nil {
		return signal.NotFired(e.ID(), "no significant subgroup result claimed")
	}

	// A subgroup win with no overall result reported at all is the
	// weaker disclosure posture and weighs more.
	sev := signal.SeverityMedium
	reason := fmt.Sprintf("significant result claimed only in subgroup %q while overall ITT missed", win.Subgroup)
	if !hasITT {
		sev = signal.SeverityHigh
		reason = fmt.Sprintf("significant result claimed only in subgroup %q with no overall ITT result reported", win.Subgroup)
	}

	value := 0.0
	if win.PValue != nil {
		value = *win.PValue
	}
	res := signal.Fired(e.ID(), sev, value, win.Evidence, reason)
	res.Metadata = map[string]interface{}{
		"subgroup":            win.Subgroup,
		"subgroups_reported":  subgroupCount,
		"overall_itt_present": hasITT,
	}
	return res
}
