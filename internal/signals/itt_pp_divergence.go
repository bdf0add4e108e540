package signals

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// ITTPPDivergenceEvaluator fires when the primary analysis runs on the
// per-protocol population while the intent-to-treat view is absent or
// negative. Dropping non-compliers is a known way to flatter an effect.
type ITTPPDivergenceEvaluator struct{}

// NewITTPPDivergenceEvaluator creates the evaluator.
func NewITTPPDivergenceEvaluator() *ITTPPDivergenceEvaluator {
	return &ITTPPDivergenceEvaluator{}
}

func (e *ITTPPDivergenceEvaluator) ID() core.SignalID { return signal.ITTPPDivergence }

func (e *ITTPPDivergenceEvaluator) Name() string { return "itt_pp_divergence" }

func (e *ITTPPDivergenceEvaluator) Description() string {
	return "Detects primary analysis on per-protocol population with ITT absent or non-significant"
}

func (e *ITTPPDivergenceEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	if card.AnalysisPlan.Population == "" {
		return signal.NotFired(e.ID(), "analysis population not reported")
	}
	if card.AnalysisPlan.Population != trial.PopulationPP {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("primary analysis population is %s; divergence check skipped", card.AnalysisPlan.Population))
	}

	alpha := alphaFor(card)
	ittResult, hasITT := card.PrimaryITTResult()

	if hasITT && isSignificant(ittResult, alpha) {
		return signal.NotFired(e.ID(), "ITT result significant despite per-protocol primary analysis")
	}

	sev := signal.SeverityMedium
	reason := "primary analysis on per-protocol population with no ITT result reported"
	var ev *signal.EvidenceSpan
	if hasITT {
		sev = signal.SeverityHigh
		reason = "primary analysis on per-protocol population while the ITT result is non-significant"
		ev = ittResult.Evidence
	}

	res := signal.Fired(e.ID(), sev, 0, ev, reason)
	res.Value = nil
	res.Metadata = map[string]interface{}{
		"itt_reported": hasITT,
	}
	return res
}
