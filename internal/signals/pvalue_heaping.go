package signals

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

const (
	// minReportedPValues is needed before a heaping pattern means anything.
	minReportedPValues = 3
	// heapingTailAlpha rejects the uniform null for the marginal band count.
	heapingTailAlpha = 0.01
)

// PValueHeapingEvaluator looks across every reported p-value for a
// pile-up just under alpha. The count in the marginal band is compared
// to a binomial null where each p-value lands in the band with
// probability equal to the band width.
type PValueHeapingEvaluator struct{}

// NewPValueHeapingEvaluator creates the evaluator.
func NewPValueHeapingEvaluator() *PValueHeapingEvaluator {
	return &PValueHeapingEvaluator{}
}

func (e *PValueHeapingEvaluator) ID() core.SignalID { return signal.PValueHeaping }

func (e *PValueHeapingEvaluator) Name() string { return "pvalue_heaping" }

func (e *PValueHeapingEvaluator) Description() string {
	return "Detects reported p-values heaping in the marginal band just under alpha"
}

func (e *PValueHeapingEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	alpha := alphaFor(card)

	var all, inBand []float64
	var bandEvidence *signal.EvidenceSpan
	for _, r := range card.Results {
		if r.PValue == nil {
			continue
		}
		p := *r.PValue
		all = append(all, p)
		if p < alpha && alpha-p <= marginWindow {
			inBand = append(inBand, p)
			if bandEvidence == nil {
				bandEvidence = r.Evidence
			}
		}
	}

	if len(all) < minReportedPValues {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("only %d p-values reported; at least %d needed for a heaping check", len(all), minReportedPValues))
	}
	if len(inBand) < 2 {
		return signal.NotFired(e.ID(), "no pile-up of p-values in the marginal band")
	}

	// P(X >= k) under Binomial(n, bandWidth) with a uniform-null band
	// probability of marginWindow.
	binom := distuv.Binomial{N: float64(len(all)), P: marginWindow}
	tail := 1 - binom.CDF(float64(len(inBand)-1))

	if tail >= heapingTailAlpha {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("%d of %d p-values in the marginal band is consistent with chance (tail %.4f)", len(inBand), len(all), tail))
	}

	sev := signal.SeverityMedium
	if tail < 0.001 {
		sev = signal.SeverityHigh
	}

	bandMean, _ := stats.Mean(inBand)
	res := signal.Fired(e.ID(), sev, tail, bandEvidence,
		fmt.Sprintf("%d of %d reported p-values heap just under alpha %.3f (mean %.4f, binomial tail %.2g)",
			len(inBand), len(all), alpha, bandMean, tail))
	res.Metadata = map[string]interface{}{
		"reported_pvalues": len(all),
		"in_band":          len(inBand),
		"band_mean":        bandMean,
		"binomial_tail":    tail,
	}
	return res
}
