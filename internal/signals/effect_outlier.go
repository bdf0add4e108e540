package signals

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// minHistoricalEffects is the smallest raw distribution worth
// recomputing percentiles from; below that the supplied percentile
// fields are used as-is.
const minHistoricalEffects = 10

// EffectOutlierEvaluator compares the claimed primary effect size to
// the drug class's historical distribution. Effects beyond the 90th
// percentile of the class are suspicious; beyond the 97.5th, rarely real.
type EffectOutlierEvaluator struct{}

// NewEffectOutlierEvaluator creates the evaluator.
func NewEffectOutlierEvaluator() *EffectOutlierEvaluator {
	return &EffectOutlierEvaluator{}
}

func (e *EffectOutlierEvaluator) ID() core.SignalID { return signal.EffectOutlier }

func (e *EffectOutlierEvaluator) Name() string { return "effect_outlier" }

func (e *EffectOutlierEvaluator) Description() string {
	return "Detects claimed effect sizes implausibly large for the drug class"
}

func (e *EffectOutlierEvaluator) Evaluate(card *trial.StudyCard, _ *trial.VersionHistory, classMeta *trial.ClassMetadata) signal.SignalResult {
	if classMeta == nil {
		return signal.NotFired(e.ID(), "no class reference statistics supplied")
	}

	result, ok := card.PrimaryITTResult()
	if !ok || result.EffectSize == nil {
		return signal.NotFired(e.ID(), "no overall effect size reported for the primary endpoint")
	}
	effect := *result.EffectSize

	p90, p975, ok := classPercentiles(classMeta)
	if !ok {
		return signal.NotFired(e.ID(), "class statistics carry no usable percentile reference")
	}

	if effect <= p90 {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("claimed effect %.3f within the class 90th percentile (%.3f)", effect, p90))
	}

	sev := signal.SeverityMedium
	reason := fmt.Sprintf("claimed effect %.3f exceeds the class 90th percentile (%.3f)", effect, p90)
	if effect > p975 {
		sev = signal.SeverityHigh
		reason = fmt.Sprintf("claimed effect %.3f exceeds the class 97.5th percentile (%.3f)", effect, p975)
	}

	res := signal.Fired(e.ID(), sev, effect, result.Evidence, reason)
	res.Metadata = map[string]interface{}{
		"class":       classMeta.Class,
		"effect_p90":  p90,
		"effect_p975": p975,
	}
	return res
}

// classPercentiles resolves the 90th and 97.5th percentile reference,
// recomputing from the raw historical distribution when it is large
// enough, otherwise trusting the supplied fields.
func classPercentiles(meta *trial.ClassMetadata) (p90, p975 float64, ok bool) {
	if len(meta.HistoricalEffects) >= minHistoricalEffects {
		var err error
		p90, err = stats.Percentile(meta.HistoricalEffects, 90)
		if err != nil {
			return 0, 0, false
		}
		p975, err = stats.Percentile(meta.HistoricalEffects, 97.5)
		if err != nil {
			return 0, 0, false
		}
		return p90, p975, true
	}
	if meta.EffectP90 == nil {
		return 0, 0, false
	}
	p90 = *meta.EffectP90
	if meta.EffectP975 != nil {
		p975 = *meta.EffectP975
	} else {
		// Without a supplied tail percentile, only the High band is
		// unreachable; everything past p90 rates Medium.
		p975 = math.Inf(1)
	}
	return p90, p975, true
}
