package signals

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

// shrinkThreshold is the fractional enrollment cut that starts to matter.
const shrinkThreshold = 0.15

// EnrollmentShrinkEvaluator detects planned enrollment cut materially
// across versions without an accompanying SAP amendment. A quiet cut
// usually means the original power assumption was abandoned.
type EnrollmentShrinkEvaluator struct{}

// NewEnrollmentShrinkEvaluator creates the evaluator.
func NewEnrollmentShrinkEvaluator() *EnrollmentShrinkEvaluator {
	return &EnrollmentShrinkEvaluator{}
}

func (e *EnrollmentShrinkEvaluator) ID() core.SignalID { return signal.EnrollmentShrink }

func (e *EnrollmentShrinkEvaluator) Name() string { return "enrollment_shrink" }

func (e *EnrollmentShrinkEvaluator) Description() string {
	return "Detects planned enrollment reduced across versions without an SAP amendment"
}

func (e *EnrollmentShrinkEvaluator) Evaluate(card *trial.StudyCard, history *trial.VersionHistory, _ *trial.ClassMetadata) signal.SignalResult {
	original, ok := history.Earliest()
	if !ok {
		return signal.NotFired(e.ID(), "no version history available")
	}
	if original.PlannedEnrollment == nil || *original.PlannedEnrollment <= 0 {
		return signal.NotFired(e.ID(), "earliest version reports no planned enrollment")
	}
	if card.PlannedEnrollment == nil {
		return signal.NotFired(e.ID(), "current version reports no planned enrollment")
	}

	orig := *original.PlannedEnrollment
	cur := *card.PlannedEnrollment
	shrink := 1 - float64(cur)/float64(orig)

	if shrink <= shrinkThreshold {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("planned enrollment change %d -> %d within tolerance", orig, cur))
	}
	if card.AnalysisPlan.SAPAmended {
		return signal.NotFired(e.ID(),
			fmt.Sprintf("planned enrollment cut %d -> %d but the SAP was amended alongside", orig, cur))
	}

	sev := signal.SeverityLow
	switch {
	case shrink > 0.40:
		sev = signal.SeverityHigh
	case shrink > 0.25:
		sev = signal.SeverityMedium
	}

	res := signal.Fired(e.ID(), sev, shrink, nil,
		fmt.Sprintf("planned enrollment cut %.0f%% (%d -> %d) with no SAP amendment", shrink*100, orig, cur))
	res.Metadata = map[string]interface{}{
		"original_enrollment": orig,
		"current_enrollment":  cur,
		"shrink_fraction":     shrink,
	}
	return res
}
