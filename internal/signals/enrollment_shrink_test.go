package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

func shrinkHistory(planned int) *trial.VersionHistory {
	return historyWith(func(c *trial.StudyCard) {
		c.PlannedEnrollment = iptr(planned)
	})
}

func TestEnrollmentShrink_NoHistory(t *testing.T) {
	ev := NewEnrollmentShrinkEvaluator()

	res := ev.Evaluate(baseCard(), nil, nil)

	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "no version history")
}

func TestEnrollmentShrink_MissingPlannedEnrollment(t *testing.T) {
	ev := NewEnrollmentShrinkEvaluator()

	res := ev.Evaluate(baseCard(), historyWith(nil), nil)
	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "earliest version reports no planned enrollment")

	card := baseCard()
	res = ev.Evaluate(card, shrinkHistory(400), nil)
	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "current version reports no planned enrollment")
}

func TestEnrollmentShrink_WithinTolerance(t *testing.T) {
	ev := NewEnrollmentShrinkEvaluator()
	card := baseCard()
	card.PlannedEnrollment = iptr(360) // 10% cut from 400

	res := ev.Evaluate(card, shrinkHistory(400), nil)

	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "within tolerance")
}

func TestEnrollmentShrink_SAPAmendmentExcuses(t *testing.T) {
	ev := NewEnrollmentShrinkEvaluator()
	card := baseCard()
	card.PlannedEnrollment = iptr(200) // 50% cut
	card.AnalysisPlan.SAPAmended = true

	res := ev.Evaluate(card, shrinkHistory(400), nil)

	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "SAP was amended")
}

func TestEnrollmentShrink_SeverityBands(t *testing.T) {
	ev := NewEnrollmentShrinkEvaluator()

	cases := []struct {
		name    string
		current int
		wantSev signal.Severity
	}{
		{"moderate cut", 320, signal.SeverityLow},  // 20%
		{"large cut", 280, signal.SeverityMedium},  // 30%
		{"drastic cut", 200, signal.SeverityHigh},  // 50%
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			card := baseCard()
			card.PlannedEnrollment = iptr(tc.current)

			res := ev.Evaluate(card, shrinkHistory(400), nil)

			require.True(t, res.Fired, "reason: %s", res.Reason)
			require.NotNil(t, res.Severity)
			assert.Equal(t, tc.wantSev, *res.Severity)
			assert.Equal(t, 400, res.Metadata["original_enrollment"])
			assert.Equal(t, tc.current, res.Metadata["current_enrollment"])
		})
	}
}
