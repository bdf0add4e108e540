package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialgate/domain/signal"
	"trialgate/domain/trial"
)

func TestEndpointSwitch_NoHistory(t *testing.T) {
	ev := NewEndpointSwitchEvaluator()

	res := ev.Evaluate(baseCard(), nil, nil)

	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "no version history")
}

func TestEndpointSwitch_Unchanged(t *testing.T) {
	ev := NewEndpointSwitchEvaluator()

	res := ev.Evaluate(baseCard(), historyWith(nil), nil)

	assert.False(t, res.Fired)
	assert.Contains(t, res.Reason, "unchanged")
}

func TestEndpointSwitch_BeforeLastPatientRandomized(t *testing.T) {
	ev := NewEndpointSwitchEvaluator()
	card := baseCard()
	lpr := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) // after capture
	card.LastPatientRandomizedAt = &lpr
	history := historyWith(func(c *trial.StudyCard) {
		c.Endpoints = []trial.Endpoint{{Name: "MADRS change", Role: trial.EndpointPrimary}}
	})

	res := ev.Evaluate(card, history, nil)

	require.True(t, res.Fired)
	require.NotNil(t, res.Severity)
	assert.Equal(t, signal.SeverityMedium, *res.Severity)
}

func TestEndpointSwitch_AfterLastPatientRandomized(t *testing.T) {
	ev := NewEndpointSwitchEvaluator()
	card := baseCard()
	lpr := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // before capture
	card.LastPatientRandomizedAt = &lpr
	history := historyWith(func(c *trial.StudyCard) {
		c.Endpoints = []trial.Endpoint{{Name: "MADRS change", Role: trial.EndpointPrimary}}
	})

	res := ev.Evaluate(card, history, nil)

	require.True(t, res.Fired)
	require.NotNil(t, res.Severity)
	assert.Equal(t, signal.SeverityHigh, *res.Severity)
	assert.Contains(t, res.Reason, "after last patient randomized")
	assert.Equal(t, "MADRS change", res.Metadata["original_endpoint"])
	assert.Equal(t, "HAM-D change", res.Metadata["current_endpoint"])
}
