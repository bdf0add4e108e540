package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialgate/domain/core"
	"trialgate/domain/gate"
	"trialgate/domain/signal"
)

func stopRuleConfig(t *testing.T) *Config {
	t.Helper()
	known := signal.KnownSignals()

	r1, err := gate.Compile("R1", "S1", known)
	require.NoError(t, err)
	r2, err := gate.Compile("R2", "S3 & S8", known)
	require.NoError(t, err)

	high := signal.SeverityHigh
	cfg, err := NewConfig("test-rev", testBounds(), nil, []StopRule{
		{
			RuleID:          "R1",
			Predicate:       r1,
			RequireSeverity: &SeverityRequirement{Signal: "S1", AtLeast: high},
			Floor:           0.97,
		},
		{RuleID: "R2", Predicate: r2, Floor: 0.90},
	})
	require.NoError(t, err)
	return cfg
}

func TestApplyStopRules_ForcedFloor(t *testing.T) {
	// Endpoint switched after last patient randomized: regardless of
	// the gate-computed value, the final probability is >= 0.97.
	cfg := stopRuleConfig(t)
	present := map[core.SignalID]bool{"S1": true}
	evidence := signal.EvidenceIndex{
		"S1": {Severity: signal.SeverityHigh, Spans: []signal.EvidenceSpan{{SourceID: "doc-1"}}},
	}

	pFail, applied := ApplyStopRules(0.42, present, evidence, cfg)

	assert.GreaterOrEqual(t, pFail, 0.97)
	require.Len(t, applied, 1)
	assert.Equal(t, core.RuleID("R1"), applied[0].RuleID)
	assert.Equal(t, 0.97, applied[0].Level)
}

func TestApplyStopRules_SeverityWithoutSpansStillTriggers(t *testing.T) {
	// The severity requirement reads the signal's recorded severity; a
	// fired signal with no quoted span must still satisfy it.
	cfg := stopRuleConfig(t)
	present := map[core.SignalID]bool{"S1": true}
	evidence := signal.EvidenceIndex{
		"S1": {Severity: signal.SeverityHigh},
	}

	pFail, applied := ApplyStopRules(0.42, present, evidence, cfg)

	assert.GreaterOrEqual(t, pFail, 0.97)
	require.Len(t, applied, 1)
	assert.Equal(t, core.RuleID("R1"), applied[0].RuleID)
}

func TestApplyStopRules_Monotone(t *testing.T) {
	cfg := stopRuleConfig(t)
	present := map[core.SignalID]bool{"S3": true, "S8": true}

	// Already above the floor: untouched, but still recorded.
	pFail, applied := ApplyStopRules(0.95, present, nil, cfg)
	assert.Equal(t, 0.95, pFail, "stop rules never lower p_fail")
	assert.Len(t, applied, 1)
}

func TestApplyStopRules_SeverityRequirementGates(t *testing.T) {
	cfg := stopRuleConfig(t)
	present := map[core.SignalID]bool{"S1": true}

	// Medium severity does not satisfy the High requirement.
	evidence := signal.EvidenceIndex{
		"S1": {Severity: signal.SeverityMedium, Spans: []signal.EvidenceSpan{{SourceID: "doc-1"}}},
	}
	pFail, applied := ApplyStopRules(0.42, present, evidence, cfg)
	assert.Equal(t, 0.42, pFail)
	assert.Empty(t, applied)

	// No evidence at all: the qualified rule cannot trigger.
	pFail, applied = ApplyStopRules(0.42, present, nil, cfg)
	assert.Equal(t, 0.42, pFail)
	assert.Empty(t, applied)
}

func TestApplyStopRules_MultipleRulesCombineViaMax(t *testing.T) {
	cfg := stopRuleConfig(t)
	present := map[core.SignalID]bool{"S1": true, "S3": true, "S8": true}
	evidence := signal.EvidenceIndex{
		"S1": {Severity: signal.SeverityHigh, Spans: []signal.EvidenceSpan{{SourceID: "doc-1"}}},
	}

	pFail, applied := ApplyStopRules(0.10, present, evidence, cfg)

	// Both rules trigger; max(0.97, 0.90), never a sum or average.
	assert.Equal(t, 0.97, pFail)
	assert.Len(t, applied, 2)
}

func TestApplyStopRules_NoTrigger(t *testing.T) {
	cfg := stopRuleConfig(t)
	pFail, applied := ApplyStopRules(0.42, map[core.SignalID]bool{"S2": true}, nil, cfg)
	assert.Equal(t, 0.42, pFail)
	assert.Empty(t, applied)
}
