package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialgate/domain/core"
	"trialgate/domain/gate"
	"trialgate/domain/signal"
)

func testBounds() Bounds {
	return Bounds{
		LRMin:      0.25,
		LRMax:      20.0,
		LogitMin:   -8.0,
		LogitMax:   8.0,
		PriorFloor: 0.01,
		PriorCeil:  0.99,
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	known := signal.KnownSignals()
	g1, err := gate.Compile("G1", "S1 & S2", known)
	require.NoError(t, err)
	g3, err := gate.Compile("G3", "S5 & (S7 | S6)", known)
	require.NoError(t, err)

	cfg, err := NewConfig("test-rev", testBounds(), []gate.Definition{
		{GateID: "G1", Expression: g1, BaseLR: 3.5},
		{GateID: "G3", Expression: g3, BaseLR: 4.2},
	}, nil)
	require.NoError(t, err)
	return cfg
}

func firedEval(id core.GateID, lr float64) gate.Eval {
	return gate.Eval{GateID: id, Fired: true, LRUsed: lr, Rationale: "test"}
}

func TestScore_TwoFiredGates(t *testing.T) {
	// prior odds 0.65/0.35, combined LR 3.5*4.2 = 14.7,
	// posterior odds 27.3, p_fail = 27.3/28.3
	cfg := testConfig(t)
	evals := map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 3.5),
		"G3": firedEval("G3", 4.2),
	}

	res := Score("NCT001", "run-1", 0.65, evals, cfg)

	assert.InDelta(t, 27.3/28.3, res.PFail, 1e-9)
	assert.InDelta(t, 0.9647, res.PFail, 5e-4)
	assert.InDelta(t, math.Log(3.5)+math.Log(4.2), res.SumLogLR, 1e-12)
	assert.Equal(t, 0.65, res.PriorPi)
}

func TestScore_NoFiredGates_PriorPassesThroughExactly(t *testing.T) {
	cfg := testConfig(t)

	for _, prior := range []float64{0.05, 0.3, 0.65, 0.9} {
		res := Score("NCT001", "run-1", prior, nil, cfg)
		assert.Equal(t, prior, res.PFail, "prior %g must pass through untouched", prior)
		assert.Zero(t, res.SumLogLR)
	}
}

func TestScore_PriorFloorRespected(t *testing.T) {
	// prior below the floor, no fired gates: exactly the floor,
	// no NaN or overflow from a near-zero logit
	cfg := testConfig(t)

	res := Score("NCT001", "run-1", 0.001, nil, cfg)

	assert.Equal(t, 0.01, res.PFail)
	assert.Equal(t, 0.01, res.PriorPi)
	assert.Equal(t, 0.001, res.PriorRaw)
	assert.False(t, math.IsNaN(res.LogitPrior))
	assert.False(t, math.IsInf(res.LogitPrior, 0))
}

func TestScore_PriorCeilRespected(t *testing.T) {
	cfg := testConfig(t)
	res := Score("NCT001", "run-1", 0.9999, nil, cfg)
	assert.Equal(t, 0.99, res.PFail)
}

func TestScore_OrderIndependent(t *testing.T) {
	cfg := testConfig(t)
	a := map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 3.5),
		"G3": firedEval("G3", 4.2),
	}
	b := map[core.GateID]gate.Eval{
		"G3": firedEval("G3", 4.2),
		"G1": firedEval("G1", 3.5),
	}

	resA := Score("NCT001", "run-1", 0.65, a, cfg)
	resB := Score("NCT001", "run-2", 0.65, b, cfg)

	assert.Equal(t, resA.SumLogLR, resB.SumLogLR)
	assert.Equal(t, resA.PFail, resB.PFail)
}

func TestScore_LRClampedIntoBounds(t *testing.T) {
	cfg := testConfig(t)
	evals := map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 1000), // above lr_max 20
	}

	res := Score("NCT001", "run-1", 0.5, evals, cfg)

	assert.InDelta(t, math.Log(20), res.SumLogLR, 1e-12)
}

func TestScore_Monotonicity(t *testing.T) {
	cfg := testConfig(t)
	base := Score("NCT001", "run-1", 0.4, map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 3.5),
	}, cfg)

	withRiskIncreasing := Score("NCT001", "run-2", 0.4, map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 3.5),
		"G3": firedEval("G3", 2.0),
	}, cfg)
	assert.GreaterOrEqual(t, withRiskIncreasing.PFail, base.PFail,
		"adding a gate with lr > 1 must not decrease p_fail")

	withRiskDecreasing := Score("NCT001", "run-3", 0.4, map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 3.5),
		"G3": firedEval("G3", 0.5),
	}, cfg)
	assert.LessOrEqual(t, withRiskDecreasing.PFail, base.PFail,
		"adding a gate with lr < 1 must not increase p_fail")
}

func TestScore_LogitPostClamped(t *testing.T) {
	cfg := testConfig(t)
	evals := map[core.GateID]gate.Eval{
		"G1": firedEval("G1", 20),
		"G3": firedEval("G3", 20),
	}

	res := Score("NCT001", "run-1", 0.99, evals, cfg)

	assert.LessOrEqual(t, res.LogitPost, cfg.Bounds.LogitMax)
	assert.LessOrEqual(t, res.PFail, 1.0)
	assert.GreaterOrEqual(t, res.PFail, 0.0)
}

func TestScore_UnfiredGatesContributeNothing(t *testing.T) {
	cfg := testConfig(t)
	evals := map[core.GateID]gate.Eval{
		"G1": {GateID: "G1", Fired: false, LRUsed: 1.0},
		"G3": firedEval("G3", 4.2),
	}

	res := Score("NCT001", "run-1", 0.5, evals, cfg)
	assert.InDelta(t, math.Log(4.2), res.SumLogLR, 1e-12)
}

func TestClamp_Idempotent(t *testing.T) {
	for _, x := range []float64{-5, 0, 0.003, 0.5, 0.97, 12} {
		once := Clamp(x, 0.01, 0.99)
		twice := Clamp(once, 0.01, 0.99)
		assert.Equal(t, once, twice, "clamp must be idempotent for %g", x)
	}
}

func TestLogitSigmoid_RoundTrip(t *testing.T) {
	for _, p := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
		assert.InDelta(t, p, sigmoid(logit(p)), 1e-12)
	}
}
