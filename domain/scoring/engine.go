package scoring

import (
	"math"
	"sort"

	"trialgate/domain/core"
	"trialgate/domain/gate"
)

// Result is one immutable scoring outcome per (trial, run).
type Result struct {
	TrialID          core.TrialID               `json:"trial_id"`
	RunID            core.RunID                 `json:"run_id"`
	PriorRaw         float64                    `json:"prior_raw"`
	PriorPi          float64                    `json:"prior_pi"`
	LogitPrior       float64                    `json:"logit_prior"`
	SumLogLR         float64                    `json:"sum_log_lr"`
	LogitPost        float64                    `json:"logit_post"`
	PFail            float64                    `json:"p_fail"`
	Bounds           Bounds                     `json:"bounds"`
	GateEvals        map[core.GateID]gate.Eval  `json:"gate_evals"`
	StopRulesApplied []AppliedStopRule          `json:"stop_rules_applied,omitempty"`
	ScoredAt         core.Timestamp             `json:"scored_at"`
}

// Clamp bounds x into [lo, hi]. Idempotent by construction.
func Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// logit is the log-odds transform ln(p / (1-p)). Callers must clamp p
// into (0, 1) first.
func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// sigmoid inverts logit.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Score combines a prior failure probability with the fired gates'
// likelihood ratios in logit space. Deterministic and order-independent:
// log LRs are summed in gate-id order regardless of map iteration.
//
// With no fired gates the result is exactly the clamped prior; the
// logit round trip is skipped so no floating-point drift creeps in.
func Score(trialID core.TrialID, runID core.RunID, priorRaw float64, gateEvals map[core.GateID]gate.Eval, cfg *Config) Result {
	b := cfg.Bounds

	priorPi := Clamp(priorRaw, b.PriorFloor, b.PriorCeil)
	logitPrior := logit(priorPi)

	// Stable summation order: sorted gate ids.
	firedIDs := make([]core.GateID, 0, len(gateEvals))
	for id, ev := range gateEvals {
		if ev.Fired {
			firedIDs = append(firedIDs, id)
		}
	}
	sort.Slice(firedIDs, func(i, j int) bool { return firedIDs[i] < firedIDs[j] })

	sumLogLR := 0.0
	for _, id := range firedIDs {
		lr := Clamp(gateEvals[id].LRUsed, b.LRMin, b.LRMax)
		sumLogLR += math.Log(lr)
	}

	logitPost := Clamp(logitPrior+sumLogLR, b.LogitMin, b.LogitMax)

	var pFail float64
	if len(firedIDs) == 0 {
		pFail = priorPi
	} else {
		pFail = sigmoid(logitPost)
	}

	return Result{
		TrialID:    trialID,
		RunID:      runID,
		PriorRaw:   priorRaw,
		PriorPi:    priorPi,
		LogitPrior: logitPrior,
		SumLogLR:   sumLogLR,
		LogitPost:  logitPost,
		PFail:      pFail,
		Bounds:     b,
		GateEvals:  gateEvals,
		ScoredAt:   core.Now(),
	}
}
