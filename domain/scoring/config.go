// Package scoring converts a prior failure probability and a set of
// fired gates into a calibrated posterior, applies hard stop-rule
// floors, and records the full computation as a replayable audit trail.
package scoring

import (
	"fmt"

	"trialgate/domain/core"
	"trialgate/domain/gate"
	"trialgate/domain/signal"
)

// Bounds are the global numeric guards. Every probability and LR is
// clamped into these ranges before any logarithmic operation, so the
// engine can never take log of zero or divide by zero.
type Bounds struct {
	LRMin      float64 `json:"lr_min"`
	LRMax      float64 `json:"lr_max"`
	LogitMin   float64 `json:"logit_min"`
	LogitMax   float64 `json:"logit_max"`
	PriorFloor float64 `json:"prior_floor"`
	PriorCeil  float64 `json:"prior_ceil"`
}

// Validate rejects bounds that could admit a degenerate computation.
// Called once at configuration load; evaluation assumes valid bounds.
func (b Bounds) Validate() error {
	if b.PriorFloor <= 0 {
		return core.NewBoundsError(fmt.Sprintf("prior_floor must be > 0, got %g", b.PriorFloor))
	}
	if b.PriorCeil >= 1 {
		return core.NewBoundsError(fmt.Sprintf("prior_ceil must be < 1, got %g", b.PriorCeil))
	}
	if b.PriorFloor >= b.PriorCeil {
		return core.NewBoundsError(fmt.Sprintf("prior_floor %g >= prior_ceil %g", b.PriorFloor, b.PriorCeil))
	}
	if b.LRMin <= 0 {
		return core.NewBoundsError(fmt.Sprintf("lr_min must be > 0, got %g", b.LRMin))
	}
	if b.LRMin >= b.LRMax {
		return core.NewBoundsError(fmt.Sprintf("lr_min %g >= lr_max %g", b.LRMin, b.LRMax))
	}
	if b.LogitMin >= b.LogitMax {
		return core.NewBoundsError(fmt.Sprintf("logit_min %g >= logit_max %g", b.LogitMin, b.LogitMax))
	}
	// The clamped prior's logit must itself sit inside the logit
	// bounds, so a run with no fired gates reproduces the prior exactly.
	if logit(b.PriorFloor) < b.LogitMin || logit(b.PriorCeil) > b.LogitMax {
		return core.NewBoundsError(fmt.Sprintf(
			"logit bounds [%g, %g] do not cover prior range logits [%g, %g]",
			b.LogitMin, b.LogitMax, logit(b.PriorFloor), logit(b.PriorCeil)))
	}
	return nil
}

// Config is the process-wide, read-only scoring configuration. It is
// built once, validated fatally on any defect, and passed explicitly
// into every call; there is no module-level singleton.
type Config struct {
	Revision  core.ConfigRevision
	Bounds    Bounds
	Gates     []gate.Definition
	StopRules []StopRule
}

// NewConfig validates and assembles a configuration. Any defect —
// bad bounds, duplicate ids, non-positive LRs, invalid severities,
// missing expressions, out-of-range floors — is fatal.
func NewConfig(revision core.ConfigRevision, bounds Bounds, gates []gate.Definition, rules []StopRule) (*Config, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	seenGates := make(map[core.GateID]bool, len(gates))
	for _, g := range gates {
		if g.GateID == "" {
			return nil, core.NewConfigError("gate", "missing gate id")
		}
		if seenGates[g.GateID] {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateGate, g.GateID)
		}
		seenGates[g.GateID] = true
		if g.Expression == nil {
			return nil, core.NewConfigError(string(g.GateID), "missing compiled expression")
		}
		if g.BaseLR <= 0 {
			return nil, core.NewConfigError(string(g.GateID), fmt.Sprintf("base_lr must be > 0, got %g", g.BaseLR))
		}
		for sev, lr := range g.SeverityLR {
			if !sev.IsValid() {
				return nil, core.NewConfigError(string(g.GateID), fmt.Sprintf("unknown severity %q", sev))
			}
			if lr <= 0 {
				return nil, core.NewConfigError(string(g.GateID), fmt.Sprintf("severity lr for %s must be > 0, got %g", sev, lr))
			}
		}
	}

	seenRules := make(map[core.RuleID]bool, len(rules))
	for _, r := range rules {
		if r.RuleID == "" {
			return nil, core.NewConfigError("stop_rule", "missing rule id")
		}
		if seenRules[r.RuleID] {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateRule, r.RuleID)
		}
		seenRules[r.RuleID] = true
		if r.Predicate == nil {
			return nil, core.NewConfigError(string(r.RuleID), "missing compiled predicate")
		}
		if r.Floor <= 0 || r.Floor > 1 {
			return nil, core.NewConfigError(string(r.RuleID), fmt.Sprintf("floor must be in (0, 1], got %g", r.Floor))
		}
		if r.RequireSeverity != nil {
			if !signal.KnownSignals()[r.RequireSeverity.Signal] {
				return nil, core.NewUnknownSignalError(string(r.RuleID), string(r.RequireSeverity.Signal))
			}
			if !r.RequireSeverity.AtLeast.IsValid() {
				return nil, core.NewConfigError(string(r.RuleID), fmt.Sprintf("unknown severity %q", r.RequireSeverity.AtLeast))
			}
		}
	}

	return &Config{
		Revision:  revision,
		Bounds:    bounds,
		Gates:     gates,
		StopRules: rules,
	}, nil
}

// EvaluateGates evaluates every configured gate against the fired
// signal set and its evidence.
func (c *Config) EvaluateGates(present map[core.SignalID]bool, evidence signal.EvidenceIndex) map[core.GateID]gate.Eval {
	return gate.EvaluateAll(present, evidence, c.Gates)
}
