package scoring

import (
	"trialgate/domain/core"
	"trialgate/domain/gate"
	"trialgate/domain/signal"
)

// SeverityRequirement optionally narrows a stop rule to fire only when
// one signal's evidence reaches a minimum severity. Needed for rules
// like "endpoint switched after last patient randomized", where the
// switch signal alone is not enough but a High-severity switch is.
type SeverityRequirement struct {
	Signal  core.SignalID   `json:"signal"`
	AtLeast signal.Severity `json:"at_least"`
}

// StopRule is a hard override pattern: when its predicate holds over
// the fired signal set, the final probability is forced up to Floor.
type StopRule struct {
	RuleID          core.RuleID
	Predicate       *gate.CompiledExpr
	RequireSeverity *SeverityRequirement
	Floor           float64
}

// AppliedStopRule records one triggered rule and the floor it demanded.
type AppliedStopRule struct {
	RuleID core.RuleID `json:"rule_id"`
	Level  float64     `json:"level"`
}

// triggered evaluates the rule against the fired signals and, when a
// severity requirement is set, against the evidence index.
func (r StopRule) triggered(present map[core.SignalID]bool, evidence signal.EvidenceIndex) bool {
	if !r.Predicate.Eval(present) {
		return false
	}
	if r.RequireSeverity == nil {
		return true
	}
	sev, ok := evidence.SeverityFor(r.RequireSeverity.Signal)
	if !ok {
		return false
	}
	return sev == r.RequireSeverity.AtLeast || sev.Outranks(r.RequireSeverity.AtLeast)
}

// ApplyStopRules checks every configured stop rule and forces the
// probability up to the maximum triggered floor. Strictly monotone:
// the returned probability is never below pFail, and simultaneous
// rules combine via max, never sum or average.
func ApplyStopRules(pFail float64, present map[core.SignalID]bool, evidence signal.EvidenceIndex, cfg *Config) (float64, []AppliedStopRule) {
	var applied []AppliedStopRule
	maxFloor := 0.0
	for _, rule := range cfg.StopRules {
		if !rule.triggered(present, evidence) {
			continue
		}
		applied = append(applied, AppliedStopRule{RuleID: rule.RuleID, Level: rule.Floor})
		if rule.Floor > maxFloor {
			maxFloor = rule.Floor
		}
	}
	if maxFloor > pFail {
		return maxFloor, applied
	}
	return pFail, applied
}
