package gate

import (
	"fmt"
	"strings"

	"trialgate/domain/core"
	"trialgate/domain/signal"
)

// EvaluateAll evaluates every configured gate against the fired signal
// set. A gate fires iff its boolean expression is true over fired
// flags alone; evidence only refines the LR and the rationale. A gate
// firing without any captured evidence is allowed but noted in the
// rationale as lower confidence.
func EvaluateAll(present map[core.SignalID]bool, evidence signal.EvidenceIndex, defs []Definition) map[core.GateID]Eval {
	evals := make(map[core.GateID]Eval, len(defs))
	for _, def := range defs {
		evals[def.GateID] = evaluate(present, evidence, def)
	}
	return evals
}

func evaluate(present map[core.SignalID]bool, evidence signal.EvidenceIndex, def Definition) Eval {
	if !def.Expression.Eval(present) {
		return Eval{
			GateID:    def.GateID,
			Fired:     false,
			LRUsed:    1.0,
			Rationale: fmt.Sprintf("%s not satisfied", def.Expression.Raw()),
		}
	}

	contributing := def.Expression.FiredSignals(present)
	spans := evidence.SpansFor(contributing)
	sev, hasSev := evidence.MaxSeverity(contributing)
	lr := def.LRFor(sev, hasSev)

	rationale := fmt.Sprintf("%s present", joinSignals(contributing))
	if hasSev {
		rationale += fmt.Sprintf(", %s severity", strings.ToLower(string(sev)))
	}
	if len(spans) == 0 {
		rationale += " (no supporting evidence captured)"
	}

	return Eval{
		GateID:             def.GateID,
		Fired:              true,
		SupportingSignals:  contributing,
		SupportingEvidence: spans,
		LRUsed:             lr,
		Rationale:          rationale,
	}
}

func joinSignals(ids []core.SignalID) string {
	if len(ids) == 0 {
		return "no signals"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " & ")
}
