// Package gate evaluates named failure patterns: boolean combinations
// of fired signals, each carrying a calibrated likelihood ratio.
package gate

import (
	"trialgate/domain/core"
	"trialgate/domain/signal"
)

// Definition is one configured gate. Expressions are compiled at
// configuration load time; Definitions are immutable afterwards.
type Definition struct {
	GateID     core.GateID
	Name       string
	Expression *CompiledExpr
	BaseLR     float64
	// SeverityLR overrides BaseLR when the gate's contributing
	// signals carry evidence of the given severity.
	SeverityLR map[signal.Severity]float64
}

// LRFor selects the likelihood ratio for the highest severity among
// contributing evidence, falling back to the base LR when no severity
// information is present or no override is configured for it.
func (d Definition) LRFor(sev signal.Severity, hasSeverity bool) float64 {
	if hasSeverity {
		if lr, ok := d.SeverityLR[sev]; ok {
			return lr
		}
	}
	return d.BaseLR
}

// Eval is the outcome of evaluating one gate against one run's signals.
type Eval struct {
	GateID             core.GateID           `json:"gate_id"`
	Fired              bool                  `json:"fired"`
	SupportingSignals  []core.SignalID       `json:"supporting_signal_ids,omitempty"`
	SupportingEvidence []signal.EvidenceSpan `json:"supporting_evidence,omitempty"`
	LRUsed             float64               `json:"lr_used"`
	Rationale          string                `json:"rationale"`
}
