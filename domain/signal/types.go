// Package signal defines the atomic risk indicators the pipeline
// evaluates per trial, and the evidence records that support them.
package signal

import (
	"trialgate/domain/core"
)

// Canonical signal identifiers. Every configured gate expression and
// stop rule predicate must reference only these.
const (
	EndpointSwitch      core.SignalID = "S1"
	Underpowered        core.SignalID = "S2"
	SubgroupOnlyWin     core.SignalID = "S3"
	ITTPPDivergence     core.SignalID = "S4"
	EffectOutlier       core.SignalID = "S5"
	PValueMargin        core.SignalID = "S6"
	PValueHeaping       core.SignalID = "S7"
	EnrollmentShrink    core.SignalID = "S8"
	UncontrolledPivotal core.SignalID = "S9"
)

// KnownSignals returns the closed set of valid signal identifiers.
func KnownSignals() map[core.SignalID]bool {
	return map[core.SignalID]bool{
		EndpointSwitch:      true,
		Underpowered:        true,
		SubgroupOnlyWin:     true,
		ITTPPDivergence:     true,
		EffectOutlier:       true,
		PValueMargin:        true,
		PValueHeaping:       true,
		EnrollmentShrink:    true,
		UncontrolledPivotal: true,
	}
}

// Severity classifies how strongly a fired signal's evidence weighs.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// rank orders severities; higher means weightier.
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Outranks returns true if s is strictly weightier than other.
func (s Severity) Outranks(other Severity) bool {
	return s.rank() > other.rank()
}

// IsValid reports whether s is one of the three known severities.
func (s Severity) IsValid() bool {
	return s.rank() > 0
}

// EvidenceSpan points into source material supporting a fired signal.
// It has no lifecycle of its own; it is always owned by a SignalResult.
type EvidenceSpan struct {
	SourceID  core.SourceID `json:"source_id"`
	Quote     string        `json:"quote,omitempty"`
	Page      *int          `json:"page,omitempty"`
	CharStart *int          `json:"char_start,omitempty"`
	CharEnd   *int          `json:"char_end,omitempty"`
}

// SignalResult is the outcome of evaluating one signal against one
// trial snapshot. Produced fresh on every run, never persisted here.
type SignalResult struct {
	SignalID core.SignalID          `json:"signal_id"`
	Fired    bool                   `json:"fired"`
	Severity *Severity              `json:"severity,omitempty"`
	Value    *float64               `json:"value,omitempty"`
	Evidence *EvidenceSpan          `json:"evidence,omitempty"`
	Reason   string                 `json:"reason"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NotFired builds the standard unfired result for a missing or
// structurally inapplicable input. Evaluators must never error instead.
func NotFired(id core.SignalID, reason string) SignalResult {
	return SignalResult{SignalID: id, Fired: false, Reason: reason}
}

// Fired builds a fired result with severity and optional evidence.
func Fired(id core.SignalID, sev Severity, value float64, ev *EvidenceSpan, reason string) SignalResult {
	v := value
	s := sev
	return SignalResult{
		SignalID: id,
		Fired:    true,
		Severity: &s,
		Value:    &v,
		Evidence: ev,
		Reason:   reason,
	}
}
