package signal

import (
	"trialgate/domain/core"
)

// SignalEvidence is one fired signal's entry in the evidence index:
// the severity the signal assigned and the spans supporting it.
// Severity is a property of the signal result, not of any span, so a
// fired signal may carry a severity with no spans at all.
type SignalEvidence struct {
	Severity Severity       `json:"severity,omitempty"`
	Spans    []EvidenceSpan `json:"spans,omitempty"`
}

// EvidenceIndex maps each fired signal to its severity and spans.
type EvidenceIndex map[core.SignalID]SignalEvidence

// CollectEvidence builds the per-signal evidence index from a full set
// of signal results. Unfired signals contribute nothing; a fired
// signal is indexed when it carries a severity or a span or both.
func CollectEvidence(results map[core.SignalID]SignalResult) EvidenceIndex {
	idx := make(EvidenceIndex)
	for id, res := range results {
		if !res.Fired {
			continue
		}
		var entry SignalEvidence
		if res.Severity != nil {
			entry.Severity = *res.Severity
		}
		if res.Evidence != nil {
			entry.Spans = append(entry.Spans, *res.Evidence)
		}
		if !entry.Severity.IsValid() && len(entry.Spans) == 0 {
			continue
		}
		idx[id] = entry
	}
	return idx
}

// PresentSignals returns the set of signal ids that fired.
func PresentSignals(results map[core.SignalID]SignalResult) map[core.SignalID]bool {
	present := make(map[core.SignalID]bool, len(results))
	for id, res := range results {
		if res.Fired {
			present[id] = true
		}
	}
	return present
}

// MaxSeverity returns the weightiest severity among the given signals.
// ok is false when none of them carries a severity.
func (idx EvidenceIndex) MaxSeverity(signals []core.SignalID) (Severity, bool) {
	var best Severity
	found := false
	for _, id := range signals {
		sev := idx[id].Severity
		if !sev.IsValid() {
			continue
		}
		if !found || sev.Outranks(best) {
			best = sev
			found = true
		}
	}
	return best, found
}

// SpansFor flattens all spans contributed by the given signals,
// preserving the caller's signal order.
func (idx EvidenceIndex) SpansFor(signals []core.SignalID) []EvidenceSpan {
	var spans []EvidenceSpan
	for _, id := range signals {
		spans = append(spans, idx[id].Spans...)
	}
	return spans
}

// SeverityFor returns one signal's severity, if it carries one.
func (idx EvidenceIndex) SeverityFor(id core.SignalID) (Severity, bool) {
	sev := idx[id].Severity
	return sev, sev.IsValid()
}
