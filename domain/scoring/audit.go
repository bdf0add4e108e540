package scoring

import (
	"encoding/json"
	"sort"

	"trialgate/domain/core"
	"trialgate/domain/signal"
)

// GateAudit is the per-gate slice of the audit trail.
type GateAudit struct {
	GateID             core.GateID           `json:"gate_id"`
	Fired              bool                  `json:"fired"`
	LRUsed             float64               `json:"lr_used"`
	SupportingSignals  []core.SignalID       `json:"supporting_signal_ids,omitempty"`
	SupportingEvidence []signal.EvidenceSpan `json:"supporting_evidence,omitempty"`
	Rationale          string                `json:"rationale"`
}

// AuditTrail is the complete, replayable record of one scoring run.
// It carries everything needed to recompute the final probability
// without re-running signal evaluation. Never mutated after creation.
type AuditTrail struct {
	ConfigRevision   core.ConfigRevision  `json:"config_revision"`
	TrialID          core.TrialID         `json:"trial_id"`
	RunID            core.RunID           `json:"run_id"`
	Bounds           Bounds               `json:"bounds"`
	PriorRaw         float64              `json:"prior_raw"`
	PriorPi          float64              `json:"prior_pi"`
	LogitPrior       float64              `json:"logit_prior"`
	SumLogLR         float64              `json:"sum_log_lr"`
	LogitPost        float64              `json:"logit_post"`
	PFail            float64              `json:"p_fail"`
	Gates            []GateAudit          `json:"gates"`
	StopRulesApplied []AppliedStopRule    `json:"stop_rules_applied,omitempty"`
	EvidenceBySignal signal.EvidenceIndex `json:"evidence_by_signal,omitempty"`
	ScoredAt         core.Timestamp       `json:"scored_at"`
	BuiltAt          core.Timestamp       `json:"built_at"`
}

// BuildAuditTrail serializes a score result into its audit record.
// Pure transcription: no value is recomputed or adjusted. Gates are
// emitted in gate-id order so identical runs serialize identically.
func BuildAuditTrail(res Result, revision core.ConfigRevision, evidence signal.EvidenceIndex) AuditTrail {
	gateIDs := make([]core.GateID, 0, len(res.GateEvals))
	for id := range res.GateEvals {
		gateIDs = append(gateIDs, id)
	}
	sort.Slice(gateIDs, func(i, j int) bool { return gateIDs[i] < gateIDs[j] })

	gates := make([]GateAudit, 0, len(gateIDs))
	for _, id := range gateIDs {
		ev := res.GateEvals[id]
		gates = append(gates, GateAudit{
			GateID:             ev.GateID,
			Fired:              ev.Fired,
			LRUsed:             ev.LRUsed,
			SupportingSignals:  ev.SupportingSignals,
			SupportingEvidence: ev.SupportingEvidence,
			Rationale:          ev.Rationale,
		})
	}

	return AuditTrail{
		ConfigRevision:   revision,
		TrialID:          res.TrialID,
		RunID:            res.RunID,
		Bounds:           res.Bounds,
		PriorRaw:         res.PriorRaw,
		PriorPi:          res.PriorPi,
		LogitPrior:       res.LogitPrior,
		SumLogLR:         res.SumLogLR,
		LogitPost:        res.LogitPost,
		PFail:            res.PFail,
		Gates:            gates,
		StopRulesApplied: res.StopRulesApplied,
		EvidenceBySignal: evidence,
		ScoredAt:         res.ScoredAt,
		BuiltAt:          core.Now(),
	}
}

// MarshalIndent renders the trail as stable, human-readable JSON.
func (a AuditTrail) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}
