// Package trial defines the structured snapshot of a clinical trial that
// the scoring pipeline consumes. Snapshots are produced by external
// extraction collaborators and are never mutated here.
package trial

import (
	"time"

	"trialgate/domain/core"
	"trialgate/domain/signal"
)

// EndpointRole distinguishes primary endpoints from the rest.
type EndpointRole string

const (
	EndpointPrimary   EndpointRole = "primary"
	EndpointSecondary EndpointRole = "secondary"
)

// Population identifies the analysis population a result was computed on.
type Population string

const (
	PopulationITT Population = "ITT"
	PopulationPP  Population = "PP"
)

// Endpoint is one outcome measure declared in the trial's design.
type Endpoint struct {
	Name        string               `json:"name"`
	Role        EndpointRole         `json:"role"`
	Measure     string               `json:"measure,omitempty"`
	IsObjective bool                 `json:"is_objective"`
	Evidence    *signal.EvidenceSpan `json:"evidence,omitempty"`
}

// Arm is one treatment group.
type Arm struct {
	Name      string `json:"name"`
	N         *int   `json:"n,omitempty"`
	IsControl bool   `json:"is_control"`
}

// AnalysisPlan captures the statistical analysis plan fields the
// evaluators need. Pointer fields are absent when extraction could not
// find them; evaluators treat absence as data insufficiency, never as zero.
type AnalysisPlan struct {
	Population    Population `json:"population,omitempty"`
	Alpha         *float64   `json:"alpha,omitempty"`
	AssumedEffect *float64   `json:"assumed_effect,omitempty"`
	AssumedSD     *float64   `json:"assumed_sd,omitempty"`
	SAPAmended    bool       `json:"sap_amended"`
}

// Result is one reported outcome, possibly restricted to a subgroup.
type Result struct {
	EndpointName  string               `json:"endpoint_name"`
	Population    Population           `json:"population,omitempty"`
	Subgroup      string               `json:"subgroup,omitempty"`
	PValue        *float64             `json:"p_value,omitempty"`
	EffectSize    *float64             `json:"effect_size,omitempty"`
	IsSignificant *bool                `json:"is_significant,omitempty"`
	Evidence      *signal.EvidenceSpan `json:"evidence,omitempty"`
}

// StudyCard is the immutable structured snapshot of one trial version.
type StudyCard struct {
	TrialID    core.TrialID    `json:"trial_id"`
	SourceID   core.SourceID   `json:"source_id"`
	Version    int             `json:"version"`
	CapturedAt core.Timestamp  `json:"captured_at"`
	Phase      string          `json:"phase,omitempty"`
	IsPivotal  bool            `json:"is_pivotal"`
	DrugClass  string          `json:"drug_class,omitempty"`

	LastPatientRandomizedAt *time.Time `json:"last_patient_randomized_at,omitempty"`
	PlannedEnrollment       *int       `json:"planned_enrollment,omitempty"`

	Endpoints    []Endpoint   `json:"endpoints,omitempty"`
	Arms         []Arm        `json:"arms,omitempty"`
	AnalysisPlan AnalysisPlan `json:"analysis_plan"`
	Results      []Result     `json:"results,omitempty"`
}

// PrimaryEndpoint returns the first primary endpoint, if any.
func (c *StudyCard) PrimaryEndpoint() (Endpoint, bool) {
	for _, ep := range c.Endpoints {
		if ep.Role == EndpointPrimary {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// PrimaryITTResult returns the overall (no subgroup) ITT result for the
// primary endpoint, if reported.
func (c *StudyCard) PrimaryITTResult() (Result, bool) {
	ep, ok := c.PrimaryEndpoint()
	if !ok {
		return Result{}, false
	}
	for _, r := range c.Results {
		if r.EndpointName == ep.Name && r.Subgroup == "" && r.Population != PopulationPP {
			return r, true
		}
	}
	return Result{}, false
}

// ControlArm returns the concurrent control arm, if declared.
func (c *StudyCard) ControlArm() (Arm, bool) {
	for _, a := range c.Arms {
		if a.IsControl {
			return a, true
		}
	}
	return Arm{}, false
}

// TotalEnrolled sums arm sizes; ok is false when any arm size is missing.
func (c *StudyCard) TotalEnrolled() (int, bool) {
	if len(c.Arms) == 0 {
		return 0, false
	}
	total := 0
	for _, a := range c.Arms {
		if a.N == nil {
			return 0, false
		}
		total += *a.N
	}
	return total, true
}

// VersionHistory is the ordered sequence of prior snapshots for one
// trial, oldest first. Only change-detecting evaluators consume it.
type VersionHistory struct {
	TrialID  core.TrialID `json:"trial_id"`
	Versions []StudyCard  `json:"versions"`
}

// Earliest returns the oldest snapshot, if any.
func (h *VersionHistory) Earliest() (StudyCard, bool) {
	if h == nil || len(h.Versions) == 0 {
		return StudyCard{}, false
	}
	return h.Versions[0], true
}

// ClassMetadata carries historical reference statistics for a drug class.
// Percentile fields are precomputed by the supplier; HistoricalEffects,
// when present, allows recomputing percentiles from the raw distribution.
type ClassMetadata struct {
	Class             string    `json:"class"`
	EffectP50         *float64  `json:"effect_p50,omitempty"`
	EffectP90         *float64  `json:"effect_p90,omitempty"`
	EffectP975        *float64  `json:"effect_p97_5,omitempty"`
	HistoricalEffects []float64 `json:"historical_effects,omitempty"`
}
