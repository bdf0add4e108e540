package signals

import (
	"time"

	"trialgate/domain/core"
	"trialgate/domain/trial"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }

// baseCard returns a minimal pivotal phase-3 card with a single
// primary endpoint and a significant overall result. Tests mutate it.
func baseCard() *trial.StudyCard {
	return &trial.StudyCard{
		TrialID:    "NCT00000001",
		SourceID:   "registry-v1",
		Version:    3,
		CapturedAt: core.NewTimestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		Phase:      "3",
		IsPivotal:  true,
		DrugClass:  "SSRI",
		Endpoints: []trial.Endpoint{
			{Name: "HAM-D change", Role: trial.EndpointPrimary, IsObjective: false},
		},
		Arms: []trial.Arm{
			{Name: "active", N: iptr(150), IsControl: false},
			{Name: "placebo", N: iptr(150), IsControl: true},
		},
		AnalysisPlan: trial.AnalysisPlan{
			Population: trial.PopulationITT,
			Alpha:      fptr(0.05),
		},
		Results: []trial.Result{
			{EndpointName: "HAM-D change", Population: trial.PopulationITT, PValue: fptr(0.02), EffectSize: fptr(0.35)},
		},
	}
}

// historyWith returns a single-version history whose earliest snapshot
// is derived from the base card with the given mutation applied.
func historyWith(mutate func(*trial.StudyCard)) *trial.VersionHistory {
	earliest := baseCard()
	earliest.Version = 1
	earliest.CapturedAt = core.NewTimestamp(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))
	if mutate != nil {
		mutate(earliest)
	}
	return &trial.VersionHistory{TrialID: earliest.TrialID, Versions: []trial.StudyCard{*earliest}}
}
