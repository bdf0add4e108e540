package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialgate/adapters/configfile"
	"trialgate/domain/core"
	"trialgate/domain/scoring"
	"trialgate/domain/trial"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// quietCard fires no signals: non-pivotal, well-behaved results, no history.
func quietCard(id core.TrialID) *trial.StudyCard {
	return &trial.StudyCard{
		TrialID:    id,
		SourceID:   "registry-v1",
		Version:    1,
		CapturedAt: core.NewTimestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		Phase:      "3",
		IsPivotal:  false,
		Endpoints: []trial.Endpoint{
			{Name: "overall survival", Role: trial.EndpointPrimary, IsObjective: true},
		},
		Arms: []trial.Arm{
			{Name: "active", N: iptr(300)},
			{Name: "placebo", N: iptr(300), IsControl: true},
		},
		AnalysisPlan: trial.AnalysisPlan{Population: trial.PopulationITT},
		Results: []trial.Result{
			{EndpointName: "overall survival", PValue: fptr(0.02)},
		},
	}
}

// salvageCard triggers the endpoint-switch and under-powering signals
// together: pivotal, tiny enrollment, primary endpoint changed after
// last patient randomized.
func salvageCard(id core.TrialID) (*trial.StudyCard, *trial.VersionHistory) {
	lpr := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	card := &trial.StudyCard{
		TrialID:                 id,
		SourceID:                "registry-v3",
		Version:                 3,
		CapturedAt:              core.NewTimestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		Phase:                   "3",
		IsPivotal:               true,
		LastPatientRandomizedAt: &lpr,
		Endpoints: []trial.Endpoint{
			// No quoted span on the switched endpoint: severity alone
			// must carry the stop-rule decision.
			{Name: "responder rate", Role: trial.EndpointPrimary},
		},
		Arms: []trial.Arm{
			{Name: "active", N: iptr(30)},
			{Name: "placebo", N: iptr(30), IsControl: true},
		},
		AnalysisPlan: trial.AnalysisPlan{
			Population:    trial.PopulationITT,
			AssumedEffect: fptr(0.30),
		},
	}
	earliest := *card
	earliest.Version = 1
	earliest.CapturedAt = core.NewTimestamp(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))
	earliest.Endpoints = []trial.Endpoint{
		{Name: "symptom score change", Role: trial.EndpointPrimary},
	}
	history := &trial.VersionHistory{TrialID: id, Versions: []trial.StudyCard{earliest}}
	return card, history
}

func newService(t *testing.T) *ScoreService {
	t.Helper()
	return NewScoreService(configfile.Default(), nil, nil, nil)
}

func TestScoreTrial_QuietCardReturnsPrior(t *testing.T) {
	svc := newService(t)

	eval, err := svc.ScoreTrial(context.Background(), quietCard("NCT-quiet"), nil, nil, 0.65)
	require.NoError(t, err)

	assert.Equal(t, 0.65, eval.Result.PFail, "with no fired gates the posterior is exactly the prior")
	assert.Empty(t, eval.Result.StopRulesApplied)
	assert.Len(t, eval.Signals, 9)
	for _, res := range eval.Signals {
		assert.False(t, res.Fired, "%s fired unexpectedly: %s", res.SignalID, res.Reason)
	}
}

func TestScoreTrial_SalvagePatternHitsStopFloor(t *testing.T) {
	svc := newService(t)
	card, history := salvageCard("NCT-salvage")

	eval, err := svc.ScoreTrial(context.Background(), card, history, nil, 0.65)
	require.NoError(t, err)

	// S1 fires High (switch after last patient randomized) and S2 fires
	// (pivotal, n=60, standardized effect 0.30), so the alpha-meltdown
	// gate fires and the high-severity endpoint-switch floor applies.
	assert.True(t, eval.Signals["S1"].Fired, "S1: %s", eval.Signals["S1"].Reason)
	assert.True(t, eval.Signals["S2"].Fired, "S2: %s", eval.Signals["S2"].Reason)
	require.Contains(t, eval.Result.GateEvals, core.GateID("G1"))
	assert.True(t, eval.Result.GateEvals["G1"].Fired)

	require.Len(t, eval.Result.StopRulesApplied, 1)
	assert.Equal(t, core.RuleID("R1"), eval.Result.StopRulesApplied[0].RuleID)
	assert.Equal(t, 0.97, eval.Result.PFail)

	assert.Equal(t, svc.Config().Revision, eval.Trail.ConfigRevision)
	assert.Equal(t, eval.Result.PFail, eval.Trail.PFail)
}

// memCards is an in-memory CardReader for exercising the id-driven path.
type memCards struct {
	cards     map[core.TrialID]*trial.StudyCard
	histories map[core.TrialID]*trial.VersionHistory
}

func (m *memCards) Current(_ context.Context, id core.TrialID) (*trial.StudyCard, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTrialNotFound, id)
	}
	return card, nil
}

func (m *memCards) History(_ context.Context, id core.TrialID) (*trial.VersionHistory, error) {
	return m.histories[id], nil
}

type memClasses struct {
	lookups []string
	meta    *trial.ClassMetadata
}

func (m *memClasses) ForClass(_ context.Context, class string) (*trial.ClassMetadata, error) {
	m.lookups = append(m.lookups, class)
	return m.meta, nil
}

func TestScoreTrialByID_ResolvesThroughReaders(t *testing.T) {
	svc := newService(t)
	card, history := salvageCard("NCT-salvage")
	card.DrugClass = "SSRI"
	cards := &memCards{
		cards:     map[core.TrialID]*trial.StudyCard{"NCT-salvage": card},
		histories: map[core.TrialID]*trial.VersionHistory{"NCT-salvage": history},
	}
	classes := &memClasses{meta: &trial.ClassMetadata{Class: "SSRI"}}

	eval, err := svc.ScoreTrialByID(context.Background(), cards, classes, "NCT-salvage", 0.65)
	require.NoError(t, err)

	assert.Equal(t, 0.97, eval.Result.PFail)
	assert.Equal(t, []string{"SSRI"}, classes.lookups)
}

func TestScoreTrialByID_UnknownTrial(t *testing.T) {
	svc := newService(t)
	cards := &memCards{cards: map[core.TrialID]*trial.StudyCard{}}

	_, err := svc.ScoreTrialByID(context.Background(), cards, nil, "NCT-missing", 0.65)
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err), "not-found must survive wrapping: %v", err)
}

func TestScoreTrial_NilCard(t *testing.T) {
	svc := newService(t)

	_, err := svc.ScoreTrial(context.Background(), nil, nil, nil, 0.65)
	require.Error(t, err)
}

func TestScoreTrialRun_ReusesCallerRunID(t *testing.T) {
	svc := newService(t)
	runID := core.RunID("run-fixed")

	eval, err := svc.ScoreTrialRun(context.Background(), runID, quietCard("NCT-quiet"), nil, nil, 0.65)
	require.NoError(t, err)

	assert.Equal(t, runID, eval.Result.RunID)
	assert.Equal(t, runID, eval.Trail.RunID)
}

// memScores is the in-memory ScoreRepository used to observe persistence.
type memScores struct {
	mu    sync.Mutex
	saved []*scoring.Result
	fail  error
}

func (m *memScores) Save(_ context.Context, r *scoring.Result) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func (m *memScores) GetByRun(context.Context, core.TrialID, core.RunID) (*scoring.Result, error) {
	return nil, core.ErrNotFound
}

func (m *memScores) ListByTrial(context.Context, core.TrialID, int) ([]*scoring.Result, error) {
	return nil, nil
}

type memAudits struct {
	mu    sync.Mutex
	saved []*scoring.AuditTrail
}

func (m *memAudits) Save(_ context.Context, trail *scoring.AuditTrail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, trail)
	return nil
}

func (m *memAudits) GetByRun(context.Context, core.TrialID, core.RunID) (*scoring.AuditTrail, error) {
	return nil, core.ErrNotFound
}

func TestScoreTrial_PersistsResultAndTrail(t *testing.T) {
	scores := &memScores{}
	audits := &memAudits{}
	svc := NewScoreService(configfile.Default(), nil, scores, audits)

	eval, err := svc.ScoreTrial(context.Background(), quietCard("NCT-persist"), nil, nil, 0.65)
	require.NoError(t, err)

	require.Len(t, scores.saved, 1)
	assert.Equal(t, eval.Result.RunID, scores.saved[0].RunID)
	require.Len(t, audits.saved, 1)
	assert.Equal(t, eval.Trail.RunID, audits.saved[0].RunID)
}

func TestScoreTrial_PersistFailureSurfaces(t *testing.T) {
	scores := &memScores{fail: errors.New("connection refused")}
	svc := NewScoreService(configfile.Default(), nil, scores, nil)

	_, err := svc.ScoreTrial(context.Background(), quietCard("NCT-persist"), nil, nil, 0.65)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist score result")
}

func TestScoreBatch_IsolatesFailures(t *testing.T) {
	svc := newService(t)
	salvage, history := salvageCard("NCT-salvage")

	items := []BatchItem{
		{Card: quietCard("NCT-a"), Prior: 0.65},
		{Card: nil, Prior: 0.65}, // decodes upstream would catch this; here it must only mark the slot
		{Card: salvage, History: history, Prior: 0.65},
	}

	outcomes := svc.ScoreBatch(context.Background(), items, 2)
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err)
	require.NotNil(t, outcomes[0].Eval)
	assert.Equal(t, core.TrialID("NCT-a"), outcomes[0].TrialID)

	assert.Error(t, outcomes[1].Err)
	assert.Nil(t, outcomes[1].Eval)

	assert.NoError(t, outcomes[2].Err)
	require.NotNil(t, outcomes[2].Eval)
	assert.Equal(t, 0.97, outcomes[2].Eval.Result.PFail)
}

func TestScoreBatch_OrderPreserved(t *testing.T) {
	svc := newService(t)

	ids := []core.TrialID{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}
	items := make([]BatchItem, len(ids))
	for i, id := range ids {
		items[i] = BatchItem{Card: quietCard(id), Prior: 0.65}
	}

	outcomes := svc.ScoreBatch(context.Background(), items, 3)
	require.Len(t, outcomes, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, outcomes[i].TrialID)
	}
}
