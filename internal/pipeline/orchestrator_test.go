// internal/pipeline/orchestrator_test.go
package pipeline

import (
	"context"
	"errors"
	"testing"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/observability"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/notify"
	"job-snatcher/internal/scoring"
	"job-snatcher/internal/stages"
	"job-snatcher/internal/wol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store    *memStore
	admitter *fakeAdmitter
	services *fakeCaller
	avail    *fakeAvailability
	sink     *recordingSink
	orch     *Orchestrator
}

// newHarness wires every stage against in-memory fakes. generate overrides the
// generator service when non-nil.
func newHarness(t *testing.T, cosine, reasoning map[string]float64, online bool, generate stages.Caller) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)

	h := &harness{store: newMemStore(), avail: &fakeAvailability{online: online}, sink: &recordingSink{name: "curator"}}
	h.admitter = newFakeAdmitter(h.store)
	h.services = scoringServices(h.store, cosine, reasoning)
	if generate == nil {
		generate = h.services
	}

	gates := scoring.Gates{ReasoningGate: 0.6, GenerateThreshold: 0.5}
	h.orch = NewOrchestrator(Stages{
		Ingest:    NewIngestStage(h.admitter, 1, log),
		Cosine:    NewCosineStage(h.services, nil, log),
		Reasoning: NewReasoningStage(h.services, h.store, h.avail, wol.Target{}, gates, nil, log),
		Combine:   NewCombineStage(h.store, 2, nil, log),
		Generate:  NewRemoteGenerateStage(h.store, gates, generate, nil, log),
		Notify:    NewNotifyStage(h.store, []notify.Sink{h.sink}, log),
	}, log, observability.NewNoop())
	return h
}

// ==========================
// End to end
// ==========================

func TestRun_ScenarioOnlyStrongMatchIsDrafted(t *testing.T) {
	h := newHarness(t,
		map[string]float64{"job-1": 0.8, "job-2": 0.4},
		map[string]float64{"job-1": 0.5},
		true, nil)

	report, err := h.orch.Run(context.Background(), []string{"https://jobs.example/a", "https://jobs.example/b"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.True(t, report.Succeeded())
	assert.Equal(t, []string{"job-1", "job-2"}, report.Ingested)
	assert.Equal(t, []string{"job-1"}, report.Drafted)
	assert.NotEmpty(t, report.BatchID)

	a := h.store.record("job-1")
	assert.Equal(t, 0.59, *a.CombinedScore)
	assert.Equal(t, jobs.StatusDrafted, a.Status)

	b := h.store.record("job-2")
	assert.Equal(t, 0.4, *b.CombinedScore)
	assert.Nil(t, b.ReasoningScore)
	assert.Equal(t, jobs.StatusMatched, b.Status)

	assert.Equal(t, [][]string{{"job-1"}}, h.services.requests(stages.EndpointReason))
	assert.Equal(t, []string{"job-1"}, h.sink.got)

	gen := report.Stage(StageGenerate)
	require.NotNil(t, gen)
	assert.Equal(t, []string{"job-1"}, gen.Survivors)
	assert.Equal(t, ReasonBelowThreshold, outcomes(gen)["job-2"].Reason)
	assert.Len(t, report.Stages, 6)
}

func TestRun_RemoteComputeUnavailableFallsBackToCosine(t *testing.T) {
	h := newHarness(t,
		map[string]float64{"job-1": 0.8, "job-2": 0.4},
		map[string]float64{"job-1": 0.1},
		false, nil)

	report, err := h.orch.Run(context.Background(), []string{"https://jobs.example/a", "https://jobs.example/b"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, ReasonRemoteUnavailable, report.Stage(StageReasoning).StageSkip)
	assert.Empty(t, h.services.requests(stages.EndpointReason))

	assert.Equal(t, 0.8, *h.store.record("job-1").CombinedScore)
	assert.Equal(t, []string{"job-1"}, report.Drafted)
}

func TestRun_DuplicateUrlsAreNotReprocessed(t *testing.T) {
	h := newHarness(t, map[string]float64{"job-1": 0.3}, nil, true, nil)

	_, err := h.orch.Run(context.Background(), []string{"https://jobs.example/a"})
	require.NoError(t, err)

	report, err := h.orch.Run(context.Background(), []string{"https://jobs.example/a"})
	require.NoError(t, err)
	assert.Empty(t, report.Ingested)
	assert.Equal(t, 1, report.Stage(StageIngest).Skipped)
	assert.Len(t, h.services.requests(stages.EndpointMatch), 1)
}

// ==========================
// Failures
// ==========================

func TestRun_StructuralFailureAbortsRemainingStages(t *testing.T) {
	h := newHarness(t, nil, nil, true, nil)
	h.services.fn = func(endpoint string, ids []string) (*stages.Response, error) {
		return nil, apperrors.NewStageResponseInvalidError("cosine", "results: required")
	}

	report, err := h.orch.Run(context.Background(), []string{"https://jobs.example/a"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStageResponseInvalid, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), StageCosine)

	assert.Equal(t, StateIngested, report.State)
	assert.False(t, report.Succeeded())
	assert.NotEmpty(t, report.Error)
	assert.Nil(t, report.Stage(StageReasoning))
	assert.Equal(t, jobs.StatusDiscovered, h.store.record("job-1").Status)
}

func TestRun_GenerateFailureStopsAtFiltered(t *testing.T) {
	broken := newFakeCaller(func(string, []string) (*stages.Response, error) {
		return nil, apperrors.NewTransientNetworkError("generator", errors.New("connection refused"))
	})
	h := newHarness(t, map[string]float64{"job-1": 0.9}, map[string]float64{"job-1": 0.9}, true, broken)

	report, err := h.orch.Run(context.Background(), []string{"https://jobs.example/a"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, StateFiltered, report.State)
	assert.Empty(t, report.Drafted)
	assert.Empty(t, h.sink.got)

	assert.Equal(t, 0.9, *h.store.record("job-1").CombinedScore)
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t, nil, nil, true, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.orch.Run(ctx, []string{"https://jobs.example/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateStart, report.State)
}

// ==========================
// RunIDs
// ==========================

func TestRunIDs_StartsAtCosine(t *testing.T) {
	h := newHarness(t, map[string]float64{"x": 0.65}, map[string]float64{"x": 0.2}, true, nil)
	h.store.recs["x"] = &jobs.Record{ID: "x", Status: jobs.StatusDiscovered}

	report, err := h.orch.RunIDs(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, []string{"x"}, report.Ingested)
	assert.Nil(t, report.Stage(StageIngest))
	// 0.3*0.65 + 0.7*0.2 = 0.335
	assert.Equal(t, 0.335, *h.store.record("x").CombinedScore)
	assert.Empty(t, report.Drafted)
}

func TestRun_EmptyBatch(t *testing.T) {
	h := newHarness(t, nil, nil, true, nil)

	report, err := h.orch.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StateDone, report.State)
	assert.Empty(t, h.services.requests(stages.EndpointMatch))
	assert.Zero(t, h.avail.calls)
}
