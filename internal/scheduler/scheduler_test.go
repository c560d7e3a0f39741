// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"job-snatcher/internal/common/config"
	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/pipeline"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const queueKey = "test:pending"

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, urls []string) (*pipeline.BatchReport, error) {
	args := m.Called(ctx, urls)
	r, _ := args.Get(0).(*pipeline.BatchReport)
	return r, args.Error(1)
}

func (m *MockRunner) RunIDs(ctx context.Context, ids []string) (*pipeline.BatchReport, error) {
	args := m.Called(ctx, ids)
	r, _ := args.Get(0).(*pipeline.BatchReport)
	return r, args.Error(1)
}

func setupQueue(t *testing.T) (*miniredis.Miniredis, *Queue) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewQueue(client, queueKey)
}

func newTestScheduler(t *testing.T, runner Runner, q *Queue, retries int) *Scheduler {
	s := New(runner, q, config.SchedulerConfig{Spec: "0 8 * * *", BatchSize: 2, MaxRetries: retries, RetryDelay: 1000}, logger.NewTestLogger(t))
	s.wait = func(context.Context, time.Duration) error { return nil }
	return s
}

// ==========================
// Queue
// ==========================

func TestQueue_FIFO(t *testing.T) {
	_, q := setupQueue(t)
	ctx := context.Background()

	n, err := q.Push(ctx, "u1", "u2", "u3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := q.Pop(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got)

	rest, err := q.Pop(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, rest)

	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	empty, err := q.Pop(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestQueue_PushError(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	q := NewQueue(client, queueKey)

	rmock.ExpectRPush(queueKey, "u1").SetErr(errors.New("OOM"))

	_, err := q.Push(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue urls")
	assert.NoError(t, rmock.ExpectationsWereMet())
}

// ==========================
// RunOnce
// ==========================

func TestRunOnce_EmptyQueue(t *testing.T) {
	_, q := setupQueue(t)
	runner := new(MockRunner)

	report, err := newTestScheduler(t, runner, q, 2).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunOnce_Success(t *testing.T) {
	_, q := setupQueue(t)
	_, err := q.Push(context.Background(), "u1", "u2", "u3")
	require.NoError(t, err)

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, []string{"u1", "u2"}).
		Return(&pipeline.BatchReport{State: pipeline.StateDone}, nil).Once()

	report, err := newTestScheduler(t, runner, q, 2).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Succeeded())

	n, _ := q.Len(context.Background())
	assert.Equal(t, int64(1), n)
	runner.AssertExpectations(t)
}

func TestRunOnce_RetriesIngestedIds(t *testing.T) {
	_, q := setupQueue(t)
	_, err := q.Push(context.Background(), "u1")
	require.NoError(t, err)

	transient := apperrors.NewTransientNetworkError("reasoning", errors.New("timeout"))
	failed := &pipeline.BatchReport{BatchID: "b1", State: pipeline.StateCosineScored, Ingested: []string{"job-1"}}

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, []string{"u1"}).Return(failed, transient).Once()
	runner.On("RunIDs", mock.Anything, []string{"job-1"}).Return(failed, transient).Once()
	runner.On("RunIDs", mock.Anything, []string{"job-1"}).
		Return(&pipeline.BatchReport{State: pipeline.StateDone, Ingested: []string{"job-1"}}, nil).Once()

	report, err := newTestScheduler(t, runner, q, 2).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateDone, report.State)
	runner.AssertNumberOfCalls(t, "RunIDs", 2)
}

func TestRunOnce_RetriesExhausted(t *testing.T) {
	_, q := setupQueue(t)
	_, _ = q.Push(context.Background(), "u1")

	transient := apperrors.NewTransientNetworkError("cosine", errors.New("refused"))
	failed := &pipeline.BatchReport{State: pipeline.StateIngested, Ingested: []string{"job-1"}}

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(failed, transient)
	runner.On("RunIDs", mock.Anything, mock.Anything).Return(failed, transient)

	_, err := newTestScheduler(t, runner, q, 1).RunOnce(context.Background())
	require.Error(t, err)
	runner.AssertNumberOfCalls(t, "RunIDs", 1)
}

func TestRunOnce_NonRetryableNotRetried(t *testing.T) {
	_, q := setupQueue(t)
	_, _ = q.Push(context.Background(), "u1")

	invalid := apperrors.NewStageResponseInvalidError("cosine", "results: required")
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).
		Return(&pipeline.BatchReport{State: pipeline.StateIngested, Ingested: []string{"job-1"}}, invalid)

	_, err := newTestScheduler(t, runner, q, 3).RunOnce(context.Background())
	require.Error(t, err)
	runner.AssertNotCalled(t, "RunIDs", mock.Anything, mock.Anything)
}

// ==========================
// Lifecycle
// ==========================

func TestStartStop(t *testing.T) {
	_, q := setupQueue(t)
	s := newTestScheduler(t, new(MockRunner), q, 0)

	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestStart_InvalidSpec(t *testing.T) {
	_, q := setupQueue(t)
	s := New(new(MockRunner), q, config.SchedulerConfig{Spec: "not a spec"}, logger.NewNoOpLogger())
	assert.Error(t, s.Start(context.Background()))
}
