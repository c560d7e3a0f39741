// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"job-snatcher/internal/common/config"
	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/pipeline"

	"github.com/robfig/cron/v3"
)

// Runner starts pipeline batches.
type Runner interface {
	Run(ctx context.Context, urls []string) (*pipeline.BatchReport, error)
	RunIDs(ctx context.Context, ids []string) (*pipeline.BatchReport, error)
}

// Scheduler drains the pending queue on a cron spec. A batch that fails with
// a retryable error is re-run from its ingested ids after a delay.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	queue      *Queue
	runner     Runner
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
	wait       func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(runner Runner, queue *Queue, cfg config.SchedulerConfig, log logger.Logger) *Scheduler {
	log = log.WithFields(map[string]interface{}{"component": "scheduler"})
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{log}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		spec:       cfg.Spec,
		queue:      queue,
		runner:     runner,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: config.GetDuration(cfg.RetryDelay),
		logger:     log,
		wait:       sleepCtx,
	}
}

// Start registers the cron entry and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(runCtx); err != nil {
			s.logger.Error("scheduled batch failed", map[string]interface{}{"error": err})
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{"spec": s.spec})
	return nil
}

// Stop cancels a running batch and waits for it, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped", nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce takes one batch off the queue and runs it. An empty queue returns
// (nil, nil).
func (s *Scheduler) RunOnce(ctx context.Context) (*pipeline.BatchReport, error) {
	urls, err := s.queue.Pop(ctx, s.batchSize)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		s.logger.Info("no pending urls, nothing to run", nil)
		return nil, nil
	}

	s.logger.Info("starting scheduled batch", map[string]interface{}{"urls": len(urls)})
	report, err := s.runner.Run(ctx, urls)

	for attempt := 1; err != nil && attempt <= s.maxRetries; attempt++ {
		if !apperrors.IsRetryable(err) || report == nil || len(report.Ingested) == 0 {
			break
		}
		s.logger.Warn("batch failed, retrying ingested jobs", map[string]interface{}{
			"attempt": attempt,
			"retries": s.maxRetries,
			"batchId": report.BatchID,
			"state":   string(report.State),
			"jobs":    len(report.Ingested),
			"delayMs": s.retryDelay.Milliseconds(),
			"error":   err,
		})
		if werr := s.wait(ctx, s.retryDelay); werr != nil {
			return report, fmt.Errorf("retry interrupted: %w", werr)
		}

		report, err = s.runner.RunIDs(ctx, report.Ingested)
	}
	if report != nil && report.Succeeded() {
		s.logger.Info("scheduled batch done", map[string]interface{}{
			"batchId": report.BatchID,
			"jobs":    len(report.Ingested),
			"drafted": len(report.Drafted),
		})
	}
	return report, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kvToFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvToFields(keysAndValues)
	fields["error"] = err
	c.l.Error("cron: "+msg, fields)
}

func kvToFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
