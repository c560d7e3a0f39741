// internal/pipeline/items.go
package pipeline

import (
	"context"
	"fmt"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/lease"

	"golang.org/x/sync/errgroup"
)

// Leaser hands out per-job leases. A nil Leaser disables leasing.
type Leaser interface {
	Acquire(ctx context.Context, jobID string) (*lease.Lease, error)
}

// itemFunc handles one id. survive reports whether the id is passed on.
type itemFunc func(ctx context.Context, id string) (item ItemResult, survive bool)

type itemResult struct {
	item    ItemResult
	survive bool
}

// itemRunner applies an itemFunc to a batch with bounded parallelism. Every
// item is isolated: errors and panics only fail that item.
type itemRunner struct {
	concurrency int
	leaser      Leaser
	logger      logger.Logger
}

func newItemRunner(concurrency int, leaser Leaser, log logger.Logger) *itemRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &itemRunner{concurrency: concurrency, leaser: leaser, logger: log}
}

// run fills report in input order.
func (r *itemRunner) run(ctx context.Context, report *StageReport, ids []string, fn itemFunc) {
	results := make([]itemResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = r.one(gctx, report.Stage, id, fn)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		report.add(res.item, res.survive)
	}
}

func (r *itemRunner) one(ctx context.Context, stage, id string, fn itemFunc) (res itemResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("item panicked", map[string]interface{}{"stage": stage, "jobId": id, "panic": fmt.Sprint(p)})
			res = itemResult{item: failedInput(stage, id, apperrors.NewPartialItemFailure(id, fmt.Errorf("panic: %v", p)))}
		}
	}()

	if ctx.Err() != nil {
		return itemResult{item: failedInput(stage, id, ctx.Err())}
	}

	if r.leaser != nil {
		l, err := r.leaser.Acquire(ctx, id)
		if err != nil {
			return itemResult{item: leaseFailure(id, err)}
		}
		defer func() {
			if err := l.Release(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("failed to release lease", map[string]interface{}{"jobId": id, "error": err})
			}
		}()
	}

	item, survive := fn(ctx, id)
	return itemResult{item: item, survive: survive}
}

// leaseAll acquires leases for a whole remote batch call. Ids that cannot be
// leased come back as failed items; release frees the rest.
func (r *itemRunner) leaseAll(ctx context.Context, ids []string) (leased []string, refused []ItemResult, release func()) {
	if r.leaser == nil {
		return ids, nil, func() {}
	}

	held := make([]*lease.Lease, 0, len(ids))
	for _, id := range ids {
		l, err := r.leaser.Acquire(ctx, id)
		if err != nil {
			refused = append(refused, leaseFailure(id, err))
			continue
		}
		held = append(held, l)
		leased = append(leased, id)
	}

	return leased, refused, func() {
		for _, l := range held {
			if err := l.Release(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("failed to release lease", map[string]interface{}{"error": err})
			}
		}
	}
}

// failedInput fails an input that may be a URL rather than a job id.
func failedInput(stage, input string, err error) ItemResult {
	if stage == StageIngest {
		return ItemResult{URL: input, Outcome: OutcomeFailed, Reason: err.Error()}
	}
	return failed(input, err)
}

func leaseFailure(id string, err error) ItemResult {
	if apperrors.HasCode(err, apperrors.ErrCodeLeaseHeld) {
		return ItemResult{JobID: id, Outcome: OutcomeFailed, Reason: ReasonLeaseHeld}
	}
	return failed(id, err)
}
