// internal/pipeline/cosine.go
package pipeline

import (
	"context"
	"time"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
	"job-snatcher/internal/stages"
)

// CosineStage asks the cosine matcher service to score every id.
type CosineStage struct {
	caller stages.Caller
	runner *itemRunner
}

func NewCosineStage(caller stages.Caller, leaser Leaser, log logger.Logger) *CosineStage {
	return &CosineStage{caller: caller, runner: newItemRunner(1, leaser, log)}
}

func (s *CosineStage) Name() string { return StageCosine }

func (s *CosineStage) Run(ctx context.Context, ids []string) (*StageReport, error) {
	report := newReport(StageCosine)
	if len(ids) == 0 {
		return report, nil
	}

	start := time.Now()
	err := s.runner.callRemote(ctx, report, s.caller, stages.EndpointMatch, ids, classifyProcessed)
	metrics.MatcherLatency.WithLabelValues(StageCosine).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return report, nil
}
