// internal/pipeline/combine.go
package pipeline

import (
	"context"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/scoring"
)

// CombineStage writes combined_match_score for every id that has a cosine
// score and advances it to matched. Ids without one are skipped.
type CombineStage struct {
	store  Store
	runner *itemRunner
	logger logger.Logger
}

func NewCombineStage(store Store, concurrency int, leaser Leaser, log logger.Logger) *CombineStage {
	log = log.WithFields(map[string]interface{}{"stage": StageCombine})
	return &CombineStage{
		store:  store,
		runner: newItemRunner(concurrency, leaser, log),
		logger: log,
	}
}

func (s *CombineStage) Name() string { return StageCombine }

func (s *CombineStage) Run(ctx context.Context, ids []string) (*StageReport, error) {
	report := newReport(StageCombine)
	s.runner.run(ctx, report, ids, s.combineOne)
	return report, nil
}

func (s *CombineStage) combineOne(ctx context.Context, id string) (ItemResult, bool) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return failed(id, err), false
	}
	if !rec.HasCosine() {
		return skipped(id, ReasonNoCosineScore), false
	}

	combined := scoring.Combine(*rec.CosineScore, rec.ReasoningScore)
	ok, err := s.store.UpdateCombined(ctx, id, combined)
	if err != nil {
		return failed(id, err), false
	}
	if !ok {
		return skipped(id, ReasonNoCosineScore), false
	}

	status := rec.Status
	if status.PipelineAdvance(jobs.StatusMatched) == nil {
		status = jobs.StatusMatched
	}
	s.logger.Debug("combined score written", map[string]interface{}{
		"jobId":     id,
		"status":    status,
		"cosine":    *rec.CosineScore,
		"reasoning": rec.ReasoningScore,
		"combined":  combined,
	})
	return processed(id), true
}
