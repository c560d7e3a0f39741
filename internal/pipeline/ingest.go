// internal/pipeline/ingest.go
package pipeline

import (
	"context"
	"errors"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/ingest"
	"job-snatcher/internal/jobs"
)

// Admitter creates a discovered record for a new posting URL.
type Admitter interface {
	Admit(ctx context.Context, rawURL string) (*jobs.Record, error)
}

// IngestStage admits posting URLs. Duplicates are skipped and invalid or
// unfetchable URLs fail; neither aborts the batch.
type IngestStage struct {
	admitter Admitter
	runner   *itemRunner
}

func NewIngestStage(admitter Admitter, concurrency int, log logger.Logger) *IngestStage {
	return &IngestStage{
		admitter: admitter,
		runner:   newItemRunner(concurrency, nil, log),
	}
}

func (s *IngestStage) Name() string { return StageIngest }

// Run takes posting URLs; the survivors are the ids of newly created records.
func (s *IngestStage) Run(ctx context.Context, urls []string) (*StageReport, error) {
	report := newReport(StageIngest)
	s.runner.run(ctx, report, urls, func(ctx context.Context, rawURL string) (ItemResult, bool) {
		rec, err := s.admitter.Admit(ctx, rawURL)
		if err == nil {
			return ItemResult{JobID: rec.ID, URL: rec.JobURL, Outcome: OutcomeProcessed}, true
		}

		var dup *ingest.DuplicateError
		if errors.As(err, &dup) {
			return ItemResult{JobID: dup.ExistingID, URL: rawURL, Outcome: OutcomeSkipped, Reason: ReasonDuplicate}, false
		}
		return ItemResult{URL: rawURL, Outcome: OutcomeFailed, Reason: err.Error()}, false
	})
	return report, nil
}
