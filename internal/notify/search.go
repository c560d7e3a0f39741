// internal/notify/search.go
package notify

import (
	"context"
	"fmt"

	"job-snatcher/internal/jobs"
)

// Indexer stores one document under a fixed id.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

// SearchSink indexes drafted jobs so the curator can search them. Documents
// are keyed by job id, so re-running a batch overwrites instead of duplicating.
type SearchSink struct {
	indexer Indexer
	index   string
}

func NewSearchSink(indexer Indexer, index string) *SearchSink {
	return &SearchSink{indexer: indexer, index: index}
}

func (s *SearchSink) Name() string { return "search" }

func (s *SearchSink) Notify(ctx context.Context, drafts []*jobs.Record) error {
	var failed int
	var lastErr error
	for _, d := range drafts {
		if err := s.indexer.IndexDocument(ctx, s.index, d.ID, d); err != nil {
			failed++
			lastErr = err
		}
	}
	if failed > 0 {
		return fmt.Errorf("indexed %d of %d drafts: %w", len(drafts)-failed, len(drafts), lastErr)
	}
	return nil
}
