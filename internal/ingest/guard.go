// internal/ingest/guard.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
	"job-snatcher/internal/jobs"
)

// DuplicateError means the URL was ingested before. It is an
// already-ingested signal, not a transient fault.
type DuplicateError struct {
	ExistingID  string
	FirstSeenAt time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("job already ingested as %s (first seen %s)", e.ExistingID, e.FirstSeenAt.Format(time.RFC3339))
}

func (e *DuplicateError) Unwrap() error {
	return apperrors.NewDuplicateJobError(e.ExistingID)
}

// Store is the part of the job repository the guard uses.
type Store interface {
	FindByURL(ctx context.Context, canonicalURL string) (*jobs.Record, error)
	InsertIfAbsent(ctx context.Context, canonicalURL string, posting jobs.Posting) (*jobs.Record, *jobs.Existing, error)
}

// Guard admits each distinct posting URL exactly once.
type Guard struct {
	store   Store
	fetcher PostingFetcher
	logger  logger.Logger
}

// NewGuard builds a guard; fetcher may be nil, in which case records are created
// without parsed content.
func NewGuard(store Store, fetcher PostingFetcher, log logger.Logger) *Guard {
	return &Guard{
		store:   store,
		fetcher: fetcher,
		logger:  log.WithFields(map[string]interface{}{"component": "ingestion_guard"}),
	}
}

// Admit validates rawURL, rejects it if already stored, and otherwise creates a
// discovered record. Validation failures happen before any side effect.
func (g *Guard) Admit(ctx context.Context, rawURL string) (*jobs.Record, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		metrics.IngestPostsProcessed.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}
	source := DetectSource(canonical)

	existing, err := g.store.FindByURL(ctx, canonical)
	switch {
	case err == nil:
		metrics.IngestPostsProcessed.WithLabelValues(source, "duplicate").Inc()
		return nil, &DuplicateError{ExistingID: existing.ID, FirstSeenAt: existing.DateFound}
	case !errors.Is(err, jobs.ErrNotFound):
		metrics.IngestPostsProcessed.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	posting := jobs.Posting{Source: source}
	if g.fetcher != nil {
		fetched, err := g.fetcher.Fetch(ctx, canonical)
		if err != nil {
			metrics.IngestPostsProcessed.WithLabelValues(source, "fetch_failed").Inc()
			g.logger.Warn("posting fetch failed", map[string]interface{}{"url": canonical, "error": err})
			return nil, err
		}
		posting = *fetched
		if posting.Source == "" {
			posting.Source = source
		}
	}

	rec, winner, err := g.store.InsertIfAbsent(ctx, canonical, posting)
	if err != nil {
		metrics.IngestPostsProcessed.WithLabelValues(source, "error").Inc()
		return nil, err
	}
	if winner != nil {
		metrics.IngestPostsProcessed.WithLabelValues(source, "duplicate").Inc()
		g.logger.Info("lost insert race, treating as duplicate", map[string]interface{}{"url": canonical, "existingId": winner.ID})
		return nil, &DuplicateError{ExistingID: winner.ID, FirstSeenAt: winner.DateFound}
	}

	metrics.IngestPostsProcessed.WithLabelValues(posting.Source, "ingested").Inc()
	g.logger.Info("job ingested", map[string]interface{}{
		"jobId":   rec.ID,
		"url":     canonical,
		"title":   rec.Title,
		"company": rec.Company,
	})
	return rec, nil
}
