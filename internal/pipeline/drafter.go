// internal/pipeline/drafter.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
	"job-snatcher/internal/llm"
)

const (
	minCoverLetterLength = 100
	cvMaxTokens          = 600
)

var (
	ErrNoDescription       = errors.New("NO_DESCRIPTION")
	ErrCoverLetterTooShort = errors.New("COVER_LETTER_TOO_SHORT")
)

// Drafter writes application drafts in-process with a TextGenerator.
type Drafter struct {
	store     Store
	generator llm.TextGenerator
	opts      llm.Options
	logger    logger.Logger
}

func NewDrafter(store Store, generator llm.TextGenerator, opts llm.Options, log logger.Logger) *Drafter {
	return &Drafter{
		store:     store,
		generator: generator,
		opts:      opts,
		logger:    log.WithFields(map[string]interface{}{"component": "drafter", "backend": generator.Backend()}),
	}
}

// Draft generates the cover letter and CV variant of one job and marks it
// drafted. A missing CV variant is not an error.
func (d *Drafter) Draft(ctx context.Context, id string, assets map[string]string) (ItemResult, bool) {
	start := time.Now()

	rec, err := d.store.Get(ctx, id)
	if err != nil {
		return failed(id, err), false
	}
	if !draftable(rec.Status) {
		return skipped(id, ReasonNotAdvanced), false
	}
	if rec.Description == "" {
		return failed(id, ErrNoDescription), false
	}

	cover, err := d.generator.Generate(ctx, coverLetterPrompt(rec, assets), d.opts)
	if err != nil {
		d.logger.Error("cover letter generation failed", map[string]interface{}{"jobId": id, "error": err})
		return failed(id, err), false
	}
	if len(cover) < minCoverLetterLength {
		d.logger.Warn("cover letter too short", map[string]interface{}{"jobId": id, "length": len(cover)})
		return failed(id, fmt.Errorf("%w: %d chars", ErrCoverLetterTooShort, len(cover))), false
	}

	var cv *string
	cvOpts := d.opts
	cvOpts.MaxTokens = cvMaxTokens
	if text, err := d.generator.Generate(ctx, cvVariantPrompt(rec, assets), cvOpts); err != nil {
		d.logger.Warn("cv variant generation failed, saving cover letter only", map[string]interface{}{"jobId": id, "error": err})
	} else {
		cv = &text
	}

	ok, err := d.store.SaveDraft(ctx, id, cover, cv)
	if err != nil {
		return failed(id, err), false
	}
	if !ok {
		return skipped(id, ReasonNotAdvanced), false
	}

	elapsed := time.Since(start)
	metrics.GeneratorLatency.WithLabelValues("local").Observe(elapsed.Seconds())
	d.logger.Info("application drafted", map[string]interface{}{"jobId": id, "elapsedMs": elapsed.Milliseconds()})
	return processed(id), true
}
