// internal/ingest/fetcher.go
package ingest

import (
	"context"
	"strings"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	commonhttp "job-snatcher/internal/common/http"
	"job-snatcher/internal/common/validation"
	"job-snatcher/internal/jobs"

	"golang.org/x/time/rate"
)

// PostingFetcher supplies the parsed content of a job page.
type PostingFetcher interface {
	Fetch(ctx context.Context, canonicalURL string) (*jobs.Posting, error)
}

var postingSchema = validation.MustCompile(validation.ParsedPostingSchema)

// HTTPFetcher calls the external ingester/parser service.
type HTTPFetcher struct {
	baseURL string
	client  *commonhttp.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher rate limits outgoing fetches to perSecond (burst 1); zero disables the limit.
func NewHTTPFetcher(baseURL string, timeout time.Duration, perSecond float64) *HTTPFetcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  commonhttp.NewClient(timeout),
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, canonicalURL string) (*jobs.Posting, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTransientNetworkError("ingester", err)
	}

	resp, err := f.client.PostJSON(ctx, f.baseURL+"/parse", map[string]string{"job_url": canonicalURL}, nil)
	if err != nil {
		return nil, apperrors.NewTransientNetworkError("ingester", err)
	}
	if !resp.OK() {
		return nil, apperrors.NewStageServiceError("ingest", resp.StatusCode, string(resp.Body))
	}

	result, err := postingSchema.ValidateBytes(resp.Body)
	if err != nil {
		return nil, apperrors.NewStageResponseInvalidError("ingest", err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewStageResponseInvalidError("ingest", result.String())
	}

	var posting jobs.Posting
	if err := resp.DecodeJSON(&posting); err != nil {
		return nil, apperrors.NewStageResponseInvalidError("ingest", err.Error())
	}
	return &posting, nil
}
