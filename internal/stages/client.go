// internal/stages/client.go
package stages

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	commonhttp "job-snatcher/internal/common/http"
	"job-snatcher/internal/common/validation"
)

// Batch endpoints exposed by the stage services.
const (
	EndpointMatch    = "match"
	EndpointReason   = "reason"
	EndpointGenerate = "generate"
	EndpointNotify   = "notify"
)

var responseSchema = validation.MustCompile(validation.StageResponseSchema)

// Caller is what the pipeline stages depend on.
type Caller interface {
	Call(ctx context.Context, endpoint string, jobIDs []string) (*Response, error)
}

// Client posts id batches to one stage service.
type Client struct {
	name    string
	baseURL string
	http    *commonhttp.Client
}

func NewClient(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    commonhttp.NewClient(timeout),
	}
}

func (c *Client) Name() string { return c.name }

// Call sends {"job_ids": [...]} to {base}/{endpoint}.
//
// Status mapping: 409 DUPLICATE_JOB, 503 REMOTE_COMPUTE_UNAVAILABLE, other
// non-2xx STAGE_SERVICE_ERROR, transport failure TRANSIENT_NETWORK_ERROR and
// a body that breaks the contract STAGE_RESPONSE_INVALID.
func (c *Client) Call(ctx context.Context, endpoint string, jobIDs []string) (*Response, error) {
	if jobIDs == nil {
		jobIDs = []string{}
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/"+endpoint, Request{JobIDs: jobIDs}, nil)
	if err != nil {
		return nil, apperrors.NewTransientNetworkError(c.name, err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, apperrors.NewDuplicateJobError(strings.Join(jobIDs, ","))
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, apperrors.NewRemoteComputeUnavailableError(c.name + ": " + string(resp.Body))
	case !resp.OK():
		return nil, apperrors.NewStageServiceError(c.name, resp.StatusCode, string(resp.Body))
	}

	result, err := responseSchema.ValidateBytes(resp.Body)
	if err != nil {
		return nil, apperrors.NewStageResponseInvalidError(c.name, err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewStageResponseInvalidError(c.name, result.String())
	}

	var out Response
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, apperrors.NewStageResponseInvalidError(c.name, err.Error())
	}
	return &out, nil
}
