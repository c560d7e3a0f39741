// internal/notify/curator.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	commonhttp "job-snatcher/internal/common/http"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/stages"
)

// CuratorSink posts drafted ids to the curator service's /notify endpoint.
// Any 2xx is an acknowledgement; the body is only read for a failed count.
type CuratorSink struct {
	url  string
	http *commonhttp.Client
}

func NewCuratorSink(baseURL string, timeout time.Duration) *CuratorSink {
	return &CuratorSink{
		url:  strings.TrimRight(baseURL, "/") + "/" + stages.EndpointNotify,
		http: commonhttp.NewClient(timeout),
	}
}

func (s *CuratorSink) Name() string { return "curator" }

func (s *CuratorSink) Notify(ctx context.Context, drafts []*jobs.Record) error {
	resp, err := s.http.PostJSON(ctx, s.url, stages.Request{JobIDs: ids(drafts)}, nil)
	if err != nil {
		return apperrors.NewTransientNetworkError(s.Name(), err)
	}
	if !resp.OK() {
		return apperrors.NewStageServiceError(s.Name(), resp.StatusCode, string(resp.Body))
	}

	var ack stages.Response
	if err := resp.DecodeJSON(&ack); err == nil && ack.Failed > 0 {
		return fmt.Errorf("curator rejected %d of %d drafts", ack.Failed, len(drafts))
	}
	return nil
}
