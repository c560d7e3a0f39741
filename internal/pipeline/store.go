// internal/pipeline/store.go
package pipeline

import (
	"context"

	"job-snatcher/internal/jobs"
)

// Store is the part of the job repository the stages read and write.
type Store interface {
	Get(ctx context.Context, id string) (*jobs.Record, error)
	UpdateCombined(ctx context.Context, id string, combined float64) (bool, error)
	SaveDraft(ctx context.Context, id, coverLetter string, cvVariant *string) (bool, error)
	ActiveAssets(ctx context.Context) (map[string]string, error)
}
