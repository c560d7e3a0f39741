// internal/notify/sink.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"job-snatcher/internal/jobs"
)

// Sink announces freshly drafted jobs somewhere. Sinks are best effort: a
// failing sink never affects the batch.
type Sink interface {
	Name() string
	Notify(ctx context.Context, drafts []*jobs.Record) error
}

func ids(drafts []*jobs.Record) []string {
	out := make([]string, len(drafts))
	for i, d := range drafts {
		out[i] = d.ID
	}
	return out
}

// Subject is the one-line summary used by the e-mail and SNS sinks.
func Subject(drafts []*jobs.Record) string {
	if len(drafts) == 1 {
		return "1 new application draft ready for review"
	}
	return fmt.Sprintf("%d new application drafts ready for review", len(drafts))
}

// Digest renders a plain text list of drafted jobs.
func Digest(drafts []*jobs.Record) string {
	var sb strings.Builder
	sb.WriteString(Subject(drafts))
	sb.WriteString("\n\n")
	for _, d := range drafts {
		fmt.Fprintf(&sb, "- %s at %s", d.Title, d.Company)
		if d.CombinedScore != nil {
			fmt.Fprintf(&sb, " (match %.2f)", *d.CombinedScore)
		}
		fmt.Fprintf(&sb, "\n  %s\n", d.JobURL)
	}
	return sb.String()
}
