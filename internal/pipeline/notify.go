// internal/pipeline/notify.go
package pipeline

import (
	"context"
	"fmt"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/notify"
)

// NotifyStage hands drafted jobs to every configured sink. It never fails
// the batch: sink errors are logged and listed on the report.
type NotifyStage struct {
	store  Store
	sinks  []notify.Sink
	logger logger.Logger
}

func NewNotifyStage(store Store, sinks []notify.Sink, log logger.Logger) *NotifyStage {
	return &NotifyStage{
		store:  store,
		sinks:  sinks,
		logger: log.WithFields(map[string]interface{}{"stage": StageNotify}),
	}
}

func (s *NotifyStage) Name() string { return StageNotify }

func (s *NotifyStage) Run(ctx context.Context, ids []string) (*StageReport, error) {
	report := newReport(StageNotify)
	if len(ids) == 0 {
		return report, nil
	}

	drafts := make([]*jobs.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			s.logger.Warn("cannot load drafted job for notification", map[string]interface{}{"jobId": id, "error": err})
			report.add(failed(id, err), false)
			continue
		}
		drafts = append(drafts, rec)
		report.add(processed(id), true)
	}
	if len(drafts) == 0 {
		return report, nil
	}

	for _, sink := range s.sinks {
		if err := sink.Notify(ctx, drafts); err != nil {
			s.logger.Warn("notification sink failed", map[string]interface{}{"sink": sink.Name(), "error": err})
			report.SinkErrors = append(report.SinkErrors, fmt.Sprintf("%s: %v", sink.Name(), err))
			continue
		}
		s.logger.Info("notification sent", map[string]interface{}{"sink": sink.Name(), "drafts": len(drafts)})
	}
	return report, nil
}
