// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
	"job-snatcher/internal/common/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stages is the fixed set of pipeline stages.
type Stages struct {
	Ingest    Stage
	Cosine    Stage
	Reasoning Stage
	Combine   Stage
	Generate  Stage
	Notify    Stage
}

type step struct {
	stage Stage
	// reached is recorded when the stage completes.
	reached BatchState
	// partial is recorded when the stage fails after returning a report.
	partial BatchState
}

// Orchestrator runs the stages strictly in order, passing survivor ids along.
// It never inspects job content and never retries.
type Orchestrator struct {
	ingest step
	steps  []step
	logger logger.Logger
	obs    *observability.Observability
}

func NewOrchestrator(s Stages, log logger.Logger, obs *observability.Observability) *Orchestrator {
	return &Orchestrator{
		ingest: step{stage: s.Ingest, reached: StateIngested},
		steps: []step{
			{stage: s.Cosine, reached: StateCosineScored},
			{stage: s.Reasoning, reached: StateReasoningAttempted},
			{stage: s.Combine, reached: StateCombined},
			{stage: s.Generate, reached: StateGenerated, partial: StateFiltered},
			{stage: s.Notify, reached: StateNotified},
		},
		logger: log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		obs:    obs,
	}
}

// Run ingests urls and takes the new records through every stage.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (*BatchReport, error) {
	return o.execute(ctx, append([]step{o.ingest}, o.steps...), urls, StateStart)
}

// RunIDs re-runs already ingested ids from the cosine stage onwards.
func (o *Orchestrator) RunIDs(ctx context.Context, ids []string) (*BatchReport, error) {
	return o.execute(ctx, o.steps, ids, StateIngested)
}

func (o *Orchestrator) execute(ctx context.Context, steps []step, input []string, initial BatchState) (*BatchReport, error) {
	report := &BatchReport{
		BatchID:   uuid.NewString(),
		State:     initial,
		Stages:    []*StageReport{},
		Ingested:  []string{},
		Drafted:   []string{},
		StartedAt: time.Now().UTC(),
	}
	if initial == StateIngested {
		report.Ingested = append(report.Ingested, input...)
	}

	log := o.logger.WithFields(map[string]interface{}{"batchId": report.BatchID})
	ctx, span := o.obs.StartSpan(ctx, "pipeline.batch", attribute.String("batch.id", report.BatchID), attribute.Int("batch.size", len(input)))
	defer span.End()

	metrics.PipelineBatchesActive.Inc()
	defer metrics.PipelineBatchesActive.Dec()

	log.Info("batch started", map[string]interface{}{"inputs": len(input), "from": string(initial)})

	ids := input
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return o.fail(log, span, report, st.stage.Name(), err)
		}

		stageReport, err := o.runStage(ctx, log, st.stage, ids)
		if stageReport != nil {
			report.Stages = append(report.Stages, stageReport)
		}
		if err != nil {
			if stageReport != nil && st.partial != "" {
				report.State = st.partial
			}
			return o.fail(log, span, report, st.stage.Name(), err)
		}

		report.State = st.reached
		ids = stageReport.Survivors

		switch st.stage.Name() {
		case StageIngest:
			report.Ingested = append(report.Ingested, ids...)
		case StageGenerate:
			report.Drafted = append(report.Drafted, ids...)
		}
	}

	report.State = StateDone
	report.FinishedAt = time.Now().UTC()
	metrics.PipelineBatches.WithLabelValues("success").Inc()
	span.SetStatus(codes.Ok, "")

	log.Info("batch finished", map[string]interface{}{
		"ingested":   len(report.Ingested),
		"drafted":    len(report.Drafted),
		"durationMs": report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})
	return report, nil
}

func (o *Orchestrator) runStage(ctx context.Context, log logger.Logger, stage Stage, ids []string) (*StageReport, error) {
	name := stage.Name()
	ctx, span := o.obs.StartSpan(ctx, "pipeline.stage."+name, attribute.Int("stage.inputs", len(ids)))
	defer span.End()

	start := time.Now()
	report, err := stage.Run(ctx, ids)
	elapsed := time.Since(start)
	metrics.PipelineTaskDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("stage failed", map[string]interface{}{"stage": name, "inputs": len(ids), "error": err})
		return report, err
	}

	report.Duration = elapsed
	metrics.StageItemsFailed.WithLabelValues(name).Add(float64(report.Failed))
	o.obs.RecordStage(ctx, name, report.Processed+report.Skipped, report.Failed, elapsed)

	fields := map[string]interface{}{
		"stage":     name,
		"inputs":    len(ids),
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"survivors": len(report.Survivors),
	}
	if report.StageSkip != "" {
		fields["stageSkip"] = report.StageSkip
	}
	log.Info("stage completed", fields)
	return report, nil
}

func (o *Orchestrator) fail(log logger.Logger, span trace.Span, report *BatchReport, stage string, err error) (*BatchReport, error) {
	report.Error = err.Error()
	report.FinishedAt = time.Now().UTC()
	metrics.PipelineBatches.WithLabelValues("failure").Inc()
	span.SetStatus(codes.Error, err.Error())

	log.Error("batch aborted", map[string]interface{}{
		"stage":     stage,
		"state":     string(report.State),
		"errorCode": string(apperrors.CodeOf(err)),
		"error":     err,
	})
	return report, fmt.Errorf("stage %s: %w", stage, err)
}
