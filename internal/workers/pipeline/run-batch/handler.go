// internal/workers/pipeline/run-batch/handler.go
package runbatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "job-snatcher.run-batch"
)

var (
	ErrEmptyBatch     = errors.New("EMPTY_BATCH")
	ErrAmbiguousBatch = errors.New("AMBIGUOUS_BATCH")
)

// Runner starts pipeline batches.
type Runner interface {
	Run(ctx context.Context, urls []string) (*pipeline.BatchReport, error)
	RunIDs(ctx context.Context, ids []string) (*pipeline.BatchReport, error)
}

type Handler struct {
	config       *Config
	runner       Runner
	errorHandler *apperrors.JobErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, runner Runner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		runner:       runner,
		errorHandler: apperrors.NewJobErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	switch {
	case len(input.JobURLs) == 0 && len(input.JobIDs) == 0:
		return nil, apperrors.NewInvalidInputError(ErrEmptyBatch.Error())
	case len(input.JobURLs) > 0 && len(input.JobIDs) > 0:
		return nil, apperrors.NewInvalidInputError(ErrAmbiguousBatch.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		report *pipeline.BatchReport
		err    error
	)
	if len(input.JobIDs) > 0 {
		report, err = h.runner.RunIDs(ctx, input.JobIDs)
	} else {
		report, err = h.runner.Run(ctx, input.JobURLs)
	}
	if err != nil {
		return nil, err
	}
	return toOutput(report), nil
}

func toOutput(report *pipeline.BatchReport) *Output {
	out := &Output{
		BatchID:    report.BatchID,
		BatchState: string(report.State),
		Ingested:   report.Ingested,
		Drafted:    report.Drafted,
	}
	for _, s := range report.Stages {
		out.Failed += s.Failed
	}
	return out
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.Key,
		"batchId": output.BatchID,
		"drafted": len(output.Drafted),
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
