// internal/pipeline/reasoning.go
package pipeline

import (
	"context"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
	"job-snatcher/internal/scoring"
	"job-snatcher/internal/stages"
	"job-snatcher/internal/wol"
)

// Availability brings the remote compute node online.
type Availability interface {
	EnsureOnline(ctx context.Context, t wol.Target) bool
}

// ReasoningStage runs LLM reasoning on ids that cleared the cosine gate.
// When the remote node cannot be reached the whole stage is skipped and every
// id passes through; the combiner then falls back to cosine alone. The node is
// only woken when at least one id clears the gate.
type ReasoningStage struct {
	caller       stages.Caller
	store        Store
	availability Availability
	target       wol.Target
	gates        scoring.Gates
	runner       *itemRunner
	logger       logger.Logger
}

func NewReasoningStage(caller stages.Caller, store Store, availability Availability, target wol.Target, gates scoring.Gates, leaser Leaser, log logger.Logger) *ReasoningStage {
	log = log.WithFields(map[string]interface{}{"stage": StageReasoning})
	return &ReasoningStage{
		caller:       caller,
		store:        store,
		availability: availability,
		target:       target,
		gates:        gates,
		runner:       newItemRunner(1, leaser, log),
		logger:       log,
	}
}

func (s *ReasoningStage) Name() string { return StageReasoning }

func (s *ReasoningStage) Run(ctx context.Context, ids []string) (*StageReport, error) {
	report := newReport(StageReasoning)
	if len(ids) == 0 {
		return report, nil
	}

	gated := make(map[string]itemResult, len(ids))
	var eligible []string
	for _, id := range ids {
		rec, err := s.store.Get(ctx, id)
		switch {
		case err != nil:
			gated[id] = itemResult{item: failed(id, err)}
		case !rec.HasCosine():
			gated[id] = itemResult{item: skipped(id, ReasonNoCosineScore), survive: true}
		case !s.gates.ReasoningEligible(*rec.CosineScore):
			gated[id] = itemResult{item: skipped(id, ReasonBelowGate), survive: true}
		default:
			eligible = append(eligible, id)
		}
	}

	if len(eligible) > 0 {
		if !s.availability.EnsureOnline(ctx, s.target) {
			s.logger.Warn("remote compute unreachable, skipping reasoning for this batch", map[string]interface{}{"jobs": len(ids)})
			return passThrough(report, ids), nil
		}

		sub := newReport(StageReasoning)
		start := time.Now()
		err := s.runner.callRemote(ctx, sub, s.caller, stages.EndpointReason, eligible, classifyReasoning)
		metrics.MatcherLatency.WithLabelValues(StageReasoning).Observe(time.Since(start).Seconds())

		if apperrors.HasCode(err, apperrors.ErrCodeRemoteComputeUnavailable) {
			s.logger.Warn("reasoning service reports remote compute unavailable, skipping stage", map[string]interface{}{"error": err})
			return passThrough(report, ids), nil
		}
		if err != nil {
			return nil, err
		}

		for _, item := range sub.Items {
			gated[item.JobID] = itemResult{item: item, survive: item.Outcome != OutcomeFailed}
		}
	}

	for _, id := range ids {
		res := gated[id]
		report.add(res.item, res.survive)
	}
	return report, nil
}

// classifyReasoning keeps ids the service skipped; only failures are dropped.
func classifyReasoning(status string) (Outcome, bool) {
	switch status {
	case stages.StatusProcessed:
		return OutcomeProcessed, true
	case stages.StatusSkipped:
		return OutcomeSkipped, true
	default:
		return OutcomeFailed, false
	}
}

func passThrough(report *StageReport, ids []string) *StageReport {
	report.StageSkip = ReasonRemoteUnavailable
	for _, id := range ids {
		report.add(skipped(id, ReasonRemoteUnavailable), true)
	}
	return report
}
