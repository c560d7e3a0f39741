// internal/pipeline/generate.go
package pipeline

import (
	"context"
	"time"

	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/metrics"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/scoring"
	"job-snatcher/internal/stages"
)

// Generation modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// GenerateStage drafts applications for ids whose combined score reaches the
// threshold, either through the generator service or the local Drafter.
type GenerateStage struct {
	store   Store
	gates   scoring.Gates
	caller  stages.Caller
	drafter *Drafter
	runner  *itemRunner
	logger  logger.Logger
}

func newGenerateStage(store Store, gates scoring.Gates, concurrency int, leaser Leaser, log logger.Logger) *GenerateStage {
	log = log.WithFields(map[string]interface{}{"stage": StageGenerate})
	return &GenerateStage{
		store:  store,
		gates:  gates,
		runner: newItemRunner(concurrency, leaser, log),
		logger: log,
	}
}

// NewRemoteGenerateStage posts eligible ids to the generator service.
func NewRemoteGenerateStage(store Store, gates scoring.Gates, caller stages.Caller, leaser Leaser, log logger.Logger) *GenerateStage {
	s := newGenerateStage(store, gates, 1, leaser, log)
	s.caller = caller
	return s
}

// NewLocalGenerateStage drafts eligible ids in-process.
func NewLocalGenerateStage(store Store, gates scoring.Gates, drafter *Drafter, concurrency int, leaser Leaser, log logger.Logger) *GenerateStage {
	s := newGenerateStage(store, gates, concurrency, leaser, log)
	s.drafter = drafter
	return s
}

func (s *GenerateStage) Name() string { return StageGenerate }

func (s *GenerateStage) Mode() string {
	if s.drafter != nil {
		return ModeLocal
	}
	return ModeRemote
}

// Run filters by threshold first. If drafting then fails structurally the
// returned report holds the filter results alongside the error.
func (s *GenerateStage) Run(ctx context.Context, ids []string) (*StageReport, error) {
	report := newReport(StageGenerate)
	if len(ids) == 0 {
		return report, nil
	}

	filtered := make(map[string]itemResult, len(ids))
	var eligible []string
	for _, id := range ids {
		rec, err := s.store.Get(ctx, id)
		switch {
		case err != nil:
			filtered[id] = itemResult{item: failed(id, err)}
		case rec.CombinedScore == nil || !s.gates.GenerationEligible(*rec.CombinedScore):
			filtered[id] = itemResult{item: skipped(id, ReasonBelowThreshold)}
		case !draftable(rec.Status):
			filtered[id] = itemResult{item: skipped(id, ReasonNotAdvanced)}
		default:
			eligible = append(eligible, id)
		}
	}

	if len(eligible) > 0 {
		sub := newReport(StageGenerate)
		start := time.Now()
		err := s.draft(ctx, sub, eligible)
		if err != nil {
			for _, id := range ids {
				if res, ok := filtered[id]; ok {
					report.add(res.item, false)
				}
			}
			return report, err
		}
		if s.drafter == nil {
			metrics.GeneratorLatency.WithLabelValues(ModeRemote).Observe(time.Since(start).Seconds())
		}
		for _, item := range sub.Items {
			filtered[item.JobID] = itemResult{item: item, survive: item.Outcome == OutcomeProcessed}
		}
	}

	for _, id := range ids {
		res := filtered[id]
		report.add(res.item, res.survive)
	}
	return report, nil
}

// draftable reports whether the pipeline may write a draft for a record in
// status st. Redrafting a drafted record is allowed.
func draftable(st jobs.Status) bool {
	return st == jobs.StatusDrafted || st.PipelineAdvance(jobs.StatusDrafted) == nil
}

func (s *GenerateStage) draft(ctx context.Context, sub *StageReport, ids []string) error {
	if s.drafter == nil {
		return s.runner.callRemote(ctx, sub, s.caller, stages.EndpointGenerate, ids, classifyDrafted)
	}

	assets, err := s.store.ActiveAssets(ctx)
	if err != nil {
		return err
	}
	s.runner.run(ctx, sub, ids, func(ctx context.Context, id string) (ItemResult, bool) {
		return s.drafter.Draft(ctx, id, assets)
	})
	return nil
}
