// internal/pipeline/stage.go
package pipeline

import (
	"context"
	"time"
)

// Stage names, also used as metric and span labels.
const (
	StageIngest    = "ingest"
	StageCosine    = "cosine_match"
	StageReasoning = "reasoning_match"
	StageCombine   = "combine"
	StageGenerate  = "generate"
	StageNotify    = "notify"
)

// Outcome of one item inside a stage.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Skip and failure reasons reported on items.
const (
	ReasonDuplicate         = "duplicate"
	ReasonBelowGate         = "below_reasoning_gate"
	ReasonBelowThreshold    = "below_threshold"
	ReasonNoCosineScore     = "no_cosine_score"
	ReasonRemoteUnavailable = "remote_compute_unavailable"
	ReasonLeaseHeld         = "lease_held"
	ReasonNotAdvanced       = "not_advanced"
)

// ItemResult records what happened to one job in one stage.
type ItemResult struct {
	JobID   string  `json:"jobId,omitempty"`
	URL     string  `json:"url,omitempty"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// StageReport summarises one stage run. Survivors keep input order.
type StageReport struct {
	Stage      string        `json:"stage"`
	Items      []ItemResult  `json:"items"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Survivors  []string      `json:"survivors"`
	StageSkip  string        `json:"stageSkip,omitempty"`
	SinkErrors []string      `json:"sinkErrors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Stage transforms the surviving ids of the previous stage into the next
// surviving set. The ingest stage receives posting URLs instead of ids.
type Stage interface {
	Name() string
	Run(ctx context.Context, ids []string) (*StageReport, error)
}

func newReport(stage string) *StageReport {
	return &StageReport{Stage: stage, Items: []ItemResult{}, Survivors: []string{}}
}

// add appends an item and updates counters. survive marks it as passed on.
func (r *StageReport) add(item ItemResult, survive bool) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeProcessed:
		r.Processed++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	if survive && item.JobID != "" {
		r.Survivors = append(r.Survivors, item.JobID)
	}
}

func processed(id string) ItemResult {
	return ItemResult{JobID: id, Outcome: OutcomeProcessed}
}

func skipped(id, reason string) ItemResult {
	return ItemResult{JobID: id, Outcome: OutcomeSkipped, Reason: reason}
}

func failed(id string, err error) ItemResult {
	return ItemResult{JobID: id, Outcome: OutcomeFailed, Reason: err.Error()}
}
