// internal/pipeline/report.go
package pipeline

import "time"

// BatchState is the furthest point a batch reached.
type BatchState string

const (
	StateStart              BatchState = "start"
	StateIngested           BatchState = "ingested"
	StateCosineScored       BatchState = "cosine_scored"
	StateReasoningAttempted BatchState = "reasoning_attempted"
	StateCombined           BatchState = "combined"
	StateFiltered           BatchState = "filtered"
	StateGenerated          BatchState = "generated"
	StateNotified           BatchState = "notified"
	StateDone               BatchState = "done"
)

// BatchReport is returned by every orchestrator run, including failed ones.
type BatchReport struct {
	BatchID    string         `json:"batchId"`
	State      BatchState     `json:"state"`
	Stages     []*StageReport `json:"stages"`
	Ingested   []string       `json:"ingested"`
	Drafted    []string       `json:"drafted"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Stage returns the report of the named stage, or nil if it did not run.
func (b *BatchReport) Stage(name string) *StageReport {
	for _, s := range b.Stages {
		if s.Stage == name {
			return s
		}
	}
	return nil
}

// Succeeded reports whether the batch reached done.
func (b *BatchReport) Succeeded() bool {
	return b.State == StateDone
}
