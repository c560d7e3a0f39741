// internal/workers/pipeline/run-batch/models.go
package runbatch

// Input carries either new posting URLs or already ingested job ids.
type Input struct {
	JobURLs []string `json:"jobUrls,omitempty"`
	JobIDs  []string `json:"jobIds,omitempty"`
}

// Output is written back as process variables.
type Output struct {
	BatchID    string   `json:"batchId"`
	BatchState string   `json:"batchState"`
	Ingested   []string `json:"ingestedJobIds"`
	Drafted    []string `json:"draftedJobIds"`
	Failed     int      `json:"failedItems"`
}
