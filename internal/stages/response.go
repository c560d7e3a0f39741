// internal/stages/response.go
package stages

// Result statuses reported by stage services.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusDrafted   = "drafted"
)

// Request is the body sent to every batch endpoint.
type Request struct {
	JobIDs []string `json:"job_ids"`
}

// Result is one per-job entry of a stage response. Scores are informational;
// the services persist them themselves.
type Result struct {
	JobID                string   `json:"job_id"`
	Status               string   `json:"status,omitempty"`
	Error                string   `json:"error,omitempty"`
	CosineMatchScore     *float64 `json:"cosine_match_score,omitempty"`
	ReasoningMatchScore  *float64 `json:"reasoning_match_score,omitempty"`
	ReasoningExplanation string   `json:"reasoning_explanation,omitempty"`
}

// Response is the decoded body of a successful stage call.
type Response struct {
	Results   []Result `json:"results"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
}

// Outcome classifies one requested id against a response.
type Outcome struct {
	JobID   string
	Status  string
	Reason  string
	Missing bool
}

// Outcomes returns one entry per requested id, in request order. Ids absent
// from the response are reported failed with Missing set.
func (r *Response) Outcomes(requested []string) []Outcome {
	byID := make(map[string]Result, len(r.Results))
	for _, res := range r.Results {
		byID[res.JobID] = res
	}

	out := make([]Outcome, 0, len(requested))
	for _, id := range requested {
		res, ok := byID[id]
		if !ok {
			out = append(out, Outcome{JobID: id, Status: StatusFailed, Reason: "missing_from_response", Missing: true})
			continue
		}
		status := res.Status
		if status == "" {
			status = StatusProcessed
		}
		out = append(out, Outcome{JobID: id, Status: status, Reason: res.Error})
	}
	return out
}
