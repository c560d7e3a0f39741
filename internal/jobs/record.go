// internal/jobs/record.go
package jobs

import "time"

// Record is one job posting under consideration.
type Record struct {
	ID                    string     `json:"id"`
	JobURL                string     `json:"job_url"`
	Title                 string     `json:"job_title"`
	Company               string     `json:"company_name"`
	Description           string     `json:"job_description,omitempty"`
	Source                string     `json:"source,omitempty"`
	CosineScore           *float64   `json:"cosine_match_score,omitempty"`
	ReasoningScore        *float64   `json:"reasoning_match_score,omitempty"`
	CombinedScore         *float64   `json:"combined_match_score,omitempty"`
	ReasoningExplanation  string     `json:"reasoning_explanation,omitempty"`
	CoverLetterDraft      string     `json:"cover_letter_draft,omitempty"`
	CVVariant             string     `json:"cv_variant_generated,omitempty"`
	Status                Status     `json:"status"`
	DateFound             time.Time  `json:"date_found"`
	DateApplied           *time.Time `json:"date_applied,omitempty"`
	DateRejectionReceived *time.Time `json:"date_rejection_received,omitempty"`
	DateOfferReceived     *time.Time `json:"date_offer_received,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Posting is the parsed content of a job page, supplied at ingestion.
type Posting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// HasCosine reports whether the cosine stage scored this record.
func (r *Record) HasCosine() bool {
	return r.CosineScore != nil
}

// Asset types read by the local drafter.
const (
	AssetNarrative         = "narrative"
	AssetEmploymentHistory = "employment_history"
	AssetProjectsSummary   = "projects_summary"
	AssetTechStack         = "tech_stack"
	AssetWritingStyle      = "writing_style"
	AssetContactInfo       = "contact_info"
)
