// internal/pipeline/prompts.go
package pipeline

import (
	"encoding/json"
	"fmt"

	"job-snatcher/internal/jobs"
)

const defaultContactName = "the candidate"

// contactName reads "name" from the contact_info asset.
func contactName(contactInfo string) string {
	var c struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(contactInfo), &c); err != nil || c.Name == "" {
		return defaultContactName
	}
	return c.Name
}

func coverLetterPrompt(rec *jobs.Record, assets map[string]string) string {
	name := contactName(assets[jobs.AssetContactInfo])
	return fmt.Sprintf(`Write a cover letter in the candidate's own voice.

Candidate: %s
Role: %s
Company: %s

Job description:
%s

Candidate profile:
%s

Employment history:
%s

Projects:
%s

Why this is a fit:
%s

Writing style:
%s

Write three paragraphs: why this role, one concrete example from the history
that matches the description, and a short close signed as %s. Name the company
and the role. Stay between 250 and 300 words. Output only the letter.`,
		name, rec.Title, rec.Company, rec.Description,
		assets[jobs.AssetNarrative], assets[jobs.AssetEmploymentHistory], assets[jobs.AssetProjectsSummary],
		rec.ReasoningExplanation, assets[jobs.AssetWritingStyle], name)
}

func cvVariantPrompt(rec *jobs.Record, assets map[string]string) string {
	return fmt.Sprintf(`Tailor a CV summary for this application.

Job: %s
%s

Candidate: %s

Employment history:
%s

Projects:
%s

Tech stack:
%s

Put the most relevant experience first and keep every fact accurate. Output
Markdown with the sections "Most Relevant Experience", "Most Relevant Projects"
and "Matching Skills".`,
		rec.Title, rec.Description, contactName(assets[jobs.AssetContactInfo]),
		assets[jobs.AssetEmploymentHistory], assets[jobs.AssetProjectsSummary], assets[jobs.AssetTechStack])
}
