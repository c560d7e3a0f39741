// internal/llm/claude.go
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	httpclient "job-snatcher/internal/common/http"
)

const anthropicVersion = "2023-06-01"

// Claude talks to the Anthropic messages API.
type Claude struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	model   string
}

func NewClaude(baseURL, apiKey, model string, timeout time.Duration) *Claude {
	return &Claude{
		client:  httpclient.NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Claude) Backend() string { return BackendClaude }

func (c *Claude) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := claudeRequest{
		Model:       c.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages:    []claudeMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	resp, err := c.client.PostJSON(ctx, c.baseURL+"/v1/messages", req, headers)
	if err != nil {
		return "", apperrors.NewTransientNetworkError(BackendClaude, err)
	}
	if !resp.OK() {
		return "", apperrors.NewTextGenerationFailedError(BackendClaude,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)))
	}

	var out claudeResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", apperrors.NewTextGenerationFailedError(BackendClaude, err)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", apperrors.NewTextGenerationFailedError(BackendClaude, ErrEmptyCompletion)
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
