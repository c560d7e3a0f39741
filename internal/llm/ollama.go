// internal/llm/ollama.go
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "job-snatcher/internal/common/errors"
	httpclient "job-snatcher/internal/common/http"
)

// Ollama calls a non-streaming /api/generate endpoint. The same type serves
// the gaming PC and the local instance; only the backend label differs.
type Ollama struct {
	client  *httpclient.Client
	backend string
	baseURL string
	model   string
}

func NewOllama(backend, baseURL, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		client:  httpclient.NewClient(timeout),
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (o *Ollama) Backend() string { return o.backend }

func (o *Ollama) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := ollamaRequest{
		Model:  o.model,
		Prompt: prompt,
		Options: ollamaOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}

	resp, err := o.client.PostJSON(ctx, o.baseURL+"/api/generate", req, nil)
	if err != nil {
		return "", apperrors.NewTransientNetworkError(o.backend, err)
	}
	if !resp.OK() {
		return "", apperrors.NewTextGenerationFailedError(o.backend,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)))
	}

	var out ollamaResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", apperrors.NewTextGenerationFailedError(o.backend, err)
	}
	if out.Response == "" {
		return "", apperrors.NewTextGenerationFailedError(o.backend, ErrEmptyCompletion)
	}
	return out.Response, nil
}
