// internal/llm/generator.go
package llm

import (
	"context"
	"errors"
)

const (
	BackendClaude       = "claude"
	BackendOllamaGaming = "ollama_gaming"
	BackendOllamaLocal  = "ollama_local"
)

var ErrEmptyCompletion = errors.New("EMPTY_COMPLETION")

// Options tune a single completion.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Backend() string
}
