// internal/llm/select.go
package llm

import (
	"fmt"

	"job-snatcher/internal/common/config"
	"job-snatcher/internal/common/logger"
)

const placeholderKey = "your-key-here"

// Select builds the configured backend once at startup. A claude backend
// without a usable API key falls back to the local Ollama instance.
func Select(cfg config.LLMConfig, log logger.Logger) (TextGenerator, error) {
	timeout := config.GetDuration(cfg.Timeout)

	switch cfg.Backend {
	case BackendClaude, "":
		if keyIsSet(cfg.ClaudeAPIKey) {
			log.Info("LLM backend selected", map[string]interface{}{
				"backend": BackendClaude,
				"model":   cfg.ClaudeModel,
			})
			return NewClaude(cfg.ClaudeBaseURL, cfg.ClaudeAPIKey, cfg.ClaudeModel, timeout), nil
		}
		log.Warn("claude backend has no API key, falling back to local ollama", map[string]interface{}{
			"backend": BackendOllamaLocal,
			"url":     cfg.LocalOllamaURL,
			"model":   cfg.LocalOllamaModel,
		})
		return NewOllama(BackendOllamaLocal, cfg.LocalOllamaURL, cfg.LocalOllamaModel, timeout), nil

	case BackendOllamaGaming:
		if cfg.OllamaBaseURL == "" {
			return nil, fmt.Errorf("llm.ollama_base_url is required for backend %s", BackendOllamaGaming)
		}
		log.Info("LLM backend selected", map[string]interface{}{
			"backend": BackendOllamaGaming,
			"url":     cfg.OllamaBaseURL,
			"model":   cfg.OllamaModel,
		})
		return NewOllama(BackendOllamaGaming, cfg.OllamaBaseURL, cfg.OllamaModel, timeout), nil

	case BackendOllamaLocal:
		log.Info("LLM backend selected", map[string]interface{}{
			"backend": BackendOllamaLocal,
			"url":     cfg.LocalOllamaURL,
			"model":   cfg.LocalOllamaModel,
		})
		return NewOllama(BackendOllamaLocal, cfg.LocalOllamaURL, cfg.LocalOllamaModel, timeout), nil

	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

func keyIsSet(key string) bool {
	return key != "" && key != placeholderKey
}
