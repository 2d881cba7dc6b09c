package llm

import (
	"context"
	"fmt"

	"doclens/internal/config"
)

// LLM is the narrow contract the orchestrator depends on: prompt in, text
// out. Any concrete provider is swappable behind it.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient is a factory that builds the configured LLM backend.
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(context.Background(), cfg.Model, cfg.APIKey)
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
