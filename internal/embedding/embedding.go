package embedding

import (
	"context"
	"fmt"

	"doclens/internal/config"
)

// Embedder turns text into fixed-length vectors. Embed must be deterministic
// for identical input under a fixed Version; mixing vectors from different
// versions in one index is an error, so Version changes with the model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// NewEmbedder is a factory that builds the configured embedding backend.
func NewEmbedder(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGoogleModel(cfg.APIKey, cfg.Model, cfg.Version)
	case "local":
		return NewLocalModel(cfg.Dim, cfg.Version), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
