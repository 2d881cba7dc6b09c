package embedding

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleModel is a client for the Google GenAI embedding API.
type GoogleModel struct {
	model   *genai.EmbeddingModel
	version string
}

// NewGoogleModel creates a GoogleModel client for the named embedding model.
func NewGoogleModel(apiKey, modelName, version string) (*GoogleModel, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = "gemini/" + modelName
	}
	return &GoogleModel{
		model:   client.EmbeddingModel(modelName),
		version: version,
	}, nil
}

// Embed generates the embedding vector for a single text.
func (m *GoogleModel) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := m.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

// EmbedBatch generates embedding vectors for a batch of texts in one call.
func (m *GoogleModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	return embeddings, nil
}

// Version identifies the backing model for the index's mixed-version check.
func (m *GoogleModel) Version() string { return m.version }

var _ Embedder = (*GoogleModel)(nil)
