package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doclens/internal/config"
)

func TestLocalModelDeterministic(t *testing.T) {
	m := NewLocalModel(128, "")
	ctx := context.Background()

	a, err := m.Embed(ctx, "identical text maps to the identical vector")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "identical text maps to the identical vector")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := m.Embed(ctx, "completely different words entirely")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLocalModelNormalized(t *testing.T) {
	m := NewLocalModel(64, "")
	vec, err := m.Embed(context.Background(), "some words to hash into buckets")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestLocalModelEmbedBatch(t *testing.T) {
	m := NewLocalModel(64, "")
	ctx := context.Background()

	vecs, err := m.EmbedBatch(ctx, []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := m.Embed(ctx, "first text")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])
}

func TestLocalModelVersion(t *testing.T) {
	assert.Equal(t, "local/hash-v1", NewLocalModel(0, "").Version())
	assert.Equal(t, "custom-v2", NewLocalModel(64, "custom-v2").Version())
}

func TestNewEmbedderFactory(t *testing.T) {
	m, err := NewEmbedder(config.EmbeddingConfig{Provider: "local", Dim: 32})
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = NewEmbedder(config.EmbeddingConfig{Provider: "nope"})
	assert.Error(t, err)
}
