package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var localTokenPattern = regexp.MustCompile(`[a-z][a-z0-9]+`)

// LocalModel is a deterministic, dependency-free embedder: term frequencies
// hashed into a fixed number of buckets, L2-normalized. No semantic quality
// guarantees beyond "identical text maps to the identical vector" — it exists
// for offline deployments and tests, where determinism matters more than
// ranking quality.
type LocalModel struct {
	dim     int
	version string
}

// NewLocalModel creates a hashing embedder of the given dimensionality.
func NewLocalModel(dim int, version string) *LocalModel {
	if dim <= 0 {
		dim = 256
	}
	if version == "" {
		version = "local/hash-v1"
	}
	return &LocalModel{dim: dim, version: version}
}

// Embed hashes the token frequencies of text into a normalized vector.
func (m *LocalModel) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dim)
	tokens := localTokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%m.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (m *LocalModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Version identifies this embedder for the index's mixed-version check.
func (m *LocalModel) Version() string { return m.version }

var _ Embedder = (*LocalModel)(nil)
