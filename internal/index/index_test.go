package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doclens/internal/models"
)

const version = "model-v1"

func entry(doc string, ordinal int, vec []float32) Entry {
	return Entry{
		SectionID:  models.SectionKey(doc, ordinal),
		DocumentID: doc,
		Ordinal:    ordinal,
		Vector:     vec,
	}
}

func TestQueryOrdersByScore(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, version,
		entry("doc-1", 0, []float32{1, 0, 0}),
		entry("doc-1", 1, []float32{0, 1, 0}),
		entry("doc-1", 2, []float32{0.9, 0.1, 0}),
	))

	matches, err := ix.Query(ctx, version, []float32{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, 0, matches[0].Ordinal)
	assert.Equal(t, 2, matches[1].Ordinal)
	assert.Equal(t, 1, matches[2].Ordinal)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
}

func TestQueryTiesBreakByOrdinal(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	// Identical vectors, identical scores.
	require.NoError(t, ix.Add(ctx, version,
		entry("doc-1", 3, []float32{1, 0}),
		entry("doc-1", 1, []float32{1, 0}),
		entry("doc-1", 2, []float32{1, 0}),
	))

	matches, err := ix.Query(ctx, version, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{matches[0].Ordinal, matches[1].Ordinal, matches[2].Ordinal})
}

func TestQueryFiltersByDocument(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, version,
		entry("doc-1", 0, []float32{1, 0}),
		entry("doc-2", 0, []float32{1, 0}),
	))

	matches, err := ix.Query(ctx, version, []float32{1, 0}, 10, []string{"doc-2"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-2", matches[0].DocumentID)
}

func TestVersionMismatchRejected(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "model-v1", entry("doc-1", 0, []float32{1, 0})))

	err := ix.Add(ctx, "model-v2", entry("doc-1", 1, []float32{0, 1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmbeddingVersionMismatch))

	_, err = ix.Query(ctx, "model-v2", []float32{1, 0}, 1, nil)
	assert.True(t, errors.Is(err, models.ErrEmbeddingVersionMismatch))
}

func TestRemoveDocument(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, version,
		entry("doc-1", 0, []float32{1, 0}),
		entry("doc-2", 0, []float32{0, 1}),
	))
	require.NoError(t, ix.RemoveDocument(ctx, "doc-1"))

	matches, err := ix.Query(ctx, version, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-2", matches[0].DocumentID)

	// Removing an absent document is a no-op.
	require.NoError(t, ix.RemoveDocument(ctx, "doc-1"))
}

func TestConcurrentQueriesOnFreshIndex(t *testing.T) {
	ix := NewMemoryIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matches, err := ix.Query(ctx, version, []float32{1, 0}, 3, nil)
			assert.NoError(t, err)
			assert.Empty(t, matches)
		}()
	}
	wg.Wait()

	// Queries must not have pinned a version; the first Add still decides.
	require.NoError(t, ix.Add(ctx, "another-model", entry("doc-1", 0, []float32{1, 0})))
	matches, err := ix.Query(ctx, "another-model", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestQueryEmptyIndex(t *testing.T) {
	ix := NewMemoryIndex()
	matches, err := ix.Query(context.Background(), version, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSortMatches(t *testing.T) {
	matches := []Match{
		{SectionID: "a", Ordinal: 5, Score: 0.7},
		{SectionID: "b", Ordinal: 2, Score: 0.9},
		{SectionID: "c", Ordinal: 1, Score: 0.7},
	}
	sortMatches(matches)
	assert.Equal(t, []string{"b", "c", "a"},
		[]string{matches[0].SectionID, matches[1].SectionID, matches[2].SectionID})
}

func TestBuildDocumentFilter(t *testing.T) {
	assert.Equal(t, "", buildDocumentFilter(nil))
	assert.Equal(t, `document_id in ["a"]`, buildDocumentFilter([]string{"a"}))
	assert.Equal(t, `document_id in ["a", "b"]`, buildDocumentFilter([]string{"a", "b"}))
}
