package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doclens/internal/embedding"
	"doclens/internal/extractor"
	"doclens/internal/index"
	"doclens/internal/models"
	"doclens/internal/store"
	"doclens/pkg/logger"
)

func testIngester(t *testing.T) (*Ingester, *store.MemoryStore, *index.MemoryIndex) {
	t.Helper()
	ex := extractor.New(500, logger.New("extractor"))
	em := embedding.NewLocalModel(64, "")
	ix := index.NewMemoryIndex()
	st := store.NewMemoryStore()
	return New(ex, em, ix, st, 4, logger.New("ingest")), st, ix
}

func TestIngestRejectsFileWithoutTextLayer(t *testing.T) {
	g, st, _ := testIngester(t)

	_, err := g.Ingest(context.Background(), File{
		Filename: "scan.pdf",
		Data:     []byte("not a pdf at all, just bytes"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoTextLayer))

	docs, err := st.Documents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs, "a failed ingest must leave no document behind")
}

func TestIngestBatchIsolatesFailures(t *testing.T) {
	g, st, _ := testIngester(t)

	files := []File{
		{Filename: "bad-1.pdf", Data: []byte("garbage")},
		{Filename: "bad-2.pdf", Data: []byte("more garbage")},
		{Filename: "bad-3.pdf", Data: []byte("still garbage")},
	}
	results := g.IngestBatch(context.Background(), files)

	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, files[i].Filename, res.Filename, "results keep input order")
		assert.Error(t, res.Err)
		assert.True(t, errors.Is(res.Err, models.ErrNoTextLayer))
	}

	docs, err := st.Documents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestBatchRespectsCancellation(t *testing.T) {
	g, _, _ := testIngester(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var files []File
	for i := 0; i < 10; i++ {
		files = append(files, File{Filename: fmt.Sprintf("f%d.pdf", i), Data: []byte("x")})
	}
	results := g.IngestBatch(ctx, files)
	for _, res := range results {
		assert.Error(t, res.Err)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	g, _, _ := testIngester(t)
	err := g.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrDocumentNotFound))
}
