package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doclens/internal/models"
)

func doc(id, cluster string, uploaded time.Time) *models.Document {
	return &models.Document{ID: id, Filename: id + ".pdf", ClusterID: cluster, UploadedAt: uploaded}
}

func secs(n int) []models.Section {
	out := make([]models.Section, n)
	for i := range out {
		out[i] = models.Section{Ordinal: i, Title: "T", Text: "body"}
	}
	return out
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, doc("d1", "", time.Now()), secs(3)))

	got, err := s.Document(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SectionCount)

	sections, err := s.Sections(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, sec := range sections {
		assert.Equal(t, i, sec.Ordinal)
	}

	one, err := s.Section(ctx, "d1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Ordinal)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Document(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrDocumentNotFound))

	_, err = s.Sections(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrDocumentNotFound))

	require.NoError(t, s.SaveDocument(ctx, doc("d1", "", time.Now()), secs(1)))
	_, err = s.Section(ctx, "d1", 5)
	assert.True(t, errors.Is(err, models.ErrDocumentNotFound))
}

func TestMemoryStoreListingOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDocument(ctx, doc("b", "", base.Add(time.Hour)), secs(1)))
	require.NoError(t, s.SaveDocument(ctx, doc("a", "", base), secs(1)))
	require.NoError(t, s.SaveDocument(ctx, doc("c", "", base), secs(1)))

	docs, err := s.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	// Upload time first, then id for equal times.
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
	assert.Equal(t, "b", docs[2].ID)
}

func TestMemoryStoreClusterFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, doc("d1", "alpha", time.Now()), secs(1)))
	require.NoError(t, s.SaveDocument(ctx, doc("d2", "beta", time.Now()), secs(1)))

	docs, err := s.DocumentsByCluster(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, doc("d1", "", time.Now()), secs(1)))
	require.NoError(t, s.DeleteDocument(ctx, "d1"))

	_, err := s.Document(ctx, "d1")
	assert.True(t, errors.Is(err, models.ErrDocumentNotFound))
}

func TestMemoryStoreCopiesOnRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SaveDocument(ctx, doc("d1", "", time.Now()), secs(1)))

	got, err := s.Document(ctx, "d1")
	require.NoError(t, err)
	got.Filename = "mutated"

	again, err := s.Document(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1.pdf", again.Filename, "reads must return copies")
}
