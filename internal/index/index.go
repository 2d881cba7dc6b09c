package index

import "context"

// Entry is one section's vector as stored in the index.
type Entry struct {
	SectionID  string
	DocumentID string
	Ordinal    int
	Vector     []float32
}

// Match is one ranked query result. Score is cosine similarity mapped onto
// [0,1]; scores are comparable across calls only under one embedder version.
type Match struct {
	SectionID  string
	DocumentID string
	Ordinal    int
	Score      float64
}

// Index stores section vectors and answers nearest-neighbor queries.
// The index is additive at section granularity: there is no update-in-place,
// a changed section is removed then re-added. Every call carries the
// embedder version that produced its vectors; a version that differs from
// the one the index was populated with fails with
// models.ErrEmbeddingVersionMismatch.
type Index interface {
	Add(ctx context.Context, version string, entries ...Entry) error
	RemoveDocument(ctx context.Context, documentID string) error
	Query(ctx context.Context, version string, vector []float32, k int, documentIDs []string) ([]Match, error)
}
