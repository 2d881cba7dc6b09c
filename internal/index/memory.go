package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"doclens/internal/models"
)

// MemoryIndex is a thread-safe in-memory implementation of Index using
// brute-force cosine similarity. Adds are atomic per entry: a query never
// observes a half-added section. Reads do not block each other.
type MemoryIndex struct {
	mu      sync.RWMutex
	version string
	entries []Entry
	byDoc   map[string][]int // document id -> positions in entries
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byDoc: make(map[string][]int)}
}

// Add inserts entries. The first Add pins the embedder version; later calls
// with a different version are rejected, never silently mixed.
func (ix *MemoryIndex) Add(_ context.Context, version string, entries ...Entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.checkVersion(version); err != nil {
		return err
	}
	for _, e := range entries {
		ix.byDoc[e.DocumentID] = append(ix.byDoc[e.DocumentID], len(ix.entries))
		ix.entries = append(ix.entries, e)
	}
	return nil
}

// RemoveDocument drops all entries of one document.
func (ix *MemoryIndex) RemoveDocument(_ context.Context, documentID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.byDoc[documentID]; !ok {
		return nil
	}
	kept := ix.entries[:0:0]
	for _, e := range ix.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	ix.entries = kept
	ix.byDoc = make(map[string][]int, len(ix.byDoc))
	for i, e := range ix.entries {
		ix.byDoc[e.DocumentID] = append(ix.byDoc[e.DocumentID], i)
	}
	return nil
}

// Query returns the k nearest entries by cosine similarity, optionally
// restricted to the given document ids. Ties break by lower ordinal
// (earlier section wins), then insertion order.
func (ix *MemoryIndex) Query(_ context.Context, version string, vector []float32, k int, documentIDs []string) ([]Match, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// An unpinned index holds nothing. Only Add pins the version; writing it
	// here would race with other readers.
	if ix.version == "" {
		return nil, nil
	}
	if ix.version != version {
		return nil, fmt.Errorf("%w: index has %q, got %q",
			models.ErrEmbeddingVersionMismatch, ix.version, version)
	}
	if k <= 0 || len(ix.entries) == 0 {
		return nil, nil
	}

	var allowed map[string]struct{}
	if len(documentIDs) > 0 {
		allowed = make(map[string]struct{}, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = struct{}{}
		}
	}

	type ranked struct {
		Match
		pos int
	}
	var candidates []ranked
	for pos, e := range ix.entries {
		if allowed != nil {
			if _, ok := allowed[e.DocumentID]; !ok {
				continue
			}
		}
		score := cosineScore(vector, e.Vector)
		candidates = append(candidates, ranked{
			Match: Match{SectionID: e.SectionID, DocumentID: e.DocumentID, Ordinal: e.Ordinal, Score: score},
			pos:   pos,
		})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		if candidates[a].Ordinal != candidates[b].Ordinal {
			return candidates[a].Ordinal < candidates[b].Ordinal
		}
		return candidates[a].pos < candidates[b].pos
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]Match, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].Match
	}
	return out, nil
}

func (ix *MemoryIndex) checkVersion(version string) error {
	if ix.version == "" {
		ix.version = version
		return nil
	}
	if ix.version != version {
		return fmt.Errorf("%w: index has %q, got %q",
			models.ErrEmbeddingVersionMismatch, ix.version, version)
	}
	return nil
}

// cosineScore maps cosine similarity from [-1,1] onto [0,1].
func cosineScore(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (cos + 1) / 2
}

var _ Index = (*MemoryIndex)(nil)
