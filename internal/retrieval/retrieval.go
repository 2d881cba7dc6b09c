package retrieval

import (
	"context"
	"fmt"
	"strings"

	"doclens/internal/embedding"
	"doclens/internal/index"
	"doclens/internal/models"
	"doclens/internal/store"
	"doclens/pkg/logger"
)

// Engine answers "find the top-K sections relevant to text X" across one or
// many documents. It is the single choke point every downstream generator
// retrieves through, and it guarantees read-after-write consistency: a
// section added by ingestion is visible to the very next Search call.
type Engine struct {
	embedder embedding.Embedder
	index    index.Index
	sections store.SectionStore
	log      *logger.Logger

	topK          int
	minQueryChars int
}

// NewEngine creates a retrieval engine. topK is the default result count,
// minQueryChars the threshold below which queries return empty without
// spending an embedding call.
func NewEngine(embedder embedding.Embedder, ix index.Index, sections store.SectionStore, topK, minQueryChars int, log *logger.Logger) *Engine {
	if topK <= 0 {
		topK = 5
	}
	if minQueryChars <= 0 {
		minQueryChars = 3
	}
	return &Engine{
		embedder:      embedder,
		index:         ix,
		sections:      sections,
		log:           log,
		topK:          topK,
		minQueryChars: minQueryChars,
	}
}

// Search returns snippets strictly ordered by descending similarity,
// truncated to k (the engine default when k <= 0). Sub-threshold queries and
// an empty corpus yield an empty result, never an error.
func (e *Engine) Search(ctx context.Context, query string, k int, documentIDs ...string) ([]models.Snippet, error) {
	query = strings.TrimSpace(query)
	if len(query) < e.minQueryChars {
		return nil, nil
	}
	if k <= 0 {
		k = e.topK
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := e.index.Query(ctx, e.embedder.Version(), vector, k, documentIDs)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	snippets := make([]models.Snippet, 0, len(matches))
	for _, m := range matches {
		sec, err := e.sections.Section(ctx, m.DocumentID, m.Ordinal)
		if err != nil {
			e.log.WithDocument(m.DocumentID).Warn(
				fmt.Sprintf("Indexed section %d has no stored text, skipping", m.Ordinal))
			continue
		}
		snippets = append(snippets, models.Snippet{Section: sec, Score: m.Score, Query: query})
	}
	return snippets, nil
}
