package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"doclens/internal/models"
	"doclens/pkg/logger"
)

// Milvus collection fields used for filtering and output.
const (
	FieldSectionID  = "section_id"
	FieldDocumentID = "document_id"
	FieldOrdinal    = "ordinal"
	FieldEmbedding  = "embedding"
)

// MilvusIndex implements Index on a Milvus collection for deployments where
// the vector store lives outside the process. The embedder version is pinned
// at construction: the deployment owns one collection per model version.
type MilvusIndex struct {
	log        *logger.Logger
	client     client.Client
	collection string
	version    string
}

// NewMilvusIndex wraps an existing Milvus connection.
func NewMilvusIndex(c client.Client, collection, version string, log *logger.Logger) (*MilvusIndex, error) {
	if c == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusIndex{log: log, client: c, collection: collection, version: version}, nil
}

// Connect dials a Milvus deployment.
func Connect(ctx context.Context, address string) (client.Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}
	return c, nil
}

// Add inserts section vectors into the collection.
func (ix *MilvusIndex) Add(ctx context.Context, version string, entries ...Entry) error {
	if err := ix.checkVersion(version); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	docIDs := make([]string, len(entries))
	ordinals := make([]int64, len(entries))
	vectors := make([][]float32, len(entries))
	dim := 0
	for i, e := range entries {
		ids[i] = e.SectionID
		docIDs[i] = e.DocumentID
		ordinals[i] = int64(e.Ordinal)
		vectors[i] = e.Vector
		if len(e.Vector) > dim {
			dim = len(e.Vector)
		}
	}

	ix.log.Info(fmt.Sprintf("Inserting %d vectors into milvus collection %s", len(entries), ix.collection))
	_, err := ix.client.Insert(ctx, ix.collection, "",
		entity.NewColumnVarChar(FieldSectionID, ids),
		entity.NewColumnVarChar(FieldDocumentID, docIDs),
		entity.NewColumnInt64(FieldOrdinal, ordinals),
		entity.NewColumnFloatVector(FieldEmbedding, dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// RemoveDocument deletes all vectors belonging to one document.
func (ix *MilvusIndex) RemoveDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, FieldDocumentID, documentID)
	if err := ix.client.Delete(ctx, ix.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete from milvus: %w", err)
	}
	return nil
}

// Query searches the collection, optionally filtered to a set of documents.
func (ix *MilvusIndex) Query(ctx context.Context, version string, vector []float32, k int, documentIDs []string) ([]Match, error) {
	if err := ix.checkVersion(version); err != nil {
		return nil, err
	}

	expr := buildDocumentFilter(documentIDs)
	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	outputFields := []string{FieldSectionID, FieldDocumentID, FieldOrdinal}

	results, err := ix.client.Search(
		ctx, ix.collection, []string{}, expr, outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, k, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	var matches []Match
	for _, res := range results {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(FieldSectionID).(*entity.ColumnVarChar)
		if !ok {
			ix.log.Warn("Search result missing section_id column, skipping")
			continue
		}
		docCol, _ := findColumn(FieldDocumentID).(*entity.ColumnVarChar)
		ordCol, _ := findColumn(FieldOrdinal).(*entity.ColumnInt64)

		for i := 0; i < res.ResultCount; i++ {
			m := Match{
				SectionID: idCol.Data()[i],
				// milvus COSINE scores are in [-1,1]; map onto [0,1] to
				// match the in-memory index
				Score: (float64(res.Scores[i]) + 1) / 2,
			}
			if docCol != nil {
				m.DocumentID = docCol.Data()[i]
			}
			if ordCol != nil {
				m.Ordinal = int(ordCol.Data()[i])
			}
			matches = append(matches, m)
		}
	}
	sortMatches(matches)
	return matches, nil
}

// sortMatches orders matches by descending score, ties going to the earlier
// section. Both index backends return results under the same contract.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Ordinal < matches[b].Ordinal
	})
}

func (ix *MilvusIndex) checkVersion(version string) error {
	if ix.version != version {
		return fmt.Errorf("%w: collection %s holds %q, got %q",
			models.ErrEmbeddingVersionMismatch, ix.collection, ix.version, version)
	}
	return nil
}

func buildDocumentFilter(documentIDs []string) string {
	if len(documentIDs) == 0 {
		return ""
	}
	quoted := make([]string, len(documentIDs))
	for i, id := range documentIDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf("%s in [%s]", FieldDocumentID, strings.Join(quoted, ", "))
}

var _ Index = (*MilvusIndex)(nil)
