package store

import (
	"context"

	"doclens/internal/models"
)

// SectionStore persists documents and their extracted sections, keyed by
// document id. The embedding vectors travel with the sections so a restart
// can rebuild the index without re-embedding.
type SectionStore interface {
	// SaveDocument stores the document and replaces its sections in one call.
	SaveDocument(ctx context.Context, doc *models.Document, sections []models.Section) error
	Document(ctx context.Context, id string) (*models.Document, error)
	Documents(ctx context.Context) ([]*models.Document, error)
	DocumentsByCluster(ctx context.Context, clusterID string) ([]*models.Document, error)
	Sections(ctx context.Context, documentID string) ([]models.Section, error)
	Section(ctx context.Context, documentID string, ordinal int) (*models.Section, error)
	DeleteDocument(ctx context.Context, id string) error
}
