package store

import (
	"context"
	"sort"
	"sync"

	"doclens/internal/models"
)

// MemoryStore is a thread-safe in-memory SectionStore for single-node
// deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]*models.Document
	sections map[string][]models.Section
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]*models.Document),
		sections: make(map[string][]models.Section),
	}
}

func (s *MemoryStore) SaveDocument(_ context.Context, doc *models.Document, sections []models.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *doc
	cp.SectionCount = len(sections)
	s.docs[doc.ID] = &cp
	s.sections[doc.ID] = append([]models.Section(nil), sections...)
	return nil
}

func (s *MemoryStore) Document(_ context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, models.ErrDocumentNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) Documents(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Document) bool { return true }), nil
}

func (s *MemoryStore) DocumentsByCluster(_ context.Context, clusterID string) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(d *models.Document) bool { return d.ClusterID == clusterID }), nil
}

func (s *MemoryStore) Sections(_ context.Context, documentID string) ([]models.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secs, ok := s.sections[documentID]
	if !ok {
		return nil, models.ErrDocumentNotFound
	}
	return append([]models.Section(nil), secs...), nil
}

func (s *MemoryStore) Section(_ context.Context, documentID string, ordinal int) (*models.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secs, ok := s.sections[documentID]
	if !ok || ordinal < 0 || ordinal >= len(secs) {
		return nil, models.ErrDocumentNotFound
	}
	cp := secs[ordinal]
	return &cp, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
	delete(s.sections, id)
	return nil
}

// collect returns matching documents sorted by upload time, then id, so
// listings are stable across calls.
func (s *MemoryStore) collect(match func(*models.Document) bool) []*models.Document {
	var out []*models.Document
	for _, d := range s.docs {
		if match(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].UploadedAt.Equal(out[b].UploadedAt) {
			return out[a].UploadedAt.Before(out[b].UploadedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out
}

var _ SectionStore = (*MemoryStore)(nil)
