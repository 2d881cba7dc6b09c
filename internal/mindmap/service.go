package mindmap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"doclens/internal/models"
)

// Service fronts the Builder with a content-hash cache and a singleflight
// guard: concurrent requests for the same (sections, parameters) key coalesce
// onto one build, and repeats are served from cache. Builds are pure CPU
// work, but large documents make them expensive enough to dedupe.
type Service struct {
	builder *Builder
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]*models.Mindmap

	builds int64 // total underlying builds, for observability
}

// NewService wraps a builder with coalescing and caching.
func NewService(builder *Builder) *Service {
	return &Service{builder: builder, cache: make(map[string]*models.Mindmap)}
}

// Build returns the mindmap for (rootTitle, sections), building at most once
// per content key regardless of how many callers race.
func (s *Service) Build(rootTitle string, sections []models.Section) *models.Mindmap {
	key := s.key(rootTitle, sections)

	s.mu.RLock()
	cached := s.cache[key]
	s.mu.RUnlock()
	if cached != nil {
		return cached
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.RLock()
		cached := s.cache[key]
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		atomic.AddInt64(&s.builds, 1)
		m := s.builder.Build(rootTitle, sections)

		s.mu.Lock()
		// First successful writer wins; a concurrent writer's entry stands.
		if existing := s.cache[key]; existing != nil {
			m = existing
		} else {
			s.cache[key] = m
		}
		s.mu.Unlock()
		return m, nil
	})
	return v.(*models.Mindmap)
}

// key hashes the build inputs: parameters, root title, and every section's
// identity and text.
func (s *Service) key(rootTitle string, sections []models.Section) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s", s.builder.maxSections, s.builder.phrasesPerSection, rootTitle)
	for _, sec := range sections {
		fmt.Fprintf(h, "\x1e%s\x1f%d\x1f%s\x1f%s", sec.DocumentID, sec.Ordinal, sec.Title, sec.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
