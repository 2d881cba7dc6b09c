package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"doclens/internal/models"
	"doclens/pkg/logger"
)

// BlobStore persists raw bytes under a key. Implementations must return
// models.ErrArtifactNotFound for missing keys.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// MetaCache is a read-through cache for artifact metadata. A miss or cache
// failure is never fatal; the blob store stays authoritative.
type MetaCache interface {
	Get(ctx context.Context, hash string) (*models.AudioArtifact, bool)
	Set(ctx context.Context, hash string, art *models.AudioArtifact)
}

// Store is the content-addressed artifact store: audio bytes and metadata
// live in the blob store keyed by content hash, with an id alias for
// download-by-id, and metadata reads go through the cache.
type Store struct {
	blobs BlobStore
	cache MetaCache
	log   *logger.Logger
}

// NewStore creates an artifact store. cache may be nil.
func NewStore(blobs BlobStore, cache MetaCache, log *logger.Logger) *Store {
	if cache == nil {
		cache = noopCache{}
	}
	return &Store{blobs: blobs, cache: cache, log: log}
}

func audioKey(hash string) string { return "audio/" + hash + ".wav" }
func metaKey(hash string) string  { return "audio/" + hash + ".json" }
func idKey(id string) string      { return "audio/byid/" + id }

// Save persists the artifact. Writes go data first, metadata last, so a
// reader that sees metadata is guaranteed to find the audio.
func (s *Store) Save(ctx context.Context, art *models.AudioArtifact) error {
	if art.ContentHash == "" {
		return fmt.Errorf("artifact has no content hash")
	}
	meta, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("failed to encode artifact metadata: %w", err)
	}

	if err := s.blobs.Put(ctx, audioKey(art.ContentHash), art.Data); err != nil {
		return fmt.Errorf("failed to store audio blob: %w", err)
	}
	if err := s.blobs.Put(ctx, idKey(art.ID), []byte(art.ContentHash)); err != nil {
		return fmt.Errorf("failed to store artifact id alias: %w", err)
	}
	if err := s.blobs.Put(ctx, metaKey(art.ContentHash), meta); err != nil {
		return fmt.Errorf("failed to store artifact metadata: %w", err)
	}

	s.cache.Set(ctx, art.ContentHash, art)
	s.log.WithPayload(map[string]interface{}{
		"hash":  art.ContentHash,
		"bytes": len(art.Data),
	}).Info("Stored audio artifact")
	return nil
}

// ByHash loads an artifact, audio included, by its content hash.
func (s *Store) ByHash(ctx context.Context, hash string) (*models.AudioArtifact, error) {
	art, cached := s.cache.Get(ctx, hash)
	if !cached {
		meta, err := s.blobs.Get(ctx, metaKey(hash))
		if err != nil {
			return nil, err
		}
		art = &models.AudioArtifact{}
		if err := json.Unmarshal(meta, art); err != nil {
			return nil, fmt.Errorf("corrupt artifact metadata for %s: %w", hash, err)
		}
		s.cache.Set(ctx, hash, art)
	}

	data, err := s.blobs.Get(ctx, audioKey(hash))
	if err != nil {
		return nil, err
	}
	cp := *art
	cp.Data = data
	return &cp, nil
}

// ByID resolves the id alias and loads the artifact.
func (s *Store) ByID(ctx context.Context, id string) (*models.AudioArtifact, error) {
	ref, err := s.blobs.Get(ctx, idKey(id))
	if err != nil {
		return nil, err
	}
	return s.ByHash(ctx, strings.TrimSpace(string(ref)))
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*models.AudioArtifact, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *models.AudioArtifact)        {}
