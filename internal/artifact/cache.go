package artifact

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"doclens/internal/config"
	"doclens/internal/models"
	"doclens/pkg/logger"
)

// MemoryCache is the in-process metadata cache used when Redis is not
// configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.AudioArtifact
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]models.AudioArtifact)}
}

func (c *MemoryCache) Get(_ context.Context, hash string) (*models.AudioArtifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	art, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	cp := art
	return &cp, true
}

func (c *MemoryCache) Set(_ context.Context, hash string, art *models.AudioArtifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *art
	cp.Data = nil // metadata only
	c.entries[hash] = cp
}

var _ MetaCache = (*MemoryCache)(nil)

const redisCacheTTL = 24 * time.Hour

// RedisCache shares artifact metadata across service instances. Any Redis
// failure degrades to a miss; correctness never depends on the cache.
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client, log: log}, nil
}

func redisKey(hash string) string { return "doclens:artifact:" + hash }

func (c *RedisCache) Get(ctx context.Context, hash string) (*models.AudioArtifact, bool) {
	raw, err := c.client.Get(ctx, redisKey(hash)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("Artifact cache read failed")
		}
		return nil, false
	}
	var art models.AudioArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, false
	}
	return &art, true
}

func (c *RedisCache) Set(ctx context.Context, hash string, art *models.AudioArtifact) {
	cp := *art
	cp.Data = nil
	raw, err := json.Marshal(&cp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(hash), raw, redisCacheTTL).Err(); err != nil {
		c.log.WithError(err).Warn("Artifact cache write failed")
	}
}

var _ MetaCache = (*RedisCache)(nil)
