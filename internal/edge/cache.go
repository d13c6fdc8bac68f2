package edge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "edge:cache:"

// CachedResponse is one stored upstream response.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Cache is the shared edge response cache. It is consulted only after
// the gatekeeper has allowed the request, so storing premium bodies in
// a shared keyspace is safe.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps a Redis client as the edge cache.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached response for a path, if any. Cache failures
// degrade to a miss; they never fail the request.
func (c *Cache) Get(ctx context.Context, path string) (*CachedResponse, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKeyPrefix+path).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("edge cache read failed", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}
	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn("edge cache entry corrupt", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

// Set stores an upstream response.
func (c *Cache) Set(ctx context.Context, path string, resp *CachedResponse) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+path, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("edge cache write failed", zap.String("path", path), zap.Error(err))
	}
}
