// Package cache is a Redis-backed query result cache. Concurrent misses for
// the same key are collapsed with singleflight so the engine computes each
// result once. The cache is strictly optional: the server runs uncached when
// Redis is unavailable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
	"github.com/SiddhantNarel/mini-search-engine/pkg/logger"
	pkgredis "github.com/SiddhantNarel/mini-search-engine/pkg/redis"
)

const keyPrefix = "minisearch:"

// QueryCache caches ranked results keyed by normalised query and top-k.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache backed by the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: logger.WithComponent("query-cache"),
	}
}

// Get returns the cached results for (query, topK), if present.
func (c *QueryCache) Get(ctx context.Context, query string, topK int) ([]engine.Result, bool) {
	key := c.buildKey(query, topK)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []engine.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return results, true
}

// Set stores results for (query, topK) with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, query string, topK int, results []engine.Result) {
	key := c.buildKey(query, topK)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or computes and stores them, collapsing
// concurrent computations for the same key. The second return value reports
// whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	topK int,
	computeFn func() []engine.Result,
) ([]engine.Result, bool) {
	if results, ok := c.Get(ctx, query, topK); ok {
		return results, true
	}
	key := c.buildKey(query, topK)
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, query, topK); ok {
			return results, nil
		}
		results := computeFn()
		c.Set(ctx, query, topK, results)
		return results, nil
	})
	return val.([]engine.Result), false
}

// Invalidate removes every cached query result. It runs after a successful
// crawl so stale rankings never outlive the index they were computed from.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(query string, topK int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	raw := fmt.Sprintf("%s:top_k=%d", normalized, topK)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
