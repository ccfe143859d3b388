// Package cache holds the Redis read-through cache for completed results.
// Cache failures are logged and never fatal — the job store stays the source
// of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

const keyPrefix = "validation:"

// redisCmd is the slice of the Redis API the cache uses. Tests substitute an
// in-memory implementation.
type redisCmd interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ResultCache caches marshaled ValidationResults keyed by job id.
type ResultCache struct {
	rdb redisCmd
	ttl time.Duration
	log *logging.Logger
}

// New returns a ResultCache with the given TTL.
func New(rdb *redis.Client, ttl time.Duration, log *logging.Logger) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl, log: log.With("component", "ResultCache")}
}

// Get returns the cached result for jobID, or (nil, false) on miss or error.
func (c *ResultCache) Get(ctx context.Context, jobID string) (*model.ValidationResult, bool) {
	data, err := c.rdb.Get(ctx, keyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache get failed", "job_id", jobID, "err", err)
		return nil, false
	}

	var result model.ValidationResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.log.Warn("cache entry corrupt, dropping", "job_id", jobID, "err", err)
		c.Delete(ctx, jobID)
		return nil, false
	}
	return &result, true
}

// Set stores the result for jobID with the cache TTL.
func (c *ResultCache) Set(ctx context.Context, jobID string, result *model.ValidationResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.log.Warn("cache marshal failed", "job_id", jobID, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+jobID, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "job_id", jobID, "err", err)
	}
}

// Delete drops the cached result for jobID.
func (c *ResultCache) Delete(ctx context.Context, jobID string) {
	if err := c.rdb.Del(ctx, keyPrefix+jobID).Err(); err != nil {
		c.log.Warn("cache delete failed", "job_id", jobID, "err", err)
	}
}
