package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobsync/internal/jobsync"
	"jobsync/internal/model"
	"jobsync/internal/projector"
)

// DefaultCacheTTL is how long a cached lookup lives when no TTL is configured.
const DefaultCacheTTL = 24 * time.Hour

const keyPrefix = "jobsync:taxonomy:"

// Cmdable is the subset of the redis client the cache uses.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cache serves lookups from redis and falls back to the backing taxonomy on
// a miss. Redis failures degrade to uncached lookups.
type Cache struct {
	rdb     Cmdable
	backing projector.Taxonomy
	ttl     time.Duration
	logger  jobsync.Logger
}

// NewCache wraps backing with a redis cache. A non-positive ttl uses
// DefaultCacheTTL.
func NewCache(rdb Cmdable, backing projector.Taxonomy, ttl time.Duration, logger jobsync.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = jobsync.NewNopLogger()
	}
	return &Cache{rdb: rdb, backing: backing, ttl: ttl, logger: logger}
}

func (c *Cache) CodesFor(ctx context.Context, onet string) ([]model.TaxonomyEntry, error) {
	key := keyPrefix + onet

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entries []model.TaxonomyEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
		c.logger.Warn("discarding corrupt taxonomy cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("taxonomy cache unavailable", "key", key, "error", err)
	}

	entries, err := c.backing.CodesFor(ctx, onet)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", onet, err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("caching taxonomy lookup", "key", key, "error", err)
	}
	return entries, nil
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

var (
	_ projector.Taxonomy = (*Cache)(nil)
	_ Cmdable            = (*redis.Client)(nil)
)
