package taxonomy

import (
	"context"
	"fmt"
	"time"

	"jobsync/internal/config"
	"jobsync/internal/jobsync"
	"jobsync/internal/projector"
)

// NewFromConfig creates the occupation code lookup. The "database" type
// reads from store. When a redis url is configured the lookup is cached
// and the returned close function releases the redis client.
func NewFromConfig(ctx context.Context, cfg config.TaxonomyConfig, store projector.Taxonomy, logger jobsync.Logger) (projector.Taxonomy, func() error, error) {
	var backing projector.Taxonomy
	switch cfg.Type {
	case "database", "":
		if store == nil {
			return nil, nil, fmt.Errorf("database taxonomy requires a store")
		}
		backing = store
	case "memory":
		backing = NewMemory()
	default:
		return nil, nil, fmt.Errorf("unknown taxonomy type: %s", cfg.Type)
	}

	noop := func() error { return nil }
	if cfg.RedisURL == "" {
		return backing, noop, nil
	}

	client, err := NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return NewCache(client, backing, ttl, logger), client.Close, nil
}
