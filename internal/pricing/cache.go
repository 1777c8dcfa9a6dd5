package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Cache is the byte store the cached pipeline memoizes into. Satisfied
// by pkg/redis.Client.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CachedPipeline memoizes Compute per exact (item, cutoff) pair with a
// TTL. Backing data changes rarely relative to interactive use, so a
// staleness window is acceptable. Errors are never cached. A nil cache
// makes it a transparent passthrough.
type CachedPipeline struct {
	inner  Computer
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(inner Computer, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedPipeline {
	return &CachedPipeline{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedPipeline) Compute(ctx context.Context, item, cutoff string) (*Result, error) {
	if c.cache == nil {
		return c.inner.Compute(ctx, item, cutoff)
	}

	key := cacheKey(item, cutoff)

	// Try the cache first; on any miss or decode failure fall through to
	// a full recomputation.
	if data, err := c.cache.Get(ctx, key); err == nil {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			return &res, nil
		}
	}

	res, err := c.inner.Compute(ctx, item, cutoff)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("Failed to cache pricing result",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	return res, nil
}

func cacheKey(item, cutoff string) string {
	return fmt.Sprintf("pricing:%s:%s", item, cutoff)
}
