package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/metrics"
	"github.com/previewd/previewd/internal/preview"
)

// Cached wraps a resolver with a read-through preview cache. Cache keys
// are the exact URL strings handed to Resolve; no normalization happens
// here, so differently spelled URLs for one resource cache separately.
type Cached struct {
	inner         preview.Resolver
	cache         preview.Cache
	storeFailures bool
	logger        *zap.Logger
}

// NewCached builds the caching wrapper. When storeFailures is false,
// none results are returned but not written back, so the next call for
// the same URL retries the resolution.
func NewCached(inner preview.Resolver, cache preview.Cache, storeFailures bool, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		inner:         inner,
		cache:         cache,
		storeFailures: storeFailures,
		logger:        logger,
	}
}

// Resolve returns the cached preview for url if present, otherwise
// resolves and populates the cache. Cache errors degrade to a direct
// resolution rather than failing the request.
func (c *Cached) Resolve(ctx context.Context, url string) preview.Preview {
	cached, ok, err := c.cache.Get(ctx, url)
	if err != nil {
		c.logger.Warn("preview cache read failed", zap.String("url", url), zap.Error(err))
	}
	if ok {
		metrics.ObserveCacheLookup("hit")
		return cached
	}
	metrics.ObserveCacheLookup("miss")

	p := c.inner.Resolve(ctx, url)
	if p.IsNone() && !c.storeFailures {
		return p
	}
	if err := c.cache.Put(ctx, url, p); err != nil {
		c.logger.Warn("preview cache write failed", zap.String("url", url), zap.Error(err))
	}
	return p
}
