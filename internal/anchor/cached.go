package anchor

import (
	"context"
	"time"

	"medverify/backend/internal/cache"
	"medverify/backend/internal/domain"
)

// CachedResolver wraps a Resolver with a TTL cache. Existence answers and
// batch payloads are cached; cache failures fall through to the inner
// resolver. A negative existence answer is cached too — re-probing an absent
// anchor on every scan would hammer the network during offline spells.
type CachedResolver struct {
	inner Resolver
	cache cache.AnchorCache
	ttl   time.Duration
}

func NewCachedResolver(inner Resolver, anchorCache cache.AnchorCache, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedResolver{inner: inner, cache: anchorCache, ttl: ttl}
}

func (c *CachedResolver) Exists(ctx context.Context, identifier string) bool {
	if exists, found, err := c.cache.GetExists(ctx, identifier); err == nil && found {
		return exists
	}

	exists := c.inner.Exists(ctx, identifier)
	_ = c.cache.SetExists(ctx, identifier, exists, c.ttl)
	return exists
}

func (c *CachedResolver) ResolveBatch(ctx context.Context, identifier string) (*domain.BatchData, error) {
	if batch, found, err := c.cache.GetBatch(ctx, identifier); err == nil && found {
		return batch, nil
	}

	batch, err := c.inner.ResolveBatch(ctx, identifier)
	if err != nil {
		return nil, err
	}
	_ = c.cache.SetBatch(ctx, identifier, batch, c.ttl)
	return batch, nil
}

func (c *CachedResolver) ResolveProduct(ctx context.Context, identifier string) (*domain.Product, error) {
	return c.inner.ResolveProduct(ctx, identifier)
}
