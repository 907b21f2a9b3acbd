package anchor

import (
	"context"
	"sync"
	"testing"
	"time"

	"medverify/backend/internal/cache"
	"medverify/backend/internal/domain"
)

// mapCache is an in-process AnchorCache without expiry, enough to observe
// whether the cached resolver consults the cache before the inner resolver.
type mapCache struct {
	mu     sync.Mutex
	exists map[string]bool
	batch  map[string]*domain.BatchData
}

func newMapCache() *mapCache {
	return &mapCache{exists: make(map[string]bool), batch: make(map[string]*domain.BatchData)}
}

func (c *mapCache) GetExists(_ context.Context, id string) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.exists[id]
	return v, ok, nil
}

func (c *mapCache) SetExists(_ context.Context, id string, exists bool, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exists[id] = exists
	return nil
}

func (c *mapCache) GetBatch(_ context.Context, id string) (*domain.BatchData, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.batch[id]
	return v, ok, nil
}

func (c *mapCache) SetBatch(_ context.Context, id string, batch *domain.BatchData, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch[id] = batch
	return nil
}

// countingResolver counts calls that reach the inner resolver.
type countingResolver struct {
	*StaticResolver
	existsCalls int
	batchCalls  int
}

func (r *countingResolver) Exists(ctx context.Context, id string) bool {
	r.existsCalls++
	return r.StaticResolver.Exists(ctx, id)
}

func (r *countingResolver) ResolveBatch(ctx context.Context, id string) (*domain.BatchData, error) {
	r.batchCalls++
	return r.StaticResolver.ResolveBatch(ctx, id)
}

func TestCachedResolverShortcutsExists(t *testing.T) {
	inner := &countingResolver{StaticResolver: NewSeededStatic("epipoc")}
	resolver := NewCachedResolver(inner, newMapCache(), time.Minute)
	ctx := context.Background()

	const id = "ssi:gtin:epipoc:09876543210982:B2400X"
	for i := 0; i < 3; i++ {
		if !resolver.Exists(ctx, id) {
			t.Fatalf("expected seeded anchor to exist")
		}
	}
	if inner.existsCalls != 1 {
		t.Fatalf("expected one inner existence probe, got %d", inner.existsCalls)
	}
}

func TestCachedResolverCachesNegativeExistence(t *testing.T) {
	inner := &countingResolver{StaticResolver: NewSeededStatic("epipoc")}
	resolver := NewCachedResolver(inner, newMapCache(), time.Minute)
	ctx := context.Background()

	const id = "ssi:gtin:epipoc:00000000000000"
	for i := 0; i < 3; i++ {
		if resolver.Exists(ctx, id) {
			t.Fatalf("unexpected existence for unknown anchor")
		}
	}
	if inner.existsCalls != 1 {
		t.Fatalf("expected the negative answer to be cached, got %d probes", inner.existsCalls)
	}
}

func TestCachedResolverShortcutsBatch(t *testing.T) {
	inner := &countingResolver{StaticResolver: NewSeededStatic("epipoc")}
	resolver := NewCachedResolver(inner, newMapCache(), time.Minute)
	ctx := context.Background()

	const id = "ssi:gtin:epipoc:09876543210982:B2400X"
	for i := 0; i < 3; i++ {
		batch, err := resolver.ResolveBatch(ctx, id)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if batch.BatchNumber != "B2400X" {
			t.Fatalf("unexpected batch %+v", batch)
		}
	}
	if inner.batchCalls != 1 {
		t.Fatalf("expected one inner batch lookup, got %d", inner.batchCalls)
	}
}

func TestCachedResolverDoesNotCacheBatchErrors(t *testing.T) {
	inner := &countingResolver{StaticResolver: NewSeededStatic("epipoc")}
	resolver := NewCachedResolver(inner, newMapCache(), time.Minute)
	ctx := context.Background()

	const id = "ssi:gtin:epipoc:09876543210982:NOPE"
	for i := 0; i < 2; i++ {
		if _, err := resolver.ResolveBatch(ctx, id); err == nil {
			t.Fatalf("expected error for unknown batch")
		}
	}
	if inner.batchCalls != 2 {
		t.Fatalf("errors must not be cached, got %d lookups", inner.batchCalls)
	}
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	resolver := NewCachedResolver(NewSeededStatic("epipoc"), cache.NoopAnchorCache{}, time.Minute)
	if !resolver.Exists(context.Background(), "ssi:gtin:epipoc:09876543210982") {
		t.Fatalf("noop cache must fall through to the inner resolver")
	}
}
