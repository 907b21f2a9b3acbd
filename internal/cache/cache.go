package cache

import (
	"context"
	"time"

	"medverify/backend/internal/domain"
)

// AnchorCache shortcuts repeated anchor-network lookups for the same
// identifier. A miss is never an error condition for the caller.
type AnchorCache interface {
	GetExists(ctx context.Context, identifier string) (exists bool, found bool, err error)
	SetExists(ctx context.Context, identifier string, exists bool, ttl time.Duration) error
	GetBatch(ctx context.Context, identifier string) (*domain.BatchData, bool, error)
	SetBatch(ctx context.Context, identifier string, batch *domain.BatchData, ttl time.Duration) error
}

type NoopAnchorCache struct{}

func (NoopAnchorCache) GetExists(_ context.Context, _ string) (bool, bool, error) {
	return false, false, nil
}

func (NoopAnchorCache) SetExists(_ context.Context, _ string, _ bool, _ time.Duration) error {
	return nil
}

func (NoopAnchorCache) GetBatch(_ context.Context, _ string) (*domain.BatchData, bool, error) {
	return nil, false, nil
}

func (NoopAnchorCache) SetBatch(_ context.Context, _ string, _ *domain.BatchData, _ time.Duration) error {
	return nil
}
