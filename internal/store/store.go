package store

import (
	"context"
	"errors"

	"medverify/backend/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Repository owns the scan history. Records are append-only: there is no
// update or delete, and InsertScanIfAbsent is the only write.
type Repository interface {
	// GetScan returns the record for the per-unit primary key, or ErrNotFound.
	GetScan(ctx context.Context, primaryKey string) (*domain.HistoryRecord, error)

	// InsertScanIfAbsent atomically commits the record unless one already
	// exists for its primary key, in which case the pre-existing record is
	// returned unchanged and the candidate is discarded. The check-then-set is
	// atomic per key even across independent pipeline instances.
	InsertScanIfAbsent(ctx context.Context, record domain.HistoryRecord) (*domain.HistoryRecord, error)

	// ListScans returns up to limit records, newest first.
	ListScans(ctx context.Context, limit int) ([]domain.HistoryRecord, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
}
