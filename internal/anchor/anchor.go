// Package anchor consumes the authority network: a pure existence oracle for
// anchors plus read-only batch and product authority data.
package anchor

import (
	"context"
	"errors"

	"medverify/backend/internal/domain"
)

// ErrNotFound reports that the network has no record for the identifier.
var ErrNotFound = errors.New("anchor record not found")

// Resolver is the consumed interface of the anchor network.
//
// Exists never raises past this boundary: any lookup failure (network error,
// unknown identifier) is coerced to false. Callers must treat false as "treat
// as absent", not as a hard error — the system cannot distinguish an unknown
// identifier from a transient failure at this layer.
type Resolver interface {
	Exists(ctx context.Context, identifier string) bool
	ResolveBatch(ctx context.Context, identifier string) (*domain.BatchData, error)
	ResolveProduct(ctx context.Context, identifier string) (*domain.Product, error)
}
