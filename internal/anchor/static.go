package anchor

import (
	"context"
	"sync"

	"medverify/backend/internal/domain"
	"medverify/backend/internal/identity"
)

// StaticResolver serves authority data from memory. It backs dev/demo mode
// when no resolver endpoint is configured, and tests.
type StaticResolver struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	batches  map[string]domain.BatchData
}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		products: make(map[string]domain.Product),
		batches:  make(map[string]domain.BatchData),
	}
}

// NewSeededStatic registers one demo product/batch pair so a fresh dev
// deployment verifies something out of the box.
func NewSeededStatic(networkName string) *StaticResolver {
	s := NewStaticResolver()
	const gtin = "09876543210982"
	s.AddProduct(networkName, domain.Product{
		GTIN:                        gtin,
		Name:                        "Demodrug 20mg",
		Description:                 "Demo product seeded for dev mode",
		ShowEPIOnUnknownBatchNumber: true,
	})
	s.AddBatch(networkName, gtin, domain.BatchData{
		BatchNumber:           "B2400X",
		Expiry:                "270600",
		DecommissionedSerials: []string{"SN-DECOM-1"},
		RecalledSerials:       []string{"SN-RECALL-1"},
	})
	return s
}

func (s *StaticResolver) AddProduct(networkName string, product domain.Product) {
	id := identity.Identity{NetworkName: networkName, GTIN: product.GTIN}
	s.mu.Lock()
	s.products[id.String()] = product
	s.mu.Unlock()
}

func (s *StaticResolver) AddBatch(networkName string, gtin string, batch domain.BatchData) {
	id := identity.Identity{NetworkName: networkName, GTIN: gtin, BatchNumber: batch.BatchNumber}
	s.mu.Lock()
	s.batches[id.String()] = batch
	s.mu.Unlock()
}

func (s *StaticResolver) Exists(_ context.Context, identifier string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.batches[identifier]; ok {
		return true
	}
	_, ok := s.products[identifier]
	return ok
}

func (s *StaticResolver) ResolveBatch(_ context.Context, identifier string) (*domain.BatchData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	copied := batch
	return &copied, nil
}

func (s *StaticResolver) ResolveProduct(_ context.Context, identifier string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	copied := product
	return &copied, nil
}
