package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
)

// Ensure ListingStore implements the interface.
var _ driven.ListingStore = (*ListingStore)(nil)

// ListingStore is an in-memory implementation of driven.ListingStore.
type ListingStore struct {
	mu       sync.RWMutex
	listings map[string]domain.ListingRecord
}

// NewListingStore creates a new in-memory listing store.
func NewListingStore() *ListingStore {
	return &ListingStore{
		listings: make(map[string]domain.ListingRecord),
	}
}

// SaveListing stores or replaces a listing snapshot.
func (s *ListingStore) SaveListing(_ context.Context, record domain.ListingRecord) error {
	if record.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[record.ID] = record
	return nil
}

// GetListing retrieves a listing snapshot by ID.
func (s *ListingStore) GetListing(_ context.Context, id string) (*domain.ListingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}
