package driven

import (
	"context"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// RankHistoryStore persists rank search results.
type RankHistoryStore interface {
	// SaveRank appends a rank result. batchID may be empty for single searches.
	SaveRank(ctx context.Context, batchID string, result domain.RankResult) error

	// RankHistory returns the most recent results for a target, newest first.
	// An empty keyword matches every keyword. limit <= 0 means no limit.
	RankHistory(ctx context.Context, targetID, keyword string, limit int) ([]domain.RankResult, error)

	// BatchResults returns the results saved under batchID in insertion order.
	BatchResults(ctx context.Context, batchID string) ([]domain.RankResult, error)
}

// ListingStore persists crawled listing records.
type ListingStore interface {
	// SaveListing stores the record, replacing any earlier snapshot.
	SaveListing(ctx context.Context, record domain.ListingRecord) error

	// GetListing retrieves the latest snapshot.
	// Returns domain.ErrNotFound if the listing was never crawled.
	GetListing(ctx context.Context, id string) (*domain.ListingRecord, error)
}
