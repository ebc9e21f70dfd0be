package driven

import (
	"context"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// PageFetcher loads a remote page.
// Implementations own navigation, cookies and rendering; callers only
// consume the resulting HTML and embedded graph blob.
type PageFetcher interface {
	// Fetch loads url and returns the page.
	// Returns an error on timeout or connection failure. A page without an
	// embedded graph is not an error at this layer.
	Fetch(ctx context.Context, url string) (*domain.Page, error)

	// Close releases browser sessions or idle connections.
	Close() error
}

// SearchPageSource fetches keyword search result pages.
type SearchPageSource interface {
	// SearchPage fetches the 1-based page of results for keyword.
	// resultsPerPage is used to compute the result offset.
	SearchPage(ctx context.Context, keyword string, page, resultsPerPage int) (*domain.Page, error)
}

// DetailPageSource fetches listing detail pages.
type DetailPageSource interface {
	// DetailPage fetches the home page of a listing.
	DetailPage(ctx context.Context, listingID string) (*domain.Page, error)
}

// SupplementarySource issues structured enrichment queries.
// Both methods degrade to empty results instead of failing.
type SupplementarySource interface {
	// FetchVotedKeywords returns the voted keyword and visit purpose tallies.
	// Returns an empty tally when the query fails.
	FetchVotedKeywords(ctx context.Context, listingID string) domain.VotedKeywordTally

	// FetchReviewStats returns review statistics, or nil when unavailable.
	FetchReviewStats(ctx context.Context, listingID string) *domain.ReviewStats
}
