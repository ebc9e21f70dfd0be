package driving

import (
	"context"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// ListingCrawler builds merged listing records.
type ListingCrawler interface {
	// Crawl fetches, extracts, enriches, classifies and validates a listing.
	// Only a failure to fetch the detail page is returned as an error;
	// missing fields lower the completeness score instead.
	Crawl(ctx context.Context, listingID string) (*CrawlReport, error)
}

// CrawlReport is the result of a listing crawl.
type CrawlReport struct {
	Record     domain.ListingRecord    `json:"record"`
	Validation domain.ValidationReport `json:"validation"`
	Stats      domain.KeywordStats     `json:"keywordStats"`

	// ParseGaps counts fields that were absent from the embedded graph.
	ParseGaps int `json:"parseGaps"`
}
