package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/placerank/internal/classifier"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
	"github.com/custodia-labs/placerank/internal/logger"
	"github.com/custodia-labs/placerank/internal/merger"
	"github.com/custodia-labs/placerank/internal/metrics"
	"github.com/custodia-labs/placerank/internal/parsers/address"
	"github.com/custodia-labs/placerank/internal/parsers/graph"
)

// Ensure ListingService implements the interface.
var _ driving.ListingCrawler = (*ListingService)(nil)

// ListingService crawls listing detail pages into merged records.
type ListingService struct {
	pages         driven.DetailPageSource
	supplementary driven.SupplementarySource
	extractor     *graph.Extractor
	addresses     *address.Parser
	classifier    *classifier.Classifier
	store         driven.ListingStore
	now           func() time.Time
}

// NewListingService creates a new listing service.
// The supplementary source is optional (can be nil). Nil parsers use the
// default vocabulary.
func NewListingService(
	pages driven.DetailPageSource,
	supplementary driven.SupplementarySource,
	extractor *graph.Extractor,
	addresses *address.Parser,
	cls *classifier.Classifier,
) *ListingService {
	if extractor == nil {
		extractor = graph.NewExtractor(graph.Config{})
	}
	if addresses == nil {
		addresses = address.NewParser(nil)
	}
	if cls == nil {
		cls = classifier.New(nil)
	}
	return &ListingService{
		pages:         pages,
		supplementary: supplementary,
		extractor:     extractor,
		addresses:     addresses,
		classifier:    cls,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetListingStore enables listing snapshot persistence.
func (s *ListingService) SetListingStore(store driven.ListingStore) {
	s.store = store
}

// Crawl fetches the listing's detail page and builds the merged record.
func (s *ListingService) Crawl(ctx context.Context, listingID string) (*driving.CrawlReport, error) {
	report, err := s.crawl(ctx, listingID)
	if err != nil {
		metrics.ObserveCrawl(err, 0, 0)
		return nil, err
	}
	metrics.ObserveCrawl(nil, report.Record.Completeness, report.ParseGaps)
	return report, nil
}

func (s *ListingService) crawl(ctx context.Context, listingID string) (*driving.CrawlReport, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, domain.ErrEmptyTarget
	}

	logger.Section("Listing Crawl")
	logger.Debug("Listing: %s", listingID)

	page, err := s.pages.DetailPage(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("detail page %s: %w", listingID, err)
	}
	if !page.HasState() {
		return nil, fmt.Errorf("detail page %s: %w", listingID, domain.ErrNoEmbeddedState)
	}
	g, err := graph.Parse(page.State)
	if err != nil {
		return nil, fmt.Errorf("detail page %s: %w", listingID, err)
	}
	logger.Debug("Graph holds %d entities", g.Len())

	extraction := s.extractor.ExtractListing(g, listingID)
	features := s.extractor.ExtractRankingFeatures(g, listingID)
	supp := s.fetchSupplementary(ctx, listingID)

	extracted := extraction.Record
	extracted.CrawledAt = s.now()
	rec := merger.Merge(extracted, supp, features)
	rec.Address = s.addresses.Parse(rec.Basic.Address)
	rec.Keywords = s.classifier.Classify(rec, rec.Address)

	validation := merger.Validate(rec)
	for _, e := range validation.Errors {
		logger.Warn("Listing %s: %s", listingID, e)
	}
	for _, w := range validation.Warnings {
		logger.Debug("Listing %s: %s", listingID, w)
	}

	if s.store != nil {
		if err := s.store.SaveListing(ctx, rec); err != nil {
			logger.Warn("Failed to save listing %s: %v", listingID, err)
		}
	}

	logger.Info("Crawled %s (%s): completeness %d%%, %d parse gaps",
		listingID, rec.Basic.Name, rec.Completeness, len(extraction.Gaps))

	return &driving.CrawlReport{
		Record:     rec,
		Validation: validation,
		Stats:      classifier.Statistics(rec.Keywords),
		ParseGaps:  len(extraction.Gaps),
	}, nil
}

// fetchSupplementary runs both structured queries concurrently. Each
// degrades to an empty result on its own.
func (s *ListingService) fetchSupplementary(ctx context.Context, listingID string) domain.SupplementaryData {
	supp := domain.SupplementaryData{
		Voted: domain.VotedKeywordTally{
			VotedKeywords: []domain.VotedKeyword{},
			VisitPurposes: []domain.VisitPurpose{},
		},
	}
	if s.supplementary == nil {
		return supp
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		supp.Voted = s.supplementary.FetchVotedKeywords(ctx, listingID)
	}()
	go func() {
		defer wg.Done()
		supp.ReviewStats = s.supplementary.FetchReviewStats(ctx, listingID)
	}()
	wg.Wait()

	logger.Debug("Supplementary: %d voted keywords, %d visit purposes, review stats %t",
		len(supp.Voted.VotedKeywords), len(supp.Voted.VisitPurposes), supp.ReviewStats != nil)
	return supp
}
