package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
	"github.com/custodia-labs/placerank/internal/logger"
	"github.com/custodia-labs/placerank/internal/metrics"
	"github.com/custodia-labs/placerank/internal/parsers/graph"
)

// Ensure RankService implements the interface.
var _ driving.RankSearcher = (*RankService)(nil)

// RankService finds the search rank of a listing for keywords.
type RankService struct {
	pages     driven.SearchPageSource
	extractor *graph.Extractor
	history   driven.RankHistoryStore
	search    domain.SearchSettings
	batch     domain.BatchSettings
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRankService creates a new rank service.
// A nil extractor uses the default selectors.
func NewRankService(
	pages driven.SearchPageSource,
	extractor *graph.Extractor,
	search domain.SearchSettings,
	batch domain.BatchSettings,
) *RankService {
	if extractor == nil {
		extractor = graph.NewExtractor(graph.Config{})
	}
	if batch.Concurrency <= 0 {
		batch.Concurrency = domain.DefaultBatchConcurrency
	}
	if batch.WindowDelay < 0 {
		batch.WindowDelay = 0
	}
	return &RankService{
		pages:     pages,
		extractor: extractor,
		search:    search,
		batch:     batch,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     sleepContext,
	}
}

// SetHistoryStore enables rank history persistence.
func (s *RankService) SetHistoryStore(store driven.RankHistoryStore) {
	s.history = store
}

// FindRank pages through the search results for keyword until targetID
// appears. Pages are fetched in order and the scan stops at the first
// match or at the first empty page.
func (s *RankService) FindRank(ctx context.Context, keyword, targetID string) (domain.RankResult, error) {
	result, err := s.findRank(ctx, keyword, targetID)
	metrics.ObserveRank(result.Found(), err, result.PagesScanned)
	if err != nil {
		return result, err
	}
	s.record(ctx, "", result)
	return result, nil
}

func (s *RankService) findRank(ctx context.Context, keyword, targetID string) (domain.RankResult, error) {
	keyword = strings.TrimSpace(keyword)
	targetID = strings.TrimSpace(targetID)
	result := domain.RankResult{Keyword: keyword, TargetID: targetID}

	if keyword == "" {
		return result, domain.ErrEmptyKeyword
	}
	if targetID == "" {
		return result, domain.ErrEmptyTarget
	}
	if err := s.search.Validate(); err != nil {
		return result, err
	}

	logger.Section("Rank Search")
	logger.Debug("Keyword: %q, target: %s, max pages: %d", keyword, targetID, s.search.MaxPages)

	rpp := s.search.ResultsPerPage
	for page := 1; page <= s.search.MaxPages; page++ {
		p, err := s.pages.SearchPage(ctx, keyword, page, rpp)
		result.PagesScanned = page
		if err != nil {
			return result, fmt.Errorf("search page %d: %w", page, err)
		}
		if !p.HasState() {
			return result, fmt.Errorf("search page %d: %w", page, domain.ErrNoEmbeddedState)
		}

		g, err := graph.Parse(p.State)
		if err != nil {
			return result, fmt.Errorf("search page %d: %w", page, err)
		}
		parsed, gaps := s.extractor.ParseSearchPage(g)
		if len(gaps) > 0 {
			logger.Debug("Page %d: %d parse gaps", page, len(gaps))
		}
		if parsed.Total > 0 {
			result.TotalResults = parsed.Total
		}

		if len(parsed.Items) == 0 {
			logger.Debug("Page %d has no results, search exhausted", page)
			break
		}

		for _, item := range parsed.Items {
			if item.ID != targetID {
				continue
			}
			rank := domain.GlobalRank(page, rpp, item.Position)
			result.Rank = &rank
			result.Page = page
			result.Position = item.Position
			result.TotalResultsOnPage = len(parsed.Items)
			result.ListingName = item.Name
			result.Category = item.Category
			result.Rating = item.Rating
			result.ReviewCount = item.ReviewCount
			result.FoundAt = s.now()
			logger.Info("Found %s for %q at rank %d (page %d, position %d)",
				targetID, keyword, rank, page, item.Position)
			return result, nil
		}
	}

	result.FoundAt = s.now()
	logger.Info("%s not found for %q within %d pages", targetID, keyword, result.PagesScanned)
	return result, nil
}

// FindRankBatch searches every keyword in windows of opts.Concurrency.
// Searches already in flight when ctx is cancelled run to completion;
// the remaining windows are skipped and ctx's error is returned with
// the partial report.
func (s *RankService) FindRankBatch(
	ctx context.Context, keywords []string, targetID string, opts driving.BatchOptions,
) (*driving.BatchReport, error) {
	if opts.Concurrency < 0 || opts.WindowDelay < 0 {
		return nil, fmt.Errorf("batch options must not be negative: %w", domain.ErrInvalidConfig)
	}
	if err := s.search.Validate(); err != nil {
		return nil, err
	}
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = s.batch.Concurrency
	}
	delay := opts.WindowDelay
	if delay == 0 {
		delay = s.batch.WindowDelay
	}

	report := &driving.BatchReport{
		BatchID:   uuid.NewString(),
		TargetID:  strings.TrimSpace(targetID),
		Outcomes:  make([]domain.RankOutcome, 0, len(keywords)),
		StartedAt: s.now(),
	}

	logger.Section("Batch Rank Search")
	logger.Debug("Batch %s: %d keywords, window %d, delay %s",
		report.BatchID, len(keywords), concurrency, delay)

	var cancelErr error
	for start := 0; start < len(keywords); start += concurrency {
		if start > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				cancelErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}

		end := min(start+concurrency, len(keywords))
		report.Outcomes = append(report.Outcomes, s.runWindow(ctx, report.BatchID, keywords[start:end], targetID)...)
	}

	report.Summary = domain.Summarize(report.Outcomes)
	report.FinishedAt = s.now()
	logger.Info("Batch %s: %d found, %d not found, %d failed",
		report.BatchID, report.Summary.Found, report.Summary.NotFound, report.Summary.Failed)

	if cancelErr != nil {
		return report, fmt.Errorf("batch stopped after %d of %d keywords: %w",
			len(report.Outcomes), len(keywords), cancelErr)
	}
	return report, nil
}

// runWindow searches one window of keywords concurrently and returns the
// outcomes in keyword order.
func (s *RankService) runWindow(ctx context.Context, batchID string, keywords []string, targetID string) []domain.RankOutcome {
	inflight := context.WithoutCancel(ctx)
	outcomes := make([]domain.RankOutcome, len(keywords))

	var wg sync.WaitGroup
	for i, kw := range keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()
			result, err := s.findRank(inflight, kw, targetID)
			metrics.ObserveRank(result.Found(), err, result.PagesScanned)
			if err != nil {
				logger.Warn("Keyword %q failed: %v", kw, err)
				outcomes[i] = domain.RankOutcome{Keyword: kw, Err: err, Error: err.Error()}
				return
			}
			s.record(inflight, batchID, result)
			outcomes[i] = domain.RankOutcome{Keyword: kw, Result: &result}
		}(i, kw)
	}
	wg.Wait()
	return outcomes
}

// record saves a result to history. Failures are logged only.
func (s *RankService) record(ctx context.Context, batchID string, result domain.RankResult) {
	if s.history == nil {
		return
	}
	if err := s.history.SaveRank(ctx, batchID, result); err != nil {
		logger.Warn("Failed to save rank history for %q: %v", result.Keyword, err)
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
