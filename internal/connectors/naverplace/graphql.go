package naverplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
	"github.com/custodia-labs/placerank/internal/logger"
	"github.com/custodia-labs/placerank/internal/metrics"
	"github.com/custodia-labs/placerank/internal/resilience"
)

// Query operations.
const (
	OpVotedKeywords = "getVisitorReviewStats"
	OpReviewStats   = "getReviewStatistics"
)

const votedKeywordsQuery = `query getVisitorReviewStats($input: VisitorReviewStatsInput!) {
  visitorReviewStats(input: $input) {
    id
    name
    votedKeywords { keyword count iconUrl }
    visitPurposes { name count }
  }
}`

const reviewStatsQuery = `query getReviewStatistics($input: ReviewStatisticsInput!) {
  reviewStatistics(input: $input) {
    totalCount
    visitorReviewCount
    blogReviewCount
    averageScore
    scoreDistribution { score count }
  }
}`

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

type queryRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type queryResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// SupplementaryFetcher issues structured queries for data the embedded
// graph does not reliably carry.
type SupplementaryFetcher struct {
	cfg     Config
	http    *http.Client
	exec    *resilience.Executor
	limiter *RateLimiter
}

// Verify interface compliance.
var _ driven.SupplementarySource = (*SupplementaryFetcher)(nil)

// NewSupplementaryFetcher creates a query client. A nil httpClient uses
// http.DefaultClient; breaker may be nil.
func NewSupplementaryFetcher(cfg Config, httpClient *http.Client, breaker *resilience.Breaker) *SupplementaryFetcher {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SupplementaryFetcher{
		cfg:     cfg,
		http:    httpClient,
		exec:    resilience.NewExecutor(breaker, retryPolicy(cfg.QueryRetry)).OnRetry(retryHook(KindQuery)),
		limiter: NewRateLimiter(cfg.MinRequestSpacing),
	}
}

// FetchVotedKeywords implements driven.SupplementarySource.
func (f *SupplementaryFetcher) FetchVotedKeywords(ctx context.Context, listingID string) domain.VotedKeywordTally {
	tally := domain.VotedKeywordTally{
		VotedKeywords: []domain.VotedKeyword{},
		VisitPurposes: []domain.VisitPurpose{},
	}

	var data struct {
		VisitorReviewStats *struct {
			VotedKeywords []domain.VotedKeyword `json:"votedKeywords"`
			VisitPurposes []domain.VisitPurpose `json:"visitPurposes"`
		} `json:"visitorReviewStats"`
	}
	vars := map[string]any{"input": map[string]any{
		"businessId":   listingID,
		"businessType": f.cfg.BusinessType,
	}}
	if err := f.Query(ctx, OpVotedKeywords, votedKeywordsQuery, vars, &data); err != nil {
		logger.Warn("Voted keywords unavailable for %s: %v", listingID, err)
		return tally
	}
	if data.VisitorReviewStats == nil {
		return tally
	}

	if kws := data.VisitorReviewStats.VotedKeywords; len(kws) > 0 {
		tally.VotedKeywords = kws
	}
	if purposes := data.VisitorReviewStats.VisitPurposes; len(purposes) > 0 {
		tally.VisitPurposes = purposes
	}
	logger.Debug("Fetched %d voted keywords, %d visit purposes for %s",
		len(tally.VotedKeywords), len(tally.VisitPurposes), listingID)
	return tally
}

// FetchReviewStats implements driven.SupplementarySource.
func (f *SupplementaryFetcher) FetchReviewStats(ctx context.Context, listingID string) *domain.ReviewStats {
	var data struct {
		ReviewStatistics *struct {
			TotalCount         int     `json:"totalCount"`
			VisitorReviewCount int     `json:"visitorReviewCount"`
			BlogReviewCount    int     `json:"blogReviewCount"`
			AverageScore       float64 `json:"averageScore"`
			ScoreDistribution  []struct {
				Score json.Number `json:"score"`
				Count int         `json:"count"`
			} `json:"scoreDistribution"`
		} `json:"reviewStatistics"`
	}
	vars := map[string]any{"input": map[string]any{"businessId": listingID}}
	if err := f.Query(ctx, OpReviewStats, reviewStatsQuery, vars, &data); err != nil {
		logger.Warn("Review statistics unavailable for %s: %v", listingID, err)
		return nil
	}
	rs := data.ReviewStatistics
	if rs == nil {
		return nil
	}

	stats := &domain.ReviewStats{
		Total:        rs.TotalCount,
		VisitorCount: rs.VisitorReviewCount,
		BlogCount:    rs.BlogReviewCount,
		AverageScore: rs.AverageScore,
	}
	if len(rs.ScoreDistribution) > 0 {
		stats.ScoreDistribution = make(map[string]int, len(rs.ScoreDistribution))
		for _, d := range rs.ScoreDistribution {
			stats.ScoreDistribution[d.Score.String()] = d.Count
		}
	}
	return stats
}

// Query posts one structured query and decodes its data into out.
// A response with an errors array yields *QueryError and is not retried.
func (f *SupplementaryFetcher) Query(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(queryRequest{OperationName: operation, Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("naverplace: encode query %s: %w", operation, err)
	}

	return f.exec.Execute(ctx, resilience.WithTimeout(f.cfg.QueryTimeout, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		start := time.Now()
		err := f.post(ctx, operation, body, out)
		metrics.ObserveFetch(KindQuery, err, time.Since(start))
		return err
	}))
}

func (f *SupplementaryFetcher) post(ctx context.Context, operation string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.QueryEndpoint, bytes.NewReader(body))
	if err != nil {
		return resilience.Permanent(fmt.Errorf("naverplace: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", f.cfg.BaseURL)
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("naverplace: query %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := ParseRetryAfter(resp.Header)
		f.limiter.Pause(wait)
		return &RateLimitError{URL: f.cfg.QueryEndpoint, RetryAfter: wait}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(msg), URL: f.cfg.QueryEndpoint}
		if !apiErr.Retryable() {
			return resilience.Permanent(apiErr)
		}
		return apiErr
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return resilience.Permanent(fmt.Errorf("naverplace: decode %s response: %w", operation, err))
	}
	if len(qr.Errors) > 0 {
		qErr := &QueryError{Operation: operation}
		for _, e := range qr.Errors {
			qErr.Messages = append(qErr.Messages, e.Message)
		}
		return resilience.Permanent(qErr)
	}
	if out == nil || len(qr.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(qr.Data, out); err != nil {
		return resilience.Permanent(fmt.Errorf("naverplace: decode %s data: %w", operation, err))
	}
	return nil
}
