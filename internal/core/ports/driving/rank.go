package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// RankSearcher finds where a listing ranks for search keywords.
type RankSearcher interface {
	// FindRank pages through search results for keyword until targetID is
	// found, results run out or the search depth is exhausted.
	// Not found is reported through RankResult.Rank == nil, not an error.
	FindRank(ctx context.Context, keyword, targetID string) (domain.RankResult, error)

	// FindRankBatch runs FindRank for every keyword in concurrency windows.
	// Per-keyword failures are captured in the report. The returned error is
	// non-nil only for invalid options or cancellation between windows.
	FindRankBatch(ctx context.Context, keywords []string, targetID string, opts BatchOptions) (*BatchReport, error)
}

// BatchOptions configure one batch call.
type BatchOptions struct {
	// Concurrency is the window size. Zero uses the configured default.
	Concurrency int

	// WindowDelay is the pause between windows. Zero uses the configured default.
	WindowDelay time.Duration
}

// BatchReport is the result of a batch rank search.
type BatchReport struct {
	// BatchID identifies the batch in rank history.
	BatchID string `json:"batchId"`

	// TargetID is the listing searched for.
	TargetID string `json:"targetId"`

	// Outcomes are in keyword order. Keywords skipped due to cancellation
	// are absent.
	Outcomes []domain.RankOutcome `json:"outcomes"`

	// Summary counts outcomes.
	Summary domain.BatchSummary `json:"summary"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RankHistory reads saved rank results.
type RankHistory interface {
	// RankHistory returns the most recent results for a target, newest first.
	// An empty keyword matches every keyword. limit <= 0 means no limit.
	RankHistory(ctx context.Context, targetID, keyword string, limit int) ([]domain.RankResult, error)

	// BatchResults returns the results of one batch in the order they were saved.
	BatchResults(ctx context.Context, batchID string) ([]domain.RankResult, error)
}
