package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/placerank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
)

// --- Mock implementations ---

// searchCall records one SearchPage invocation.
type searchCall struct {
	keyword string
	page    int
	rpp     int
}

// mockSearchPages implements driven.SearchPageSource for testing.
// pages maps a keyword to the listing ids shown on each page.
type mockSearchPages struct {
	mu     sync.Mutex
	pages  map[string][][]string
	total  int
	errs   map[string]error
	onCall func(ctx context.Context, keyword string)
	calls  []searchCall
}

func newMockSearchPages() *mockSearchPages {
	return &mockSearchPages{
		pages: make(map[string][][]string),
		errs:  make(map[string]error),
	}
}

func (m *mockSearchPages) SearchPage(ctx context.Context, keyword string, page, rpp int) (*domain.Page, error) {
	if m.onCall != nil {
		m.onCall(ctx, keyword)
	}

	m.mu.Lock()
	m.calls = append(m.calls, searchCall{keyword: keyword, page: page, rpp: rpp})
	err := m.errs[keyword]
	pages := m.pages[keyword]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var ids []string
	if page-1 < len(pages) {
		ids = pages[page-1]
	}
	return &domain.Page{StatusCode: 200, State: searchState(m.total, ids...)}, nil
}

func (m *mockSearchPages) callCount(keyword string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.keyword == keyword {
			n++
		}
	}
	return n
}

// searchState builds a search page graph listing ids in order.
func searchState(total int, ids ...string) []byte {
	entries := make(map[string]any)
	refs := make([]any, 0, len(ids))
	for _, id := range ids {
		key := "RestaurantListSummary:" + id
		entries[key] = map[string]any{
			"id":                 id,
			"name":               "place " + id,
			"category":           "한식",
			"visitorReviewScore": 4.5,
			"visitorReviewCount": 120,
		}
		refs = append(refs, map[string]any{"__ref": key})
	}
	entries["ROOT_QUERY"] = map[string]any{
		`restaurantList({"input":{}})`: map[string]any{"total": total, "items": refs},
	}
	data, err := json.Marshal(entries)
	if err != nil {
		panic(err)
	}
	return data
}

// fillerPage returns n ids that never match a target.
func fillerPage(page, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("9%02d%02d", page, i)
	}
	return ids
}

func testSearchSettings(maxPages int) domain.SearchSettings {
	s := domain.DefaultSearchSettings()
	s.MaxPages = maxPages
	s.ResultsPerPage = 15
	return s
}

func newTestRankService(pages *mockSearchPages, maxPages int) *RankService {
	svc := NewRankService(pages, nil, testSearchSettings(maxPages), domain.BatchSettings{
		Concurrency: 2,
		WindowDelay: time.Millisecond,
	})
	svc.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return svc
}

// ==================== FindRank Tests ====================

func TestNewRankService_Defaults(t *testing.T) {
	svc := NewRankService(newMockSearchPages(), nil, domain.DefaultSearchSettings(), domain.BatchSettings{})
	require.NotNil(t, svc)
	assert.NotNil(t, svc.extractor)
	assert.Equal(t, domain.DefaultBatchConcurrency, svc.batch.Concurrency)
}

func TestRankService_FindRank_NotFoundScansAllPages(t *testing.T) {
	pages := newMockSearchPages()
	for p := 1; p <= 6; p++ {
		pages.pages["강남역 맛집"] = append(pages.pages["강남역 맛집"], fillerPage(p, 15))
	}
	svc := newTestRankService(pages, 5)

	result, err := svc.FindRank(context.Background(), "강남역 맛집", "1716926393")

	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Nil(t, result.Rank)
	assert.Equal(t, 5, result.PagesScanned)
	assert.Equal(t, 5, pages.callCount("강남역 맛집"))
	for i, c := range pages.calls {
		assert.Equal(t, i+1, c.page)
		assert.Equal(t, 15, c.rpp)
	}
}

func TestRankService_FindRank_FoundShortCircuits(t *testing.T) {
	pages := newMockSearchPages()
	pages.total = 312
	page3 := fillerPage(3, 15)
	page3[4] = "1716926393"
	pages.pages["강남역 맛집"] = [][]string{fillerPage(1, 15), fillerPage(2, 15), page3, fillerPage(4, 15)}
	svc := newTestRankService(pages, 10)

	result, err := svc.FindRank(context.Background(), "강남역 맛집", "1716926393")

	require.NoError(t, err)
	require.True(t, result.Found())
	assert.Equal(t, 35, *result.Rank)
	assert.Equal(t, 3, result.Page)
	assert.Equal(t, 5, result.Position)
	assert.Equal(t, 15, result.TotalResultsOnPage)
	assert.Equal(t, 312, result.TotalResults)
	assert.Equal(t, 3, result.PagesScanned)
	assert.Equal(t, "place 1716926393", result.ListingName)
	assert.Equal(t, "한식", result.Category)
	assert.InDelta(t, 4.5, result.Rating, 0.001)
	assert.Equal(t, 120, result.ReviewCount)
	assert.False(t, result.FoundAt.IsZero())
	assert.Equal(t, 3, pages.callCount("강남역 맛집"))
}

func TestRankService_FindRank_ShortLastPageUsesConfiguredPageSize(t *testing.T) {
	pages := newMockSearchPages()
	pages.pages["kw"] = [][]string{fillerPage(1, 15), {"a", "target"}}
	svc := newTestRankService(pages, 5)

	result, err := svc.FindRank(context.Background(), "kw", "target")

	require.NoError(t, err)
	require.True(t, result.Found())
	assert.Equal(t, 17, *result.Rank)
	assert.Equal(t, 2, result.TotalResultsOnPage)
}

func TestRankService_FindRank_EmptyPageStopsEarly(t *testing.T) {
	pages := newMockSearchPages()
	pages.pages["kw"] = [][]string{fillerPage(1, 15)}
	svc := newTestRankService(pages, 10)

	result, err := svc.FindRank(context.Background(), "kw", "1716926393")

	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, 2, result.PagesScanned)
	assert.Equal(t, 2, pages.callCount("kw"))
}

func TestRankService_FindRank_RejectsSearchDepth(t *testing.T) {
	tests := []struct {
		name     string
		maxPages int
	}{
		{"zero", 0},
		{"above bound", 41},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := newMockSearchPages()
			svc := newTestRankService(pages, tt.maxPages)

			_, err := svc.FindRank(context.Background(), "kw", "1")

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Empty(t, pages.calls)
		})
	}
}

func TestRankService_FindRank_AcceptsBounds(t *testing.T) {
	for _, maxPages := range []int{domain.MinSearchPages, domain.MaxSearchPages} {
		pages := newMockSearchPages()
		svc := newTestRankService(pages, maxPages)

		_, err := svc.FindRank(context.Background(), "kw", "1")
		require.NoError(t, err)
	}
}

func TestRankService_FindRank_EmptyInput(t *testing.T) {
	pages := newMockSearchPages()
	svc := newTestRankService(pages, 5)

	_, err := svc.FindRank(context.Background(), "   ", "1")
	assert.ErrorIs(t, err, domain.ErrEmptyKeyword)

	_, err = svc.FindRank(context.Background(), "kw", "")
	assert.ErrorIs(t, err, domain.ErrEmptyTarget)

	assert.Empty(t, pages.calls)
}

func TestRankService_FindRank_FetchError(t *testing.T) {
	pages := newMockSearchPages()
	fetchErr := errors.New("connection refused")
	pages.errs["kw"] = fetchErr
	svc := newTestRankService(pages, 5)

	result, err := svc.FindRank(context.Background(), "kw", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	assert.Contains(t, err.Error(), "search page 1")
	assert.False(t, result.Found())
	assert.Equal(t, 1, pages.callCount("kw"))
}

// statelessPages returns pages without an embedded graph.
type statelessPages struct{}

func (statelessPages) SearchPage(_ context.Context, _ string, _, _ int) (*domain.Page, error) {
	return &domain.Page{StatusCode: 200, HTML: "<html></html>"}, nil
}

func TestRankService_FindRank_PageWithoutState(t *testing.T) {
	svc := NewRankService(statelessPages{}, nil, testSearchSettings(5), domain.BatchSettings{})

	_, err := svc.FindRank(context.Background(), "kw", "1")

	assert.ErrorIs(t, err, domain.ErrNoEmbeddedState)
}

func TestRankService_FindRank_SavesHistory(t *testing.T) {
	pages := newMockSearchPages()
	pages.pages["kw"] = [][]string{{"x", "1"}}
	svc := newTestRankService(pages, 5)
	history := memory.NewRankHistoryStore()
	svc.SetHistoryStore(history)

	_, err := svc.FindRank(context.Background(), "kw", "1")
	require.NoError(t, err)

	saved, err := history.RankHistory(context.Background(), "1", "kw", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 2, *saved[0].Rank)
}

// ==================== FindRankBatch Tests ====================

func TestRankService_FindRankBatch_IsolatesFailures(t *testing.T) {
	pages := newMockSearchPages()
	pages.pages["a"] = [][]string{{"1"}}
	pages.pages["b"] = [][]string{fillerPage(1, 3)}
	pages.errs["c"] = errors.New("bot detected")
	pages.pages["d"] = [][]string{{"x", "y", "1"}}
	pages.pages["e"] = [][]string{}
	svc := newTestRankService(pages, 3)
	history := memory.NewRankHistoryStore()
	svc.SetHistoryStore(history)

	report, err := svc.FindRankBatch(context.Background(), []string{"a", "b", "c", "d", "e"}, "1", driving.BatchOptions{})

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, "1", report.TargetID)
	require.Len(t, report.Outcomes, 5)

	for i, kw := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, kw, report.Outcomes[i].Keyword)
	}
	assert.Equal(t, 1, *report.Outcomes[0].Result.Rank)
	assert.False(t, report.Outcomes[1].Result.Found())
	assert.True(t, report.Outcomes[2].Failed())
	assert.Contains(t, report.Outcomes[2].Error, "bot detected")
	assert.Nil(t, report.Outcomes[2].Result)
	assert.Equal(t, 3, *report.Outcomes[3].Result.Rank)

	assert.Equal(t, domain.BatchSummary{Total: 5, Found: 2, NotFound: 2, Failed: 1}, report.Summary)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	saved, err := history.BatchResults(context.Background(), report.BatchID)
	require.NoError(t, err)
	assert.Len(t, saved, 4)
}

func TestRankService_FindRankBatch_WindowDelay(t *testing.T) {
	pages := newMockSearchPages()
	svc := newTestRankService(pages, 1)

	var mu sync.Mutex
	var delays []time.Duration
	svc.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		delays = append(delays, d)
		return nil
	}

	keywords := []string{"a", "b", "c", "d", "e"}
	report, err := svc.FindRankBatch(context.Background(), keywords, "1", driving.BatchOptions{
		Concurrency: 2,
		WindowDelay: 3 * time.Second,
	})

	require.NoError(t, err)
	assert.Len(t, report.Outcomes, 5)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, delays)
}

func TestRankService_FindRankBatch_DefaultOptions(t *testing.T) {
	pages := newMockSearchPages()
	svc := newTestRankService(pages, 1)

	var delays []time.Duration
	svc.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := svc.FindRankBatch(context.Background(), []string{"a", "b", "c"}, "1", driving.BatchOptions{})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Millisecond}, delays)
}

func TestRankService_FindRankBatch_CancelBetweenWindows(t *testing.T) {
	pages := newMockSearchPages()
	svc := newTestRankService(pages, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	report, err := svc.FindRankBatch(ctx, []string{"a", "b", "c", "d"}, "1", driving.BatchOptions{Concurrency: 2})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Len(t, report.Outcomes, 2)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 0, pages.callCount("c"))
	assert.Equal(t, 0, pages.callCount("d"))
}

func TestRankService_FindRankBatch_InFlightSurvivesCancel(t *testing.T) {
	pages := newMockSearchPages()
	pages.pages["a"] = [][]string{{"1"}}
	pages.pages["b"] = [][]string{{"2", "1"}}
	svc := newTestRankService(pages, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pages.onCall = func(context.Context, string) { cancel() }

	report, err := svc.FindRankBatch(ctx, []string{"a", "b", "c"}, "1", driving.BatchOptions{Concurrency: 2})

	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Outcomes, 2)
	assert.False(t, report.Outcomes[0].Failed())
	assert.False(t, report.Outcomes[1].Failed())
	assert.Equal(t, 2, report.Summary.Found)
	assert.Equal(t, 0, pages.callCount("c"))
}

func TestRankService_FindRankBatch_AlreadyCancelled(t *testing.T) {
	pages := newMockSearchPages()
	svc := newTestRankService(pages, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.FindRankBatch(ctx, []string{"a"}, "1", driving.BatchOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, pages.calls)
}

func TestRankService_FindRankBatch_InvalidOptions(t *testing.T) {
	svc := newTestRankService(newMockSearchPages(), 1)

	_, err := svc.FindRankBatch(context.Background(), []string{"a"}, "1", driving.BatchOptions{Concurrency: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = svc.FindRankBatch(context.Background(), []string{"a"}, "1", driving.BatchOptions{WindowDelay: -time.Second})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRankService_FindRankBatch_InvalidDepth(t *testing.T) {
	pages := newMockSearchPages()
	svc := newTestRankService(pages, 41)

	report, err := svc.FindRankBatch(context.Background(), []string{"a", "b"}, "1", driving.BatchOptions{})

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Nil(t, report)
	assert.Empty(t, pages.calls)
}

func TestRankService_FindRankBatch_Empty(t *testing.T) {
	svc := newTestRankService(newMockSearchPages(), 1)

	report, err := svc.FindRankBatch(context.Background(), nil, "1", driving.BatchOptions{})

	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Equal(t, domain.BatchSummary{}, report.Summary)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
