package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalRank(t *testing.T) {
	tests := []struct {
		page, rpp, pos, want int
	}{
		{1, 15, 1, 1},
		{1, 15, 15, 15},
		{2, 15, 1, 16},
		{3, 15, 5, 35},
		{40, 15, 15, 600},
		{2, 20, 3, 23},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GlobalRank(tt.page, tt.rpp, tt.pos))
	}
}

func TestRankResult_Found(t *testing.T) {
	rank := 7
	assert.True(t, RankResult{Rank: &rank}.Found())
	assert.False(t, RankResult{}.Found())
}

func TestSummarize(t *testing.T) {
	rank := 3
	outcomes := []RankOutcome{
		{Keyword: "a", Result: &RankResult{Rank: &rank}},
		{Keyword: "b", Result: &RankResult{}},
		{Keyword: "c", Result: &RankResult{}},
		{Keyword: "d", Err: errors.New("timeout")},
	}

	s := Summarize(outcomes)
	assert.Equal(t, BatchSummary{Total: 4, Found: 1, NotFound: 2, Failed: 1}, s)
	assert.Equal(t, BatchSummary{}, Summarize(nil))
}

func TestOrderOptions_HasAny(t *testing.T) {
	assert.False(t, OrderOptions{}.HasAny())
	assert.False(t, OrderOptions{Delivery: true}.HasAny())
	assert.True(t, OrderOptions{TableOrder: true}.HasAny())
	assert.True(t, OrderOptions{Pickup: true}.HasAny())
	assert.True(t, OrderOptions{BookingID: "b-1"}.HasAny())
}

func TestOperationTime_HasDetail(t *testing.T) {
	assert.False(t, OperationTime{Holidays: []string{"월"}}.HasDetail())
	assert.True(t, OperationTime{LastOrder: "21:00"}.HasDetail())
	assert.True(t, OperationTime{BreakTime: &TimeRange{Start: "15:00", End: "17:00"}}.HasDetail())
}

func TestGdidType_IsValid(t *testing.T) {
	assert.True(t, GdidN1.IsValid())
	assert.True(t, GdidN2.IsValid())
	assert.True(t, GdidN3.IsValid())
	assert.False(t, GdidType("N4").IsValid())
}
