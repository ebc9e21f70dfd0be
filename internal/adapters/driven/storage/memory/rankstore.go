package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
)

// Ensure RankHistoryStore implements the interface.
var _ driven.RankHistoryStore = (*RankHistoryStore)(nil)

// rankEntry is a stored result with its insertion sequence.
type rankEntry struct {
	seq     int
	batchID string
	result  domain.RankResult
}

// RankHistoryStore is an in-memory implementation of driven.RankHistoryStore.
type RankHistoryStore struct {
	mu      sync.RWMutex
	seq     int
	entries []rankEntry
}

// NewRankHistoryStore creates a new in-memory rank history store.
func NewRankHistoryStore() *RankHistoryStore {
	return &RankHistoryStore{}
}

// SaveRank appends a rank result.
func (s *RankHistoryStore) SaveRank(_ context.Context, batchID string, result domain.RankResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.entries = append(s.entries, rankEntry{seq: s.seq, batchID: batchID, result: result})
	return nil
}

// RankHistory returns results for targetID, newest first. Results saved
// with the same timestamp are ordered by insertion, latest first.
func (s *RankHistoryStore) RankHistory(
	_ context.Context, targetID, keyword string, limit int,
) ([]domain.RankResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]rankEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.result.TargetID != targetID {
			continue
		}
		if keyword != "" && e.result.Keyword != keyword {
			continue
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].result.FoundAt, matched[j].result.FoundAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return matched[i].seq > matched[j].seq
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	results := make([]domain.RankResult, len(matched))
	for i, e := range matched {
		results[i] = e.result
	}
	return results, nil
}

// Batch returns the results saved under batchID in insertion order.
func (s *RankHistoryStore) BatchResults(_ context.Context, batchID string) ([]domain.RankResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []domain.RankResult
	for _, e := range s.entries {
		if e.batchID == batchID {
			results = append(results, e.result)
		}
	}
	return results, nil
}
