package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func intPtr(v int) *int { return &v }

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func rankResult(keyword string, rank *int, offset time.Duration) domain.RankResult {
	r := domain.RankResult{
		Keyword:      keyword,
		TargetID:     "1234",
		Rank:         rank,
		PagesScanned: 1,
		FoundAt:      baseTime.Add(offset),
	}
	if rank != nil {
		r.Page = 1
		r.Position = *rank
		r.ListingName = "역삼 고기집"
	}
	return r
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseFileName)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, store.Path(), filepath.Join(".placerank", "data", DatabaseFileName))
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")

	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"schema_migrations", "rank_history", "listings"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestStore_MigrateRecordsMigrationVersion(t *testing.T) {
	store := setupTestStore(t)

	rows, err := store.db.Query("SELECT version FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	versions := []int{}
	for rows.Next() {
		var version int
		require.NoError(t, rows.Scan(&version))
		versions = append(versions, version)
	}
	require.NoError(t, rows.Err())

	require.NotEmpty(t, versions)
	assert.Equal(t, 1, versions[0])
}

func TestStore_MigrationIdempotency(t *testing.T) {
	tempDir := t.TempDir()

	store1, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store1.RankHistoryStore().SaveRank(context.Background(), "", rankResult("고기집", intPtr(3), 0)))

	var count1 int
	require.NoError(t, store1.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count1))
	require.NoError(t, store1.Close())

	store2, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store2.Close()

	var count2 int
	require.NoError(t, store2.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count2))
	assert.Equal(t, count1, count2)

	history, err := store2.RankHistoryStore().RankHistory(context.Background(), "1234", "", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1, "data survives reopening")
}

func TestStore_WALMode(t *testing.T) {
	store := setupTestStore(t)

	var journalMode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

func TestStore_InterfaceGetters(t *testing.T) {
	store := setupTestStore(t)

	assert.NotNil(t, store.RankHistoryStore())
	assert.NotNil(t, store.ListingStore())
}

// ==================== RankHistoryStore Tests ====================

func TestRankHistoryStore_SaveAndHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ranks := store.RankHistoryStore()

	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("고기집", intPtr(7), 0)))
	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("고기집", intPtr(5), time.Hour)))
	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("강남 맛집", nil, 30*time.Minute)))

	history, err := ranks.RankHistory(ctx, "1234", "", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, 5, *history[0].Rank)
	assert.Equal(t, "강남 맛집", history[1].Keyword)
	assert.Nil(t, history[1].Rank)
	assert.False(t, history[1].Found())
	assert.Equal(t, 7, *history[2].Rank)
	assert.True(t, history[0].FoundAt.Equal(baseTime.Add(time.Hour)))
	assert.Equal(t, "역삼 고기집", history[0].ListingName)
}

func TestRankHistoryStore_FilterAndLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ranks := store.RankHistoryStore()

	for i := range 5 {
		require.NoError(t, ranks.SaveRank(ctx, "", rankResult("고기집", intPtr(i+1), time.Duration(i)*time.Minute)))
	}
	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("냉면", intPtr(2), time.Hour)))

	other := rankResult("고기집", intPtr(1), 0)
	other.TargetID = "9999"
	require.NoError(t, ranks.SaveRank(ctx, "", other))

	history, err := ranks.RankHistory(ctx, "1234", "고기집", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 5, *history[0].Rank)
	assert.Equal(t, 4, *history[1].Rank)

	all, err := ranks.RankHistory(ctx, "1234", "", -1)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	none, err := ranks.RankHistory(ctx, "0000", "", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRankHistoryStore_SameTimestampNewestInsertFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ranks := store.RankHistoryStore()

	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("고기집", intPtr(1), 0)))
	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("고기집", intPtr(2), 0)))

	history, err := ranks.RankHistory(ctx, "1234", "고기집", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, *history[0].Rank)
}

func TestRankHistoryStore_BatchResults(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ranks := &rankHistoryStore{store: store}

	require.NoError(t, ranks.SaveRank(ctx, "batch-1", rankResult("b", intPtr(2), time.Hour)))
	require.NoError(t, ranks.SaveRank(ctx, "batch-1", rankResult("a", nil, 0)))
	require.NoError(t, ranks.SaveRank(ctx, "batch-2", rankResult("c", intPtr(1), 0)))
	require.NoError(t, ranks.SaveRank(ctx, "", rankResult("d", intPtr(1), 0)))

	results, err := ranks.BatchResults(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Keyword)
	assert.Equal(t, "a", results[1].Keyword)
}

func TestRankHistoryStore_InvalidInput(t *testing.T) {
	store := setupTestStore(t)
	ranks := store.RankHistoryStore()

	err := ranks.SaveRank(context.Background(), "", domain.RankResult{Keyword: "고기집"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = ranks.SaveRank(context.Background(), "", domain.RankResult{TargetID: "1234"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRankHistoryStore_InvalidPayload(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.db.Exec(`
		INSERT INTO rank_history (target_id, keyword, found_at, payload)
		VALUES ('1234', '고기집', 0, 'not json')
	`)
	require.NoError(t, err)

	_, err = store.RankHistoryStore().RankHistory(context.Background(), "1234", "", 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling rank result")
}

func TestRankHistoryStore_ConcurrentWrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ranks := store.RankHistoryStore()

	const numGoroutines = 10
	done := make(chan error, numGoroutines)
	for i := range numGoroutines {
		go func(id int) {
			done <- ranks.SaveRank(ctx, "batch", rankResult(fmt.Sprintf("kw-%d", id), intPtr(id+1), 0))
		}(i)
	}
	for range numGoroutines {
		assert.NoError(t, <-done)
	}

	history, err := ranks.RankHistory(ctx, "1234", "", 0)
	require.NoError(t, err)
	assert.Len(t, history, numGoroutines)
}

func TestStore_ContextCancellation(t *testing.T) {
	store := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.RankHistoryStore().SaveRank(ctx, "", rankResult("고기집", intPtr(1), 0))
	assert.Error(t, err)
}

// ==================== ListingStore Tests ====================

func testListing() domain.ListingRecord {
	return domain.ListingRecord{
		ID: "1234",
		Basic: domain.BasicInfo{
			Name:     "역삼 고기집",
			Category: "음식점>한식",
			Address:  domain.AddressInput{Road: "서울특별시 강남구 테헤란로 123"},
		},
		Menus:        []domain.Menu{{Name: "냉면", Price: 9000}},
		Completeness: 80,
		CrawledAt:    baseTime,
	}
}

func TestListingStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	listings := store.ListingStore()

	require.NoError(t, listings.SaveListing(ctx, testListing()))

	got, err := listings.GetListing(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "역삼 고기집", got.Basic.Name)
	require.Len(t, got.Menus, 1)
	assert.Equal(t, 9000, got.Menus[0].Price)
	assert.Equal(t, 80, got.Completeness)
	assert.True(t, got.CrawledAt.Equal(baseTime))
}

func TestListingStore_SaveReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	listings := store.ListingStore()

	require.NoError(t, listings.SaveListing(ctx, testListing()))
	updated := testListing()
	updated.Completeness = 95
	updated.CrawledAt = baseTime.Add(24 * time.Hour)
	require.NoError(t, listings.SaveListing(ctx, updated))

	got, err := listings.GetListing(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, 95, got.Completeness)

	var rows int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestListingStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.ListingStore().GetListing(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, got)
}

func TestListingStore_EmptyID(t *testing.T) {
	store := setupTestStore(t)

	err := store.ListingStore().SaveListing(context.Background(), domain.ListingRecord{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListingStore_InvalidPayload(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.db.Exec(`INSERT INTO listings (id, crawled_at, payload) VALUES ('bad', 0, '{')`)
	require.NoError(t, err)

	_, err = store.ListingStore().GetListing(context.Background(), "bad")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling listing")
}

func TestMigrations_DownScriptsPresent(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["001_initial.up.sql"])
	assert.True(t, names["001_initial.down.sql"])
}
