package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/placerank/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driven"
)

// DatabaseFileName is the database file inside the data directory.
const DatabaseFileName = "placerank.db"

// Store is a unified SQLite-based storage that provides access to
// the history and listing store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.placerank/data/placerank.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".placerank", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFileName)

	// Open database in WAL mode so readers do not block writers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RankHistoryStore returns a RankHistoryStore interface backed by this store.
func (s *Store) RankHistoryStore() driven.RankHistoryStore {
	return &rankHistoryStore{store: s}
}

// ListingStore returns a ListingStore interface backed by this store.
func (s *Store) ListingStore() driven.ListingStore {
	return &listingStore{store: s}
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Rank History Store ====================

// rankHistoryStore implements driven.RankHistoryStore.
type rankHistoryStore struct {
	store *Store
}

var _ driven.RankHistoryStore = (*rankHistoryStore)(nil)

// SaveRank appends a rank result.
func (s *rankHistoryStore) SaveRank(ctx context.Context, batchID string, result domain.RankResult) error {
	if result.TargetID == "" || result.Keyword == "" {
		return domain.ErrInvalidInput
	}

	if result.FoundAt.IsZero() {
		result.FoundAt = time.Now().UTC()
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling rank result: %w", err)
	}

	var rank sql.NullInt64
	if result.Rank != nil {
		rank = sql.NullInt64{Int64: int64(*result.Rank), Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO rank_history (batch_id, target_id, keyword, rank, page, position, found_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, batchID, result.TargetID, result.Keyword, rank, result.Page, result.Position,
		result.FoundAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("saving rank result: %w", err)
	}
	return nil
}

// RankHistory returns results for targetID, newest first. Results saved
// with the same timestamp are ordered by insertion, latest first.
func (s *rankHistoryStore) RankHistory(
	ctx context.Context, targetID, keyword string, limit int,
) ([]domain.RankResult, error) {
	query := `SELECT payload FROM rank_history WHERE target_id = ?`
	args := []any{targetID}
	if keyword != "" {
		query += ` AND keyword = ?`
		args = append(args, keyword)
	}
	query += ` ORDER BY found_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.query(ctx, query, args...)
}

// BatchResults returns the results saved under batchID in insertion order.
func (s *rankHistoryStore) BatchResults(ctx context.Context, batchID string) ([]domain.RankResult, error) {
	return s.query(ctx, `SELECT payload FROM rank_history WHERE batch_id = ? ORDER BY id`, batchID)
}

func (s *rankHistoryStore) query(ctx context.Context, query string, args ...any) ([]domain.RankResult, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rank history: %w", err)
	}
	defer rows.Close()

	var results []domain.RankResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning rank result: %w", err)
		}
		var result domain.RankResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("unmarshaling rank result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rank history: %w", err)
	}
	return results, nil
}

// ==================== Listing Store ====================

// listingStore implements driven.ListingStore.
type listingStore struct {
	store *Store
}

var _ driven.ListingStore = (*listingStore)(nil)

// SaveListing stores or replaces a listing snapshot.
func (s *listingStore) SaveListing(ctx context.Context, record domain.ListingRecord) error {
	if record.ID == "" {
		return domain.ErrInvalidInput
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling listing: %w", err)
	}

	crawledAt := record.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO listings (id, name, completeness, crawled_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			completeness = excluded.completeness,
			crawled_at = excluded.crawled_at,
			payload = excluded.payload
	`, record.ID, record.Basic.Name, record.Completeness, crawledAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("saving listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing snapshot by ID.
func (s *listingStore) GetListing(ctx context.Context, id string) (*domain.ListingRecord, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx, "SELECT payload FROM listings WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning listing: %w", err)
	}

	var record domain.ListingRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("unmarshaling listing: %w", err)
	}
	return &record, nil
}
