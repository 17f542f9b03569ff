package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("storage: cache miss")

// Store caches answers of the external lookup services. An empty country
// code is a valid cached value: it records that a place did not geocode.
type Store interface {
	GetCountryCode(ctx context.Context, place string) (string, error)
	PutCountryCode(ctx context.Context, place, code string) error
	GetEmergencyNumbers(ctx context.Context, code string) ([]string, error)
	PutEmergencyNumbers(ctx context.Context, code string, numbers []string) error
	Close() error
}

// SQLiteStore implements Store with the pure Go modernc.org/sqlite driver.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens (or creates) the database at path and applies the schema.
// A ttl <= 0 keeps entries forever.
func NewSQLite(path string, ttl time.Duration, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// WAL for concurrent readers while a lookup writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("could not set WAL mode", zap.Error(err))
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS geocodes (
        place TEXT PRIMARY KEY,
        country_code TEXT NOT NULL,
        fetched_at TEXT NOT NULL
    );`,
		`CREATE TABLE IF NOT EXISTS emergency_numbers (
        country_code TEXT PRIMARY KEY,
        numbers TEXT NOT NULL,
        fetched_at TEXT NOT NULL
    );`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteStore) fresh(fetchedAt string) bool {
	if s.ttl <= 0 {
		return true
	}
	t, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return false
	}
	return s.now().Sub(t) < s.ttl
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *SQLiteStore) GetCountryCode(ctx context.Context, place string) (string, error) {
	var code, ts string
	err := s.db.QueryRowContext(ctx, `SELECT country_code, fetched_at FROM geocodes WHERE place = ?`, place).Scan(&code, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	if !s.fresh(ts) {
		return "", ErrMiss
	}
	return code, nil
}

func (s *SQLiteStore) PutCountryCode(ctx context.Context, place, code string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO geocodes(place, country_code, fetched_at) VALUES(?,?,?)`,
		place, code, s.stamp())
	return err
}

func (s *SQLiteStore) GetEmergencyNumbers(ctx context.Context, code string) ([]string, error) {
	var raw, ts string
	err := s.db.QueryRowContext(ctx, `SELECT numbers, fetched_at FROM emergency_numbers WHERE country_code = ?`, code).Scan(&raw, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	if !s.fresh(ts) {
		return nil, ErrMiss
	}
	var nums []string
	if err := json.Unmarshal([]byte(raw), &nums); err != nil {
		return nil, fmt.Errorf("decode cached numbers for %s: %w", code, err)
	}
	return nums, nil
}

func (s *SQLiteStore) PutEmergencyNumbers(ctx context.Context, code string, numbers []string) error {
	if numbers == nil {
		numbers = []string{}
	}
	raw, err := json.Marshal(numbers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO emergency_numbers(country_code, numbers, fetched_at) VALUES(?,?,?)`,
		code, string(raw), s.stamp())
	return err
}

// Prune deletes entries older than the ttl and reports how many went.
func (s *SQLiteStore) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, q := range []string{
		`DELETE FROM geocodes WHERE fetched_at < ?`,
		`DELETE FROM emergency_numbers WHERE fetched_at < ?`,
	} {
		res, err := tx.ExecContext(ctx, q, cutoff)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
