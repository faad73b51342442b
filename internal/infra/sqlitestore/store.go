// Package sqlitestore provides a SQLite implementation of BlobStore.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/plan-review/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	key         TEXT PRIMARY KEY,
	data        BLOB NOT NULL,
	updated_at  DATETIME NOT NULL
);
`

// Store implements domain.BlobStore on a single SQLite table.
// The database is opened on first use; it must have been created by Initialize.
type Store struct {
	db   *sql.DB
	now  func() time.Time
	path string
	mu   sync.Mutex
}

// Ensure Store implements BlobStore and StoreInitializer.
var (
	_ domain.BlobStore        = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
	_ domain.StoreInspector   = (*Store)(nil)
)

// New creates a Store for the database file at path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// IsInitialized checks if the database file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates the database file and schema if missing.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.openLocked()
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// conn returns the open database, refusing to create a new file.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if !s.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}
	return s.openLocked()
}

func (s *Store) openLocked() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.db = db
	return db, nil
}

// Get returns the blob stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("query blob %s: %w", key, err)
	}
	return data, nil
}

// Put writes every blob in one transaction.
func (s *Store) Put(ctx context.Context, blobs map[string][]byte) error {
	now := s.now().UTC()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for key, data := range blobs {
			if data == nil {
				data = []byte{}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
				key, data, now,
			); err != nil {
				return fmt.Errorf("write blob %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes the keys in one transaction.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
				return fmt.Errorf("delete blob %s: %w", key, err)
			}
		}
		return nil
	})
}

// UpdatedAt returns when key was last written.
func (s *Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	db, err := s.conn()
	if err != nil {
		return time.Time{}, err
	}

	var at time.Time
	err = db.QueryRowContext(ctx, `SELECT updated_at FROM blobs WHERE key = ?`, key).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query blob %s: %w", key, err)
	}
	return at, nil
}

// Stats reports when the plan draft was last written. Writes are not counted.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	stats := domain.StoreStats{Backend: domain.BackendSQLite}
	at, err := s.UpdatedAt(ctx, domain.KeyPlanDraft)
	switch {
	case errors.Is(err, domain.ErrBlobNotFound):
	case err != nil:
		return stats, err
	default:
		stats.LastWrite = at
	}
	return stats, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
