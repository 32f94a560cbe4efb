// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists raw bibliographic-source responses in a SQLite
// database shared across runs. Entries are keyed by a content hash of the
// canonical resolved request, so concurrent writers to the same key race
// benignly: the payloads are equivalent and last-writer-wins.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "responses.db"

// Store manages the response cache database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		key        TEXT PRIMARY KEY,
		fetched_at INTEGER NOT NULL,
		payload    BLOB NOT NULL
	)`)
	return err
}

// Key derives the cache key for a canonical resolved request: the first 24
// hex characters of SHA-256(request).
func Key(request string) string {
	sum := sha256.Sum256([]byte(request))
	return fmt.Sprintf("%x", sum)[:24]
}

// Get returns the cached payload for key if its age is below ttl. The second
// return value reports whether a fresh entry was found; a stale entry is a
// miss, not an error.
func (s *Store) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	var fetchedAt int64
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM responses WHERE key = ?`, key,
	).Scan(&fetchedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	if time.Since(time.Unix(fetchedAt, 0)) > ttl {
		return nil, false, nil
	}
	return payload, true, nil
}

// Put stores payload under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses (key, fetched_at, payload) VALUES (?, ?, ?)`,
		key, time.Now().Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
