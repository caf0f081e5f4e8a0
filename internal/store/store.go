// Package store provides the on-device persistent store for study
// analytics. It wraps a single-table SQLite key-value substrate with
// a best-effort Get/Set surface: reads that fail behave like missing
// keys and writes report failure as a boolean, so a full disk or a
// locked file never breaks the user flow.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	apperrors "github.com/studypulse/backend/internal/errors"
	"github.com/studypulse/backend/internal/logging"

	_ "modernc.org/sqlite"
)

// Store owns the on-device copy of all persisted entities.
type Store struct {
	db *sql.DB
}

// Open opens the local store under dataDir, creating it on first use.
// The database runs in WAL mode with a single connection; SQLite does
// not support multiple writers.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorageOpen, "failed to create data directory", err)
	}

	dbPath := filepath.Join(dataDir, "studypulse.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorageOpen, "failed to open database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrStorageOpen, "failed to enable WAL mode", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrStorageOpen, "failed to create kv table", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value for a key. A failed read behaves like a
// missing key.
func (s *Store) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		logging.Warn("Local store read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", false
	}
	return value, true
}

// Set writes a value best-effort. Failures are logged and reported
// as false; callers must not hard-fail on a failed local write.
func (s *Store) Set(key, value string) bool {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		logging.Error("Local store write failed", err, map[string]interface{}{"key": key})
		return false
	}
	return true
}

// Delete removes a key best-effort.
func (s *Store) Delete(key string) bool {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		logging.Error("Local store delete failed", err, map[string]interface{}{"key": key})
		return false
	}
	return true
}
