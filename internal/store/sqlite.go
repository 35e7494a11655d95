// Package store provides client-local persistent storage for RunDown.
//
// This file implements the SQLite-backed store, the default persistent
// backend for a single-user client.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists identifier sets and client values in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddIdentifier(set SetName, id string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO identifier_sets (set_name, identifier, added_at) VALUES (?, ?, ?)`,
		string(set), id, time.Now(),
	)
	if err != nil {
		slog.Error("SQLiteStore AddIdentifier failed", "error", err, "set", set)
		return fmt.Errorf("failed to add identifier to %s: %w", set, err)
	}
	slog.Debug("SQLiteStore AddIdentifier succeeded", "set", set)
	return nil
}

func (s *SQLiteStore) HasIdentifier(set SetName, id string) (bool, error) {
	var found string
	err := s.db.QueryRow(
		`SELECT identifier FROM identifier_sets WHERE set_name = ? AND identifier = ?`,
		string(set), id,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("SQLiteStore HasIdentifier failed", "error", err, "set", set)
		return false, fmt.Errorf("identifier lookup in %s failed: %w", set, err)
	}
	return true, nil
}

func (s *SQLiteStore) ListIdentifiers(set SetName) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT identifier FROM identifier_sets WHERE set_name = ? ORDER BY added_at, identifier`,
		string(set),
	)
	if err != nil {
		slog.Error("SQLiteStore ListIdentifiers query failed", "error", err, "set", set)
		return nil, fmt.Errorf("failed to query identifiers of %s: %w", set, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			slog.Error("SQLiteStore ListIdentifiers scan failed", "error", err, "set", set)
			return nil, fmt.Errorf("failed to scan identifier row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListIdentifiers rows iteration failed", "error", err, "set", set)
		return nil, fmt.Errorf("failed to iterate identifier rows: %w", err)
	}
	slog.Debug("SQLiteStore ListIdentifiers succeeded", "set", set, "count", len(ids))
	return ids, nil
}

func (s *SQLiteStore) ReplaceIdentifiers(set SetName, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("SQLiteStore ReplaceIdentifiers begin failed", "error", err, "set", set)
		return fmt.Errorf("failed to begin replace of %s: %w", set, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM identifier_sets WHERE set_name = ?`, string(set)); err != nil {
		slog.Error("SQLiteStore ReplaceIdentifiers delete failed", "error", err, "set", set)
		return fmt.Errorf("failed to clear %s: %w", set, err)
	}
	now := time.Now()
	for _, id := range ids {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO identifier_sets (set_name, identifier, added_at) VALUES (?, ?, ?)`,
			string(set), id, now,
		); err != nil {
			slog.Error("SQLiteStore ReplaceIdentifiers insert failed", "error", err, "set", set)
			return fmt.Errorf("failed to insert identifier into %s: %w", set, err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("SQLiteStore ReplaceIdentifiers commit failed", "error", err, "set", set)
		return fmt.Errorf("failed to commit replace of %s: %w", set, err)
	}
	slog.Debug("SQLiteStore ReplaceIdentifiers succeeded", "set", set, "count", len(ids))
	return nil
}

func (s *SQLiteStore) GetValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM client_values WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetValue failed", "error", err, "key", key)
		return "", false, fmt.Errorf("failed to get value %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetValue(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO client_values (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now(),
	)
	if err != nil {
		slog.Error("SQLiteStore SetValue failed", "error", err, "key", key)
		return fmt.Errorf("failed to set value %s: %w", key, err)
	}
	slog.Debug("SQLiteStore SetValue succeeded", "key", key)
	return nil
}

func (s *SQLiteStore) DeleteValue(key string) error {
	_, err := s.db.Exec(`DELETE FROM client_values WHERE key = ?`, key)
	if err != nil {
		slog.Error("SQLiteStore DeleteValue failed", "error", err, "key", key)
		return fmt.Errorf("failed to delete value %s: %w", key, err)
	}
	slog.Debug("SQLiteStore DeleteValue succeeded", "key", key)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
