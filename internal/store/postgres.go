// Package store provides client-local persistent storage for RunDown.
//
// This file implements the PostgreSQL-backed store, for deployments where
// the client state lives in a shared database instead of a local file.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists identifier sets and client values in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddIdentifier(set SetName, id string) error {
	_, err := s.db.Exec(
		`INSERT INTO identifier_sets (set_name, identifier, added_at) VALUES ($1, $2, $3) ON CONFLICT (set_name, identifier) DO NOTHING`,
		string(set), id, time.Now(),
	)
	if err != nil {
		slog.Error("PostgresStore AddIdentifier failed", "error", err, "set", set)
		return fmt.Errorf("failed to add identifier to %s: %w", set, err)
	}
	return nil
}

func (s *PostgresStore) HasIdentifier(set SetName, id string) (bool, error) {
	var found string
	err := s.db.QueryRow(
		`SELECT identifier FROM identifier_sets WHERE set_name = $1 AND identifier = $2`,
		string(set), id,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("PostgresStore HasIdentifier failed", "error", err, "set", set)
		return false, fmt.Errorf("identifier lookup in %s failed: %w", set, err)
	}
	return true, nil
}

func (s *PostgresStore) ListIdentifiers(set SetName) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT identifier FROM identifier_sets WHERE set_name = $1 ORDER BY added_at, identifier`,
		string(set),
	)
	if err != nil {
		slog.Error("PostgresStore ListIdentifiers query failed", "error", err, "set", set)
		return nil, fmt.Errorf("failed to query identifiers of %s: %w", set, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			slog.Error("PostgresStore ListIdentifiers scan failed", "error", err, "set", set)
			return nil, fmt.Errorf("failed to scan identifier row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListIdentifiers rows iteration failed", "error", err, "set", set)
		return nil, fmt.Errorf("failed to iterate identifier rows: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) ReplaceIdentifiers(set SetName, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("PostgresStore ReplaceIdentifiers begin failed", "error", err, "set", set)
		return fmt.Errorf("failed to begin replace of %s: %w", set, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM identifier_sets WHERE set_name = $1`, string(set)); err != nil {
		slog.Error("PostgresStore ReplaceIdentifiers delete failed", "error", err, "set", set)
		return fmt.Errorf("failed to clear %s: %w", set, err)
	}
	now := time.Now()
	for _, id := range ids {
		if _, err := tx.Exec(
			`INSERT INTO identifier_sets (set_name, identifier, added_at) VALUES ($1, $2, $3) ON CONFLICT (set_name, identifier) DO NOTHING`,
			string(set), id, now,
		); err != nil {
			slog.Error("PostgresStore ReplaceIdentifiers insert failed", "error", err, "set", set)
			return fmt.Errorf("failed to insert identifier into %s: %w", set, err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("PostgresStore ReplaceIdentifiers commit failed", "error", err, "set", set)
		return fmt.Errorf("failed to commit replace of %s: %w", set, err)
	}
	return nil
}

func (s *PostgresStore) GetValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM client_values WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetValue failed", "error", err, "key", key)
		return "", false, fmt.Errorf("failed to get value %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetValue(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO client_values (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		slog.Error("PostgresStore SetValue failed", "error", err, "key", key)
		return fmt.Errorf("failed to set value %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) DeleteValue(key string) error {
	_, err := s.db.Exec(`DELETE FROM client_values WHERE key = $1`, key)
	if err != nil {
		slog.Error("PostgresStore DeleteValue failed", "error", err, "key", key)
		return fmt.Errorf("failed to delete value %s: %w", key, err)
	}
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
