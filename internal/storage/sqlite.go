// Package storage implements a SQLite-backed persistence store for the
// LEI cache, for installs where the cache outlives many batch runs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/lei-flow/internal/common"
	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the CacheStore interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite store instance at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path", common.ErrMissingConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Load returns every persisted entity record keyed by LEI code.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]model.EntityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT lei, legal_name, bic, country FROM lei_entities")
	if err != nil {
		return nil, &common.CacheLoadError{Source: s.dbPath, Err: err}
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]model.EntityRecord)
	for rows.Next() {
		var lei string
		var rec model.EntityRecord
		if err := rows.Scan(&lei, &rec.LegalName, &rec.BIC, &rec.Country); err != nil {
			return nil, &common.CacheLoadError{Source: s.dbPath, Err: err}
		}
		entries[lei] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, &common.CacheLoadError{Source: s.dbPath, Err: err}
	}

	return entries, nil
}

// Save upserts the given mapping inside one transaction. Existing rows
// for other LEIs are kept; entries are permanent once written.
func (s *SQLiteStore) Save(ctx context.Context, entries map[string]model.EntityRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &common.CacheSaveError{Sink: s.dbPath, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lei_entities (lei, legal_name, bic, country, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(lei) DO UPDATE SET
			legal_name = excluded.legal_name,
			bic = excluded.bic,
			country = excluded.country,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		_ = tx.Rollback()
		return &common.CacheSaveError{Sink: s.dbPath, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for lei, rec := range entries {
		if _, err := stmt.ExecContext(ctx, lei, rec.LegalName, rec.BIC, rec.Country); err != nil {
			_ = tx.Rollback()
			return &common.CacheSaveError{Sink: s.dbPath, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &common.CacheSaveError{Sink: s.dbPath, Err: err}
	}

	return nil
}

// Clear removes every persisted entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM lei_entities"); err != nil {
		return fmt.Errorf("failed to clear entities: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements the CacheStore interface.
var _ service.CacheStore = (*SQLiteStore)(nil)
