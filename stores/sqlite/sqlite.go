// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package store implements the pipeline store on SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/mdhender/richtext/model"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is a SQLite-backed store for documents, render work and renderings.
type SQLiteStore struct {
	db *sql.DB
}

var _ model.Store = (*SQLiteStore)(nil)

// StoreConfig holds configuration for creating a SQLiteStore.
type StoreConfig struct {
	// Path is the file path for file-based SQLite.
	// If empty, an in-memory database is used.
	Path string

	// InitSchema controls whether to run schema initialization.
	// File-based databases are normally created with InitDatabase.
	InitSchema bool
}

// memoryDatabases names each in-memory database so stores do not share state.
var memoryDatabases atomic.Int64

// NewSQLiteStore creates a new in-memory SQLite store with schema loaded.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(StoreConfig{InitSchema: true})
}

// NewSQLiteStoreWithConfig creates a SQLite store based on the provided configuration.
// For file-based mode (Path is set), the database file MUST already exist.
func NewSQLiteStoreWithConfig(cfg StoreConfig) (*SQLiteStore, error) {
	var dsn string
	if cfg.Path == "" {
		dsn = fmt.Sprintf("file:richtext-%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", memoryDatabases.Add(1))
	} else {
		// sqlite creates missing files on open, which we don't want
		if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
			return nil, fmt.Errorf("database file does not exist: %s (run db init to create it)", cfg.Path)
		}
		dsn = fileDSN(cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Path == "" {
		// the in-memory database lives as long as its last connection
		db.SetMaxOpenConns(1)
	}

	if cfg.InitSchema || cfg.Path == "" {
		if _, err := db.Exec(schemaSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// fileDSN applies the pragmas per connection so the pool always has them.
func fileDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		path,
	)
}

// InitDatabase creates a new SQLite database file and initializes the schema.
// Returns an error if the file already exists.
func InitDatabase(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database file already exists: %s", path)
	}

	db, err := sql.Open("sqlite", fileDSN(path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}

	return nil
}

// CompactDatabase compacts a SQLite database file by checkpointing the WAL and running VACUUM.
func CompactDatabase(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", path)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint WAL: %w", err)
	}
	if _, err := db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stats returns row counts for the dashboard in the db commands.
func (s *SQLiteStore) Stats(ctx context.Context) (model.Stats, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM document_files),
		       (SELECT COUNT(*) FROM renderings),
		       (SELECT COUNT(*) FROM work WHERE status = 'queued'),
		       (SELECT COUNT(*) FROM work WHERE status = 'failed')
	`
	var stats model.Stats
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Documents, &stats.Renderings, &stats.Queued, &stats.Failed); err != nil {
		return model.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
