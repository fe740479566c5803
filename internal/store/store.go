// Package store is a generic, type-driven persistence layer over an
// embedded SQLite database. Given a plain struct type it derives a
// matching table, migrates it additively when the struct gains fields,
// and exposes CRUD, paged, filtered, batch, and raw operations without
// per-entity SQL.
//
// Every logical operation draws its own connection from the database/sql
// pool and releases it on completion; only SaveMany pins a single
// connection for the span of its transaction. Busy or locked errors from
// SQLite propagate to the caller unmodified, and nothing here retries.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"entitystore/internal/config"
)

// Store is the handle for all persistence operations. The embedded
// schema registry is the only long-lived shared mutable state.
type Store struct {
	db      *sql.DB
	log     *slog.Logger
	metrics *metrics
	reg     registry
}

// Option configures optional collaborators on a Store.
type Option func(*Store)

// WithLogger injects the logging collaborator every operation may report
// progress or failure to. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMetrics registers operation counters on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) { s.metrics = newMetrics(reg) }
}

// Open creates the database directory if needed and opens the SQLite
// file with WAL journaling and the configured sync mode applied through
// the connection string, so every pooled connection inherits them.
func Open(cfg config.DatabaseConfig, opts ...Option) (*Store, error) {
	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", filepath.Join(cfg.Directory, cfg.File), err)
	}
	s := &Store{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }
