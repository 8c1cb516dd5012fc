// Package storage owns the SQLite connection, the schema and the
// transactional execution envelope. Every call runs exactly one
// transaction; there is no partial commit. Driver failures are wrapped
// once into the core error taxonomy here and never re-wrapped above.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"gameserver/internal/server/core"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store handles database operations for games, moves, players and users.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// NewStore opens the database and configures the connection.
func NewStore(dataSourceName string, devMode bool, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode in development for better concurrency
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &Store{db: db, path: dataSourceName, log: log}, nil
}

// Ping reports whether the store is reachable.
func (s *Store) Ping() error {
	if err := s.db.Ping(); err != nil {
		return classify("storage.ping", err)
	}
	return nil
}

// Query runs a read inside its own transaction and calls scan once per
// result row. The scan callback must not retain the *sql.Rows.
func (s *Store) Query(query string, args []any, scan func(rows *sql.Rows) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return classify("storage.query", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(query, args...)
	if err != nil {
		return classify("storage.query", err)
	}
	defer rows.Close()

	for rows.Next() {
		if scan == nil {
			continue
		}
		if err := scan(rows); err != nil {
			return classify("storage.query", err)
		}
	}
	if err := rows.Err(); err != nil {
		return classify("storage.query", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return classify("storage.query", err)
	}
	return nil
}

// Update runs a write inside its own transaction and returns the number
// of affected rows. Zero affected rows is not an error here; translating
// it into not-found is the caller's domain decision.
func (s *Store) Update(query string, args ...any) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, classify("storage.update", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, classify("storage.update", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classify("storage.update", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, classify("storage.update", err)
	}
	return affected, nil
}

// Create runs an insert inside its own transaction and returns the
// database-generated key together with the affected-row count.
func (s *Store) Create(query string, args ...any) (id int64, affected int64, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, classify("storage.create", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, 0, classify("storage.create", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, 0, classify("storage.create", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return 0, 0, classify("storage.create", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, classify("storage.create", err)
	}
	return id, affected, nil
}

// WithTx runs fn inside a single transaction so multi-statement
// sequences (game creation, user updates) commit or roll back as one.
// Domain errors returned by fn pass through untouched; raw driver
// errors are classified here.
func (s *Store) WithTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return classify("storage.tx", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		var domainErr *core.Error
		if errors.As(err, &domainErr) {
			return err
		}
		return classify("storage.tx", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("storage.tx", err)
	}
	return nil
}

// classify wraps a driver-level failure into the typed taxonomy.
func classify(op string, err error) *core.Error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return core.E(core.KindConstraint, op, err)
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr:
			return core.E(core.KindConnectivity, op, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return core.E(core.KindConnectivity, op, err)
	}
	return core.E(core.KindSQL, op, err)
}

// InitDB creates the database schema.
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// ResetDB drops all tables and recreates the schema. Only reachable
// through the test-mode reset endpoint and the db CLI.
func (s *Store) ResetDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return classify("storage.reset", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(DropSchema); err != nil {
		return classify("storage.reset", err)
	}
	if _, err := tx.Exec(Schema); err != nil {
		return classify("storage.reset", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("storage.reset", err)
	}
	s.log.Warn("database schema was reset")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DeleteDB removes the database file.
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	return nil
}
