package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the sql connection pool
type DB struct {
	*sql.DB
}

// NewConnection opens the SQLite database at the given path. The pool is
// capped at a single connection: SQLite serializes writers anyway, and the
// service has exactly one logical writer per table.
func NewConnection(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{db}, nil
}

// IsTableMissing reports whether an error is the "table not yet provisioned"
// condition. Read paths treat this as an empty result so the service works in
// a freshly deployed environment before migrations or first ingestion.
func IsTableMissing(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
