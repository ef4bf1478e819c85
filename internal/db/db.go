// Package db owns the SQLite connection, the authoritative schema and the
// migration ladder. One logical connection is opened per process and
// shared by every store worker; SQLite serializes writers internally and
// WAL allows concurrent readers.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the database at path, creating the parent directory if
// needed, and applies the durability and performance pragmas. The caller
// owns the returned handle for the life of the process.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// applyPragmas sets write-ahead journaling, a bounded page cache and
// foreign-key enforcement on the connection.
func applyPragmas(conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA cache_size = -8000", // 8 MiB page cache
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}
