// Package store implements the asynchronous persistence engine: a fixed
// worker pool over one shared SQLite connection, with every operation
// returned as a future.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// ErrNotInitialized is returned for operations issued after Close (or
// before a store was opened).
var ErrNotInitialized = errors.New("store is not initialized")

// InitError is fatal at startup: the storage location or connection is
// unavailable. The hosting process is expected to abort.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return fmt.Sprintf("store init failed: %v", e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// WriteError wraps an engine failure during a write operation.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ReadError wraps an engine failure during a read operation.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// ConstraintError indicates a foreign-key or uniqueness breach. This is
// caller misuse, not a transient condition; it is never retried.
type ConstraintError struct {
	Op  string
	Err error
}

func (e *ConstraintError) Error() string { return fmt.Sprintf("%s violated a constraint: %v", e.Op, e.Err) }
func (e *ConstraintError) Unwrap() error { return e.Err }

// BackupError wraps an I/O failure while copying the database file.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string { return fmt.Sprintf("backup to %s failed: %v", e.Path, e.Err) }
func (e *BackupError) Unwrap() error { return e.Err }

// writeErr classifies a repository error from a write path.
func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraint(err) {
		return &ConstraintError{Op: op, Err: err}
	}
	return &WriteError{Op: op, Err: err}
}

// readErr classifies a repository error from a read path.
func readErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ReadError{Op: op, Err: err}
}

// isConstraint reports whether err is a SQLite constraint violation.
func isConstraint(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}

// isFatal reports whether err indicates the connection itself is gone.
// Maintenance skips remaining steps once this is seen; recovery is a
// process restart, not a retry.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "disk I/O error")
}
