package db

import (
	"database/sql"
	"fmt"
	"strconv"
)

// TargetSchemaVersion is the schema version this build understands.
// At version 1 no migration steps exist yet; the ladder is here for
// forward evolution and is exercised by tests with a synthetic step.
const TargetSchemaVersion = 1

// schemaVersionKey is the metadata row holding the stamped version.
const schemaVersionKey = "schema_version"

// Migration is one forward-only, idempotent schema upgrade step.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in ascending version order.
var migrations = []Migration{}

// MigrationError wraps a failure partway up the ladder. It is fatal at
// startup: the process must not run against a half-migrated schema.
type MigrationError struct {
	Version int
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d failed: %v", e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// CheckAndMigrate reads the stored schema version and applies every
// pending migration in order, then stamps the target version. A missing
// metadata table or version row reads as version 0, not an error.
func CheckAndMigrate(conn *sql.DB) error {
	return migrate(conn, migrations, TargetSchemaVersion)
}

// migrate runs the given ladder up to target. Split out so tests can
// exercise the ladder with synthetic steps.
func migrate(conn *sql.DB, steps []Migration, target int) error {
	current, err := SchemaVersion(conn)
	if err != nil {
		return err
	}
	if current >= target {
		return nil
	}

	for _, m := range steps {
		if m.Version <= current || m.Version > target {
			continue
		}
		if err := m.Up(conn); err != nil {
			return &MigrationError{Version: m.Version, Err: err}
		}
		if err := stampVersion(conn, m.Version); err != nil {
			return &MigrationError{Version: m.Version, Err: err}
		}
	}

	return stampVersion(conn, target)
}

// RestampVersion rewrites the target schema version into metadata, used
// by maintenance to repair a missing or corrupted version row.
func RestampVersion(conn *sql.DB) error {
	return stampVersion(conn, TargetSchemaVersion)
}

// SchemaVersion returns the stamped schema version, 0 if the metadata
// table or the version row does not exist yet.
func SchemaVersion(conn *sql.DB) (int, error) {
	var exists int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'",
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	var raw string
	err = conn.QueryRow("SELECT value FROM metadata WHERE key = ?", schemaVersionKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt schema version %q: %w", raw, err)
	}
	return v, nil
}

// stampVersion writes the version into the metadata table.
func stampVersion(conn *sql.DB, version int) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	_, err = conn.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		schemaVersionKey, strconv.Itoa(version),
	)
	if err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	return nil
}
