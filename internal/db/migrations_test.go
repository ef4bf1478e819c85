package db

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestConn(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSchemaVersion(t *testing.T) {
	t.Run("missing metadata table reads as version 0", func(t *testing.T) {
		conn := openTestConn(t)
		v, err := SchemaVersion(conn)
		if err != nil {
			t.Fatalf("SchemaVersion failed: %v", err)
		}
		if v != 0 {
			t.Errorf("version = %d, want 0", v)
		}
	})

	t.Run("missing version row reads as version 0", func(t *testing.T) {
		conn := openTestConn(t)
		if _, err := conn.Exec("CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		v, err := SchemaVersion(conn)
		if err != nil {
			t.Fatalf("SchemaVersion failed: %v", err)
		}
		if v != 0 {
			t.Errorf("version = %d, want 0", v)
		}
	})

	t.Run("corrupt version is an error", func(t *testing.T) {
		conn := openTestConn(t)
		if err := stampVersion(conn, 1); err != nil {
			t.Fatalf("stampVersion failed: %v", err)
		}
		conn.Exec("UPDATE metadata SET value = 'garbage' WHERE key = 'schema_version'")
		if _, err := SchemaVersion(conn); err == nil {
			t.Error("expected error for corrupt version")
		}
	})
}

func TestInitSchema(t *testing.T) {
	t.Run("stamps the target version on a fresh database", func(t *testing.T) {
		conn := openTestConn(t)
		if err := InitSchema(conn); err != nil {
			t.Fatalf("InitSchema failed: %v", err)
		}
		v, err := SchemaVersion(conn)
		if err != nil {
			t.Fatalf("SchemaVersion failed: %v", err)
		}
		if v != TargetSchemaVersion {
			t.Errorf("version = %d, want %d", v, TargetSchemaVersion)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		conn := openTestConn(t)
		if err := InitSchema(conn); err != nil {
			t.Fatalf("first InitSchema failed: %v", err)
		}
		if err := InitSchema(conn); err != nil {
			t.Fatalf("second InitSchema failed: %v", err)
		}
	})
}

func TestMigrate(t *testing.T) {
	// The production ladder is empty at version 1, so the ladder mechanics
	// are exercised with synthetic steps.
	addColumn := Migration{
		Version: 1,
		Name:    "add scratch table",
		Up: func(conn *sql.DB) error {
			_, err := conn.Exec("CREATE TABLE scratch (id INTEGER PRIMARY KEY)")
			return err
		},
	}

	t.Run("applies pending steps in order and stamps each", func(t *testing.T) {
		conn := openTestConn(t)
		var order []int
		steps := []Migration{
			{Version: 1, Name: "one", Up: func(*sql.DB) error { order = append(order, 1); return nil }},
			{Version: 2, Name: "two", Up: func(*sql.DB) error { order = append(order, 2); return nil }},
		}

		if err := migrate(conn, steps, 2); err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("execution order = %v, want [1 2]", order)
		}
		v, _ := SchemaVersion(conn)
		if v != 2 {
			t.Errorf("version = %d, want 2", v)
		}
	})

	t.Run("running twice applies no step twice", func(t *testing.T) {
		conn := openTestConn(t)
		steps := []Migration{addColumn}

		if err := migrate(conn, steps, 1); err != nil {
			t.Fatalf("first migrate failed: %v", err)
		}
		// A second pass at the same version must not re-run the step; the
		// CREATE TABLE would fail if it did.
		if err := migrate(conn, steps, 1); err != nil {
			t.Fatalf("second migrate failed: %v", err)
		}
		v, _ := SchemaVersion(conn)
		if v != 1 {
			t.Errorf("version = %d, want 1", v)
		}
	})

	t.Run("skips steps at or below the current version", func(t *testing.T) {
		conn := openTestConn(t)
		if err := stampVersion(conn, 1); err != nil {
			t.Fatalf("stampVersion failed: %v", err)
		}

		ran := false
		steps := []Migration{
			{Version: 1, Name: "stale", Up: func(*sql.DB) error { ran = true; return nil }},
			{Version: 2, Name: "pending", Up: func(*sql.DB) error { return nil }},
		}
		if err := migrate(conn, steps, 2); err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
		if ran {
			t.Error("step at current version was re-applied")
		}
	})

	t.Run("failure surfaces as a MigrationError and stops the ladder", func(t *testing.T) {
		conn := openTestConn(t)
		boom := errors.New("boom")
		laterRan := false
		steps := []Migration{
			{Version: 1, Name: "ok", Up: func(*sql.DB) error { return nil }},
			{Version: 2, Name: "fails", Up: func(*sql.DB) error { return boom }},
			{Version: 3, Name: "never", Up: func(*sql.DB) error { laterRan = true; return nil }},
		}

		err := migrate(conn, steps, 3)
		var merr *MigrationError
		if !errors.As(err, &merr) {
			t.Fatalf("err = %v, want MigrationError", err)
		}
		if merr.Version != 2 {
			t.Errorf("failed version = %d, want 2", merr.Version)
		}
		if !errors.Is(err, boom) {
			t.Error("MigrationError does not wrap the cause")
		}
		if laterRan {
			t.Error("ladder continued past a failed step")
		}

		// The last successful step stays stamped; a rerun resumes there.
		v, _ := SchemaVersion(conn)
		if v != 1 {
			t.Errorf("version = %d, want 1", v)
		}
	})
}

func TestRestampVersion(t *testing.T) {
	conn := openTestConn(t)
	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	// Simulate a lost version row; maintenance repairs it.
	conn.Exec("DELETE FROM metadata WHERE key = 'schema_version'")
	if err := RestampVersion(conn); err != nil {
		t.Fatalf("RestampVersion failed: %v", err)
	}
	v, _ := SchemaVersion(conn)
	if v != TargetSchemaVersion {
		t.Errorf("version = %d, want %d", v, TargetSchemaVersion)
	}
}
