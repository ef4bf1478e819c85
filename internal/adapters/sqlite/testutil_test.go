// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/vigil/internal/db"
	"github.com/example/vigil/internal/models"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository
// tests. Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Cascade deletes need foreign keys on, same as the production pragmas.
	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedActor inserts a minimal actor row and returns its ID.
func seedActor(t *testing.T, db *sql.DB, id, name string) string {
	t.Helper()
	if id == "" {
		id = "ACTOR-001"
	}
	if name == "" {
		name = "Test Actor"
	}
	_, err := db.Exec("INSERT INTO actor_state (actor_id, display_name) VALUES (?, ?)", id, name)
	if err != nil {
		t.Fatalf("failed to seed actor: %v", err)
	}
	return id
}

// fullActor returns an actor with every field populated, for round-trip
// assertions.
func fullActor(id string) *models.ActorState {
	return &models.ActorState{
		ActorID:                id,
		DisplayName:            "Marshal Kane",
		OnDuty:                 true,
		DutyStartTime:          1000,
		OffDutyCredit:          250,
		GraceDebt:              40,
		Rank:                   "sergeant",
		HasEarnedBaseCredit:    true,
		HasBeenNotifiedExpired: true,
		Searches:               7,
		SuccessfulSearches:     3,
		Arrests:                2,
		Kills:                  1,
		Detections:             5,
		AlertLevel:             3,
		AlertExpireTime:        99000,
		AlertReason:            "contraband",
		BeingPursued:           true,
		PursuerID:              "ACTOR-099",
		PursuitStartTime:       2000,
		TotalArrests:           11,
		TotalViolations:        4,
		TotalDutyTime:          360000,
	}
}
