package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh vigil installs. It reflects
// the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests
// load it via GetSchemaSQL() instead of hardcoding CREATE TABLE
// statements, so repository code that references a missing column fails
// immediately with "no such column" at development time.
//
// When changing the schema:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
//  3. Bump TargetSchemaVersion
const SchemaSQL = `
-- Actor state (one row per tracked actor)
CREATE TABLE IF NOT EXISTS actor_state (
	actor_id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	on_duty INTEGER NOT NULL DEFAULT 0,
	duty_start_time INTEGER NOT NULL DEFAULT 0,
	off_duty_credit INTEGER NOT NULL DEFAULT 0,
	grace_debt INTEGER NOT NULL DEFAULT 0,
	rank TEXT,
	has_earned_base_credit INTEGER NOT NULL DEFAULT 0,
	has_been_notified_expired INTEGER NOT NULL DEFAULT 0,
	searches INTEGER NOT NULL DEFAULT 0,
	successful_searches INTEGER NOT NULL DEFAULT 0,
	arrests INTEGER NOT NULL DEFAULT 0,
	kills INTEGER NOT NULL DEFAULT 0,
	detections INTEGER NOT NULL DEFAULT 0,
	alert_level INTEGER NOT NULL DEFAULT 0 CHECK(alert_level >= 0),
	alert_expire_time INTEGER NOT NULL DEFAULT 0,
	alert_reason TEXT,
	being_pursued INTEGER NOT NULL DEFAULT 0,
	pursuer_id TEXT,
	pursuit_start_time INTEGER NOT NULL DEFAULT 0,
	total_arrests INTEGER NOT NULL DEFAULT 0,
	total_violations INTEGER NOT NULL DEFAULT 0,
	total_duty_time INTEGER NOT NULL DEFAULT 0,
	last_updated INTEGER NOT NULL DEFAULT 0
);

-- Pursuit records (one row per pursuit instance)
CREATE TABLE IF NOT EXISTS pursuit_record (
	pursuit_id TEXT PRIMARY KEY,
	enforcer_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	start_time INTEGER NOT NULL,
	duration INTEGER NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	end_reason TEXT,
	end_time INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

-- Auxiliary cache (opaque payload per actor, cascade-deleted with it)
CREATE TABLE IF NOT EXISTS actor_cache (
	actor_id TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	cached_at INTEGER NOT NULL,
	FOREIGN KEY (actor_id) REFERENCES actor_state(actor_id) ON DELETE CASCADE
);

-- Singleton settings, including the schema version
CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

-- Append-only performance event log
CREATE TABLE IF NOT EXISTS performance_stat (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor_id TEXT NOT NULL,
	stat_type TEXT NOT NULL,
	stat_value INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_actor_state_name ON actor_state(display_name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_actor_state_on_duty ON actor_state(on_duty);
CREATE INDEX IF NOT EXISTS idx_pursuit_active ON pursuit_record(active);
CREATE INDEX IF NOT EXISTS idx_pursuit_enforcer ON pursuit_record(enforcer_id, active);
CREATE INDEX IF NOT EXISTS idx_pursuit_target ON pursuit_record(target_id, active);
CREATE INDEX IF NOT EXISTS idx_pursuit_end_time ON pursuit_record(end_time);
CREATE INDEX IF NOT EXISTS idx_actor_cache_age ON actor_cache(cached_at);
CREATE INDEX IF NOT EXISTS idx_performance_actor ON performance_stat(actor_id, stat_type);
`

// InitSchema creates all tables and indexes if absent, then runs any
// pending migrations. Safe to call repeatedly.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return CheckAndMigrate(conn)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
