// Package secondary defines the secondary ports (driven adapters) for the
// persistence engine. The store drives these interfaces; SQLite adapters
// implement them.
package secondary

import (
	"context"

	"github.com/example/vigil/internal/models"
)

// ActorRepository defines the secondary port for actor state persistence.
// Single-row reads return (nil, nil) when no row matches; not-found is a
// result, not an error.
type ActorRepository interface {
	// Save upserts the actor row by actor id, overwriting all mutable
	// fields and stamping last_updated with the supplied time.
	Save(ctx context.Context, state *models.ActorState, now int64) error

	// GetByID retrieves an actor by its stable id.
	GetByID(ctx context.Context, actorID string) (*models.ActorState, error)

	// GetByName retrieves an actor by display name, case-insensitively.
	GetByName(ctx context.Context, name string) (*models.ActorState, error)

	// List retrieves all actors ordered by display name.
	List(ctx context.Context) ([]*models.ActorState, error)

	// Delete removes the actor row; the cache entry cascades.
	Delete(ctx context.Context, actorID string) error

	// SaveBatch upserts all given actors in one atomic transaction.
	// Either every row reflects the new state or none do.
	SaveBatch(ctx context.Context, states []*models.ActorState, now int64) error

	// GetBatch retrieves the actors matching the given ids in a single
	// read. Missing ids are simply absent from the result.
	GetBatch(ctx context.Context, actorIDs []string) ([]*models.ActorState, error)

	// Count returns the total number of actor rows.
	Count(ctx context.Context) (int, error)
}

// PursuitRepository defines the secondary port for pursuit persistence.
type PursuitRepository interface {
	// Save upserts a pursuit record by pursuit id.
	Save(ctx context.Context, rec *models.PursuitRecord) error

	// GetByID retrieves a pursuit by its id.
	GetByID(ctx context.Context, pursuitID string) (*models.PursuitRecord, error)

	// ListActive retrieves all pursuits still marked active.
	ListActive(ctx context.Context) ([]*models.PursuitRecord, error)

	// GetActiveByEnforcer retrieves the enforcer's active pursuit, if any.
	GetActiveByEnforcer(ctx context.Context, enforcerID string) (*models.PursuitRecord, error)

	// GetActiveByTarget retrieves the active pursuit of a target, if any.
	GetActiveByTarget(ctx context.Context, targetID string) (*models.PursuitRecord, error)

	// Delete removes a pursuit record.
	Delete(ctx context.Context, pursuitID string) error

	// DeleteEndedBefore removes terminated pursuits whose end time is
	// older than cutoff, returning the number deleted.
	DeleteEndedBefore(ctx context.Context, cutoff int64) (int, error)

	// CountActive returns the number of active pursuit rows.
	CountActive(ctx context.Context) (int, error)
}

// CacheRepository defines the secondary port for the auxiliary cache.
type CacheRepository interface {
	// Save upserts the cache entry for an actor.
	Save(ctx context.Context, entry *models.CacheEntry) error

	// Get retrieves an actor's cache entry, (nil, nil) when absent.
	Get(ctx context.Context, actorID string) (*models.CacheEntry, error)

	// Delete removes an actor's cache entry.
	Delete(ctx context.Context, actorID string) error

	// DeleteOlderThan evicts entries cached before cutoff, returning the
	// number evicted.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)

	// Count returns the number of cached entries.
	Count(ctx context.Context) (int, error)
}

// StatRepository defines the secondary port for the append-only
// performance event log.
type StatRepository interface {
	// Record appends one performance event.
	Record(ctx context.Context, event *StatEvent) error

	// ListByActor retrieves an actor's events, newest first.
	ListByActor(ctx context.Context, actorID string, limit int) ([]*StatEvent, error)
}

// StatEvent is one row of the performance event log.
type StatEvent struct {
	ID         int64
	ActorID    string
	StatType   string
	StatValue  int64
	RecordedAt int64
}

// Stat types recorded by the services.
const (
	StatSearch           = "search"
	StatSuccessfulSearch = "successful_search"
	StatArrest           = "arrest"
	StatKill             = "kill"
	StatDetection        = "detection"
	StatDutySession      = "duty_session"
)
