package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/ports/secondary"
)

// CacheRepository implements secondary.CacheRepository using SQLite.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Save upserts the cache entry for an actor. The actor row must exist;
// the foreign key rejects orphan entries.
func (r *CacheRepository) Save(ctx context.Context, entry *models.CacheEntry) error {
	query := `INSERT INTO actor_cache (actor_id, payload, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at`

	_, err := r.db.ExecContext(ctx, query, entry.ActorID, entry.Payload, entry.CachedAt)
	return err
}

// Get retrieves an actor's cache entry. Returns (nil, nil) when absent.
func (r *CacheRepository) Get(ctx context.Context, actorID string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := r.db.QueryRowContext(ctx,
		"SELECT actor_id, payload, cached_at FROM actor_cache WHERE actor_id = ?", actorID,
	).Scan(&entry.ActorID, &entry.Payload, &entry.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes an actor's cache entry. Deleting a missing entry is not
// an error.
func (r *CacheRepository) Delete(ctx context.Context, actorID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM actor_cache WHERE actor_id = ?", actorID)
	return err
}

// DeleteOlderThan evicts entries cached before cutoff.
func (r *CacheRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM actor_cache WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// Count returns the number of cached entries.
func (r *CacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM actor_cache").Scan(&n)
	return n, err
}

// Ensure CacheRepository implements the interface.
var _ secondary.CacheRepository = (*CacheRepository)(nil)
