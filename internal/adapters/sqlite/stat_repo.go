package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/vigil/internal/ports/secondary"
)

// StatRepository implements secondary.StatRepository using SQLite.
// The performance_stat table is append-only; rows are never updated.
type StatRepository struct {
	db *sql.DB
}

// NewStatRepository creates a new StatRepository.
func NewStatRepository(db *sql.DB) *StatRepository {
	return &StatRepository{db: db}
}

// Record appends one performance event.
func (r *StatRepository) Record(ctx context.Context, event *secondary.StatEvent) error {
	query := `INSERT INTO performance_stat (actor_id, stat_type, stat_value, recorded_at)
		VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		event.ActorID, event.StatType, event.StatValue, event.RecordedAt)
	if err != nil {
		return err
	}
	event.ID, _ = result.LastInsertId()
	return nil
}

// ListByActor retrieves an actor's events, newest first. limit <= 0 means
// no limit.
func (r *StatRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]*secondary.StatEvent, error) {
	query := `SELECT id, actor_id, stat_type, stat_value, recorded_at
		FROM performance_stat WHERE actor_id = ? ORDER BY recorded_at DESC, id DESC`
	args := []interface{}{actorID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*secondary.StatEvent
	for rows.Next() {
		var e secondary.StatEvent
		if err := rows.Scan(&e.ID, &e.ActorID, &e.StatType, &e.StatValue, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Ensure StatRepository implements the interface.
var _ secondary.StatRepository = (*StatRepository)(nil)
