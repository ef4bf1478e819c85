// Package sqlite contains SQLite implementations of the persistence ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/ports/secondary"
)

const actorColumns = `actor_id, display_name, on_duty, duty_start_time, off_duty_credit,
	grace_debt, rank, has_earned_base_credit, has_been_notified_expired,
	searches, successful_searches, arrests, kills, detections,
	alert_level, alert_expire_time, alert_reason,
	being_pursued, pursuer_id, pursuit_start_time,
	total_arrests, total_violations, total_duty_time, last_updated`

// ActorRepository implements secondary.ActorRepository using SQLite.
type ActorRepository struct {
	db *sql.DB
}

// NewActorRepository creates a new ActorRepository.
func NewActorRepository(db *sql.DB) *ActorRepository {
	return &ActorRepository{db: db}
}

const actorUpsertSQL = `INSERT INTO actor_state (` + actorColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(actor_id) DO UPDATE SET
		display_name = excluded.display_name,
		on_duty = excluded.on_duty,
		duty_start_time = excluded.duty_start_time,
		off_duty_credit = excluded.off_duty_credit,
		grace_debt = excluded.grace_debt,
		rank = excluded.rank,
		has_earned_base_credit = excluded.has_earned_base_credit,
		has_been_notified_expired = excluded.has_been_notified_expired,
		searches = excluded.searches,
		successful_searches = excluded.successful_searches,
		arrests = excluded.arrests,
		kills = excluded.kills,
		detections = excluded.detections,
		alert_level = excluded.alert_level,
		alert_expire_time = excluded.alert_expire_time,
		alert_reason = excluded.alert_reason,
		being_pursued = excluded.being_pursued,
		pursuer_id = excluded.pursuer_id,
		pursuit_start_time = excluded.pursuit_start_time,
		total_arrests = excluded.total_arrests,
		total_violations = excluded.total_violations,
		total_duty_time = excluded.total_duty_time,
		last_updated = excluded.last_updated`

// Save upserts the actor row and stamps last_updated.
func (r *ActorRepository) Save(ctx context.Context, state *models.ActorState, now int64) error {
	state.LastUpdated = now
	_, err := r.db.ExecContext(ctx, actorUpsertSQL, actorArgs(state)...)
	return err
}

// GetByID retrieves an actor by its stable id. Returns (nil, nil) when
// no row matches.
func (r *ActorRepository) GetByID(ctx context.Context, actorID string) (*models.ActorState, error) {
	query := `SELECT ` + actorColumns + ` FROM actor_state WHERE actor_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, actorID))
}

// GetByName retrieves an actor by display name, case-insensitively.
func (r *ActorRepository) GetByName(ctx context.Context, name string) (*models.ActorState, error) {
	query := `SELECT ` + actorColumns + ` FROM actor_state WHERE display_name = ? COLLATE NOCASE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

// List retrieves all actors ordered by display name.
func (r *ActorRepository) List(ctx context.Context) ([]*models.ActorState, error) {
	query := `SELECT ` + actorColumns + ` FROM actor_state ORDER BY display_name COLLATE NOCASE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanActors(rows)
}

// Delete removes the actor row; the cache entry cascades via foreign key.
func (r *ActorRepository) Delete(ctx context.Context, actorID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM actor_state WHERE actor_id = ?", actorID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("actor not found: %s", actorID)
	}
	return nil
}

// SaveBatch upserts all given actors in one transaction. On any failure
// the whole batch rolls back; partial application is never observable.
// Statement order is the input slice order.
func (r *ActorRepository) SaveBatch(ctx context.Context, states []*models.ActorState, now int64) (err error) {
	if len(states) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	// Rollback is a no-op after a successful commit; this guarantees the
	// transaction is always resolved, commit or not.
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone && err == nil {
			err = rbErr
		}
	}()

	stmt, err := tx.PrepareContext(ctx, actorUpsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, state := range states {
		state.LastUpdated = now
		if _, err = stmt.ExecContext(ctx, actorArgs(state)...); err != nil {
			return fmt.Errorf("batch upsert of %s failed: %w", state.ActorID, err)
		}
	}

	return tx.Commit()
}

// GetBatch retrieves the actors matching the given ids in one query.
// The read is not transactional; missing ids are absent from the result.
func (r *ActorRepository) GetBatch(ctx context.Context, actorIDs []string) ([]*models.ActorState, error) {
	if len(actorIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(actorIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT ` + actorColumns + ` FROM actor_state WHERE actor_id IN (` + placeholders + `)`

	args := make([]interface{}, len(actorIDs))
	for i, id := range actorIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanActors(rows)
}

// Count returns the total number of actor rows.
func (r *ActorRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM actor_state").Scan(&n)
	return n, err
}

func actorArgs(a *models.ActorState) []interface{} {
	var rank, alertReason, pursuerID interface{}
	if a.Rank != "" {
		rank = a.Rank
	}
	if a.AlertReason != "" {
		alertReason = a.AlertReason
	}
	if a.PursuerID != "" {
		pursuerID = a.PursuerID
	}

	return []interface{}{
		a.ActorID, a.DisplayName, a.OnDuty, a.DutyStartTime, a.OffDutyCredit,
		a.GraceDebt, rank, a.HasEarnedBaseCredit, a.HasBeenNotifiedExpired,
		a.Searches, a.SuccessfulSearches, a.Arrests, a.Kills, a.Detections,
		a.AlertLevel, a.AlertExpireTime, alertReason,
		a.BeingPursued, pursuerID, a.PursuitStartTime,
		a.TotalArrests, a.TotalViolations, a.TotalDutyTime, a.LastUpdated,
	}
}

func (r *ActorRepository) scanOne(row *sql.Row) (*models.ActorState, error) {
	var a models.ActorState
	var rank, alertReason, pursuerID sql.NullString

	err := row.Scan(
		&a.ActorID, &a.DisplayName, &a.OnDuty, &a.DutyStartTime, &a.OffDutyCredit,
		&a.GraceDebt, &rank, &a.HasEarnedBaseCredit, &a.HasBeenNotifiedExpired,
		&a.Searches, &a.SuccessfulSearches, &a.Arrests, &a.Kills, &a.Detections,
		&a.AlertLevel, &a.AlertExpireTime, &alertReason,
		&a.BeingPursued, &pursuerID, &a.PursuitStartTime,
		&a.TotalArrests, &a.TotalViolations, &a.TotalDutyTime, &a.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found is a result, not an error
	}
	if err != nil {
		return nil, err
	}

	a.Rank = rank.String
	a.AlertReason = alertReason.String
	a.PursuerID = pursuerID.String

	return &a, nil
}

func (r *ActorRepository) scanActors(rows *sql.Rows) ([]*models.ActorState, error) {
	var actors []*models.ActorState

	for rows.Next() {
		var a models.ActorState
		var rank, alertReason, pursuerID sql.NullString

		if err := rows.Scan(
			&a.ActorID, &a.DisplayName, &a.OnDuty, &a.DutyStartTime, &a.OffDutyCredit,
			&a.GraceDebt, &rank, &a.HasEarnedBaseCredit, &a.HasBeenNotifiedExpired,
			&a.Searches, &a.SuccessfulSearches, &a.Arrests, &a.Kills, &a.Detections,
			&a.AlertLevel, &a.AlertExpireTime, &alertReason,
			&a.BeingPursued, &pursuerID, &a.PursuitStartTime,
			&a.TotalArrests, &a.TotalViolations, &a.TotalDutyTime, &a.LastUpdated,
		); err != nil {
			return nil, err
		}

		a.Rank = rank.String
		a.AlertReason = alertReason.String
		a.PursuerID = pursuerID.String

		actors = append(actors, &a)
	}

	return actors, rows.Err()
}

// Ensure ActorRepository implements the interface.
var _ secondary.ActorRepository = (*ActorRepository)(nil)
