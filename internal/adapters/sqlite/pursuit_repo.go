package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/ports/secondary"
)

const pursuitColumns = `pursuit_id, enforcer_id, target_id, start_time, duration,
	active, end_reason, end_time, created_at`

// PursuitRepository implements secondary.PursuitRepository using SQLite.
type PursuitRepository struct {
	db *sql.DB
}

// NewPursuitRepository creates a new PursuitRepository.
func NewPursuitRepository(db *sql.DB) *PursuitRepository {
	return &PursuitRepository{db: db}
}

// Save upserts a pursuit record by pursuit id.
func (r *PursuitRepository) Save(ctx context.Context, rec *models.PursuitRecord) error {
	query := `INSERT INTO pursuit_record (` + pursuitColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pursuit_id) DO UPDATE SET
			active = excluded.active,
			end_reason = excluded.end_reason,
			end_time = excluded.end_time`

	var endReason interface{}
	if rec.EndReason != "" {
		endReason = rec.EndReason
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.PursuitID, rec.EnforcerID, rec.TargetID, rec.StartTime, rec.Duration,
		rec.Active, endReason, rec.EndTime, rec.CreatedAt,
	)
	return err
}

// GetByID retrieves a pursuit by its id. Returns (nil, nil) when absent.
func (r *PursuitRepository) GetByID(ctx context.Context, pursuitID string) (*models.PursuitRecord, error) {
	query := `SELECT ` + pursuitColumns + ` FROM pursuit_record WHERE pursuit_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, pursuitID))
}

// ListActive retrieves all pursuits still marked active, oldest first.
func (r *PursuitRepository) ListActive(ctx context.Context) ([]*models.PursuitRecord, error) {
	query := `SELECT ` + pursuitColumns + ` FROM pursuit_record WHERE active = 1 ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPursuits(rows)
}

// GetActiveByEnforcer retrieves the enforcer's active pursuit, if any.
func (r *PursuitRepository) GetActiveByEnforcer(ctx context.Context, enforcerID string) (*models.PursuitRecord, error) {
	query := `SELECT ` + pursuitColumns + ` FROM pursuit_record
		WHERE enforcer_id = ? AND active = 1 LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, enforcerID))
}

// GetActiveByTarget retrieves the active pursuit of a target, if any.
func (r *PursuitRepository) GetActiveByTarget(ctx context.Context, targetID string) (*models.PursuitRecord, error) {
	query := `SELECT ` + pursuitColumns + ` FROM pursuit_record
		WHERE target_id = ? AND active = 1 LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, targetID))
}

// Delete removes a pursuit record.
func (r *PursuitRepository) Delete(ctx context.Context, pursuitID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM pursuit_record WHERE pursuit_id = ?", pursuitID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("pursuit not found: %s", pursuitID)
	}
	return nil
}

// DeleteEndedBefore removes terminated pursuits whose end time is older
// than cutoff. Zero deletions is not an error.
func (r *PursuitRepository) DeleteEndedBefore(ctx context.Context, cutoff int64) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM pursuit_record WHERE active = 0 AND end_time > 0 AND end_time < ?", cutoff)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// CountActive returns the number of active pursuit rows.
func (r *PursuitRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pursuit_record WHERE active = 1").Scan(&n)
	return n, err
}

func (r *PursuitRepository) scanOne(row *sql.Row) (*models.PursuitRecord, error) {
	var p models.PursuitRecord
	var endReason sql.NullString

	err := row.Scan(
		&p.PursuitID, &p.EnforcerID, &p.TargetID, &p.StartTime, &p.Duration,
		&p.Active, &endReason, &p.EndTime, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.EndReason = endReason.String
	return &p, nil
}

func (r *PursuitRepository) scanPursuits(rows *sql.Rows) ([]*models.PursuitRecord, error) {
	var pursuits []*models.PursuitRecord

	for rows.Next() {
		var p models.PursuitRecord
		var endReason sql.NullString

		if err := rows.Scan(
			&p.PursuitID, &p.EnforcerID, &p.TargetID, &p.StartTime, &p.Duration,
			&p.Active, &endReason, &p.EndTime, &p.CreatedAt,
		); err != nil {
			return nil, err
		}

		p.EndReason = endReason.String
		pursuits = append(pursuits, &p)
	}

	return pursuits, rows.Err()
}

// Ensure PursuitRepository implements the interface.
var _ secondary.PursuitRepository = (*PursuitRepository)(nil)
