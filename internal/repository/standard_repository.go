package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

const standardColumns = `id, student_guid, teacher_guid, date, points, standard_type, comment`

// StandardRepository persists passed fitness standards.
type StandardRepository struct {
	db *sqlx.DB
}

// NewStandardRepository constructs a StandardRepository.
func NewStandardRepository(db *sqlx.DB) *StandardRepository {
	return &StandardRepository{db: db}
}

func (r *StandardRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a standard record and fills its generated id.
func (r *StandardRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.StandardRecord) error {
	const query = `INSERT INTO standards_history (student_guid, teacher_guid, date, points, standard_type, comment)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &record.ID, query,
		record.StudentGUID, record.TeacherGUID, record.Date, record.Points, record.StandardType, record.Comment); err != nil {
		return fmt.Errorf("insert standard: %w", err)
	}
	return nil
}

// FindByID fetches a standard record.
func (r *StandardRepository) FindByID(ctx context.Context, id int64) (*models.StandardRecord, error) {
	query := `SELECT ` + standardColumns + ` FROM standards_history WHERE id = $1`
	var record models.StandardRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// MaxByType returns the best score recorded for the standard type, if any.
func (r *StandardRepository) MaxByType(ctx context.Context, studentGUID string, standardType models.StandardType) (int, bool, error) {
	const query = `SELECT MAX(points) FROM standards_history WHERE student_guid = $1 AND standard_type = $2`
	var best sql.NullInt64
	if err := r.db.GetContext(ctx, &best, query, studentGUID, standardType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("max standard points: %w", err)
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

// SumByStudent totals the student's standard points.
func (r *StandardRepository) SumByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) (int, error) {
	const query = `SELECT COALESCE(SUM(points), 0) FROM standards_history WHERE student_guid = $1`
	var sum int
	if err := sqlx.GetContext(ctx, r.exec(exec), &sum, query, studentGUID); err != nil {
		return 0, fmt.Errorf("sum standards: %w", err)
	}
	return sum, nil
}

// Delete removes a standard record by id; a missing row yields sql.ErrNoRows.
func (r *StandardRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM standards_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete standard: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete standard %d: %w", id, err)
	}
	return nil
}

// DeleteByType removes every record of one standard type for the student.
func (r *StandardRepository) DeleteByType(ctx context.Context, exec sqlx.ExtContext, studentGUID string, standardType models.StandardType) error {
	const query = `DELETE FROM standards_history WHERE student_guid = $1 AND standard_type = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, studentGUID, standardType); err != nil {
		return fmt.Errorf("delete standards by type: %w", err)
	}
	return nil
}

// ListByStudent returns the student's standard records oldest first.
func (r *StandardRepository) ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) ([]models.StandardRecord, error) {
	query := `SELECT ` + standardColumns + ` FROM standards_history WHERE student_guid = $1 ORDER BY date, id`
	var records []models.StandardRecord
	if err := sqlx.SelectContext(ctx, r.exec(exec), &records, query, studentGUID); err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	return records, nil
}

// DeleteByStudent removes every standard record of the student.
func (r *StandardRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM standards_history WHERE student_guid = $1`, studentGUID); err != nil {
		return fmt.Errorf("delete student standards: %w", err)
	}
	return nil
}

// DeleteByIDs removes the given records in one statement.
func (r *StandardRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM standards_history WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete standards: %w", err)
	}
	return nil
}
