package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

// VisitRepository persists attendance records.
type VisitRepository struct {
	db *sqlx.DB
}

// NewVisitRepository constructs a VisitRepository.
func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a visit and fills its generated id.
func (r *VisitRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.VisitRecord) error {
	const query = `INSERT INTO visits_history (student_guid, teacher_guid, date) VALUES ($1, $2, $3) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &record.ID, query, record.StudentGUID, record.TeacherGUID, record.Date); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// FindByID fetches a visit record.
func (r *VisitRepository) FindByID(ctx context.Context, id int64) (*models.VisitRecord, error) {
	const query = `SELECT id, student_guid, teacher_guid, date FROM visits_history WHERE id = $1`
	var record models.VisitRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsOnDate reports whether the student already has a visit on date.
func (r *VisitRepository) ExistsOnDate(ctx context.Context, studentGUID string, date time.Time) (bool, error) {
	const query = `SELECT 1 FROM visits_history WHERE student_guid = $1 AND date = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentGUID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check visit date: %w", err)
	}
	return true, nil
}

// Delete removes a visit by id; a missing row yields sql.ErrNoRows.
func (r *VisitRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM visits_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete visit %d: %w", id, err)
	}
	return nil
}

// ListByStudent returns the student's visits oldest first.
func (r *VisitRepository) ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) ([]models.VisitRecord, error) {
	const query = `SELECT id, student_guid, teacher_guid, date FROM visits_history WHERE student_guid = $1 ORDER BY date, id`
	var records []models.VisitRecord
	if err := sqlx.SelectContext(ctx, r.exec(exec), &records, query, studentGUID); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return records, nil
}

// DeleteByIDs removes the given visits in one statement.
func (r *VisitRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM visits_history WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete visits: %w", err)
	}
	return nil
}

// DeleteByStudent removes every visit of the student.
func (r *VisitRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM visits_history WHERE student_guid = $1`, studentGUID); err != nil {
		return fmt.Errorf("delete student visits: %w", err)
	}
	return nil
}
