package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

const pointColumns = `id, student_guid, teacher_guid, date, points, work_type, comment`

// PointRepository persists additional point grants.
type PointRepository struct {
	db *sqlx.DB
}

// NewPointRepository constructs a PointRepository.
func NewPointRepository(db *sqlx.DB) *PointRepository {
	return &PointRepository{db: db}
}

func (r *PointRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a point record and fills its generated id.
func (r *PointRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.PointRecord) error {
	const query = `INSERT INTO points_history (student_guid, teacher_guid, date, points, work_type, comment)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &record.ID, query,
		record.StudentGUID, record.TeacherGUID, record.Date, record.Points, record.WorkType, record.Comment); err != nil {
		return fmt.Errorf("insert points: %w", err)
	}
	return nil
}

// FindByID fetches a point record.
func (r *PointRepository) FindByID(ctx context.Context, id int64) (*models.PointRecord, error) {
	query := `SELECT ` + pointColumns + ` FROM points_history WHERE id = $1`
	var record models.PointRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// CountByWorkType counts the student's records of one work type.
func (r *PointRepository) CountByWorkType(ctx context.Context, studentGUID string, workType models.WorkType) (int, error) {
	const query = `SELECT COUNT(1) FROM points_history WHERE student_guid = $1 AND work_type = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentGUID, workType); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return count, nil
}

// Delete removes a point record by id; a missing row yields sql.ErrNoRows.
func (r *PointRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM points_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete points %d: %w", id, err)
	}
	return nil
}

// ListByStudent returns the student's point records oldest first.
func (r *PointRepository) ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) ([]models.PointRecord, error) {
	query := `SELECT ` + pointColumns + ` FROM points_history WHERE student_guid = $1 ORDER BY date, id`
	var records []models.PointRecord
	if err := sqlx.SelectContext(ctx, r.exec(exec), &records, query, studentGUID); err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return records, nil
}

// DeleteByStudent removes every point record of the student.
func (r *PointRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM points_history WHERE student_guid = $1`, studentGUID); err != nil {
		return fmt.Errorf("delete student points: %w", err)
	}
	return nil
}

// DeleteByIDs removes the given records in one statement.
func (r *PointRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM points_history WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}
