package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

const archiveColumns = `id, student_guid, semester_name, full_name, group_number, total_points, visits, visit_value,
        additional_points, points_for_standards, visits_history, points_history, standards_history, archived_by, archived_at`

// ArchiveRepository stores immutable semester snapshots. Rows are never updated.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository constructs an ArchiveRepository.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func (r *ArchiveRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the snapshot and fills its generated id.
func (r *ArchiveRepository) Create(ctx context.Context, exec sqlx.ExtContext, archived *models.ArchivedStudent) error {
	if archived == nil {
		return fmt.Errorf("archive payload is nil")
	}
	if archived.ArchivedAt.IsZero() {
		archived.ArchivedAt = time.Now().UTC()
	}
	const query = `INSERT INTO archived_students (student_guid, semester_name, full_name, group_number, total_points, visits,
        visit_value, additional_points, points_for_standards, visits_history, points_history, standards_history, archived_by, archived_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &archived.ID, query,
		archived.StudentGUID,
		archived.SemesterName,
		archived.FullName,
		archived.GroupNumber,
		archived.TotalPoints,
		archived.Visits,
		archived.VisitValue,
		archived.AdditionalPoints,
		archived.PointsForStandards,
		archived.VisitsHistory,
		archived.PointsHistory,
		archived.StandardsHistory,
		archived.ArchivedBy,
		archived.ArchivedAt,
	); err != nil {
		return fmt.Errorf("insert archived student: %w", err)
	}
	return nil
}

// ListByStudent returns every snapshot of the student, newest first.
func (r *ArchiveRepository) ListByStudent(ctx context.Context, studentGUID string) ([]models.ArchivedStudent, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_students WHERE student_guid = $1 ORDER BY archived_at DESC, id DESC`
	var archived []models.ArchivedStudent
	if err := r.db.SelectContext(ctx, &archived, query, studentGUID); err != nil {
		return nil, fmt.Errorf("list archived students: %w", err)
	}
	return archived, nil
}

// FindLatest returns the newest snapshot of the student for one semester.
func (r *ArchiveRepository) FindLatest(ctx context.Context, studentGUID, semesterName string) (*models.ArchivedStudent, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_students
        WHERE student_guid = $1 AND semester_name = $2 ORDER BY archived_at DESC, id DESC LIMIT 1`
	var archived models.ArchivedStudent
	if err := r.db.GetContext(ctx, &archived, query, studentGUID, semesterName); err != nil {
		return nil, err
	}
	return &archived, nil
}

// Delete removes a snapshot; a missing row yields sql.ErrNoRows.
func (r *ArchiveRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM archived_students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete archived student: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete archived student %d: %w", id, err)
	}
	return nil
}
