package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

// ErrVersionConflict signals that a compare-and-swap update matched no row.
var ErrVersionConflict = errors.New("student version conflict")

// IsUniqueViolation reports whether err carries a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// requireAffected turns a statement that matched no row into sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const ledgerColumns = `s.student_guid, s.full_name, s.group_number, s.course, s.current_semester_name, s.visits,
        s.additional_points, s.points_for_standards, s.archived_visit_value, s.has_debt_from_previous_semester,
        s.had_debt_in_semester, s.is_active, s.version, s.updated_at, g.visit_value, g.curator_guid`

// StudentRepository manages persistence for student ledgers.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindLedger loads a student together with the visit value of their group.
func (r *StudentRepository) FindLedger(ctx context.Context, studentGUID string) (*models.StudentLedger, error) {
	query := `SELECT ` + ledgerColumns + `
        FROM students s
        JOIN groups g ON g.group_name = s.group_number
        WHERE s.student_guid = $1`
	var ledger models.StudentLedger
	if err := r.db.GetContext(ctx, &ledger, query, studentGUID); err != nil {
		return nil, err
	}
	return &ledger, nil
}

// UpdateLedger writes the mutable counters guarded by the version token. On success
// the in-memory version is advanced; a stale version yields ErrVersionConflict.
func (r *StudentRepository) UpdateLedger(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if student == nil {
		return fmt.Errorf("student payload is nil")
	}
	student.UpdatedAt = time.Now().UTC()
	query := `UPDATE students SET visits = $1, additional_points = $2, points_for_standards = $3,
        archived_visit_value = $4, has_debt_from_previous_semester = $5, had_debt_in_semester = $6,
        current_semester_name = $7, updated_at = $8, version = version + 1
        WHERE student_guid = $9 AND version = $10`
	res, err := r.exec(exec).ExecContext(ctx, query,
		student.Visits,
		student.AdditionalPoints,
		student.PointsForStandards,
		student.ArchivedVisitValue,
		student.HasDebtFromPreviousSemester,
		student.HadDebtInSemester,
		student.CurrentSemesterName,
		student.UpdatedAt,
		student.StudentGUID,
		student.Version,
	)
	if err != nil {
		return fmt.Errorf("update student ledger: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student ledger rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	student.Version++
	return nil
}

// ListGUIDs returns student identifiers matching the filter ordered by guid.
func (r *StudentRepository) ListGUIDs(ctx context.Context, filter models.StudentFilter) ([]string, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.WithDebt != nil {
		conditions = append(conditions, fmt.Sprintf("has_debt_from_previous_semester = $%d", len(args)+1))
		args = append(args, *filter.WithDebt)
	}
	if filter.ExcludeSemester != "" {
		conditions = append(conditions, fmt.Sprintf("current_semester_name <> $%d", len(args)+1))
		args = append(args, filter.ExcludeSemester)
	}
	query := fmt.Sprintf("SELECT student_guid FROM students WHERE %s ORDER BY student_guid", strings.Join(conditions, " AND "))

	var guids []string
	if err := r.db.SelectContext(ctx, &guids, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return guids, nil
}

// SetActive toggles whether bulk runs pick the student up; a missing student yields sql.ErrNoRows.
func (r *StudentRepository) SetActive(ctx context.Context, studentGUID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET is_active = $1, updated_at = $2 WHERE student_guid = $3`,
		active, time.Now().UTC(), studentGUID)
	if err != nil {
		return fmt.Errorf("set student active: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("set student active %s: %w", studentGUID, err)
	}
	return nil
}
