package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

// SemesterRepository persists academic terms.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

func (r *SemesterRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Current returns the semester flagged current.
func (r *SemesterRepository) Current(ctx context.Context) (*models.Semester, error) {
	const query = `SELECT name, is_current, created_at FROM semesters WHERE is_current = TRUE LIMIT 1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query); err != nil {
		return nil, err
	}
	return &semester, nil
}

// List returns every semester, newest first.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	const query = `SELECT name, is_current, created_at FROM semesters ORDER BY created_at DESC, name DESC`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// ClearCurrent drops the current flag from every semester.
func (r *SemesterRepository) ClearCurrent(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, `UPDATE semesters SET is_current = FALSE WHERE is_current = TRUE`); err != nil {
		return fmt.Errorf("clear current semester: %w", err)
	}
	return nil
}

// MarkCurrent inserts the named semester or re-flags an existing row as current.
func (r *SemesterRepository) MarkCurrent(ctx context.Context, exec sqlx.ExtContext, name string) error {
	const query = `INSERT INTO semesters (name, is_current, created_at) VALUES ($1, TRUE, $2)
        ON CONFLICT (name) DO UPDATE SET is_current = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark semester %s current: %w", name, err)
	}
	return nil
}
