package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

// TeacherRepository reads teachers and their permission flags.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByGUID fetches a teacher by identifier.
func (r *TeacherRepository) FindByGUID(ctx context.Context, teacherGUID string) (*models.Teacher, error) {
	const query = `SELECT teacher_guid, full_name, permissions FROM teachers WHERE teacher_guid = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, teacherGUID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// UpdatePermissions replaces the permission flags; a missing teacher yields sql.ErrNoRows.
func (r *TeacherRepository) UpdatePermissions(ctx context.Context, teacherGUID string, permissions models.TeacherPermission) error {
	res, err := r.db.ExecContext(ctx, `UPDATE teachers SET permissions = $1 WHERE teacher_guid = $2`, permissions, teacherGUID)
	if err != nil {
		return fmt.Errorf("update permissions: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update permissions %s: %w", teacherGUID, err)
	}
	return nil
}
