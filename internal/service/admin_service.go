package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

type studentActivator interface {
	SetActive(ctx context.Context, studentGUID string, active bool) error
}

type groupStore interface {
	FindByName(ctx context.Context, groupName string) (*models.Group, error)
	UpdateVisitValue(ctx context.Context, groupName string, visitValue float64) error
	UpdateCurator(ctx context.Context, groupName, curatorGUID string) error
}

type teacherPermissionStore interface {
	FindByGUID(ctx context.Context, teacherGUID string) (*models.Teacher, error)
	UpdatePermissions(ctx context.Context, teacherGUID string, permissions models.TeacherPermission) error
}

type permissionInvalidator interface {
	Invalidate(ctx context.Context, teacherGUID string) error
}

// AssignVisitValueRequest sets the per-visit credit of a group.
type AssignVisitValueRequest struct {
	GroupName  string  `validate:"required,max=64"`
	VisitValue float64 `validate:"-"`
}

// AssignCuratorRequest makes a teacher the curator of a group.
type AssignCuratorRequest struct {
	GroupName   string `validate:"required,max=64"`
	TeacherGUID string `validate:"required,max=64"`
}

// GivePermissionsRequest replaces the permission flags of a teacher.
type GivePermissionsRequest struct {
	TeacherGUID string `validate:"required,max=64"`
	Permissions models.TeacherPermission
}

// AdminService runs the administrative commands on students, groups and teachers.
type AdminService struct {
	students    studentActivator
	groups      groupStore
	teachers    teacherPermissionStore
	permissions permissionInvalidator
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAdminService constructs an AdminService. permissions may be nil when no cache is in front of the teachers table.
func NewAdminService(students studentActivator, groups groupStore, teachers teacherPermissionStore, permissions permissionInvalidator, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		students:    students,
		groups:      groups,
		teachers:    teachers,
		permissions: permissions,
		validate:    validate,
		logger:      logger,
	}
}

// ActivateStudent makes bulk runs pick the student up again.
func (s *AdminService) ActivateStudent(ctx context.Context, studentGUID string) error {
	return s.setActive(ctx, studentGUID, true)
}

// DeactivateStudent excludes the student from bulk runs.
func (s *AdminService) DeactivateStudent(ctx context.Context, studentGUID string) error {
	return s.setActive(ctx, studentGUID, false)
}

func (s *AdminService) setActive(ctx context.Context, studentGUID string, active bool) error {
	studentGUID = strings.TrimSpace(studentGUID)
	if studentGUID == "" {
		return appErrors.ErrStudentNotFound
	}
	if err := s.students.SetActive(ctx, studentGUID, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrStudentNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.logger.Info("student activity changed", zap.String("student_guid", studentGUID), zap.Bool("active", active))
	return nil
}

// AssignVisitValue changes the per-visit credit of a group. Indebted students keep their snapshotted value.
func (s *AdminService) AssignVisitValue(ctx context.Context, req AssignVisitValueRequest) (*models.Group, error) {
	req.GroupName = strings.TrimSpace(req.GroupName)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visit value payload")
	}
	if req.VisitValue <= 0 {
		return nil, appErrors.ErrVisitValueInvalid
	}
	if err := s.groups.UpdateVisitValue(ctx, req.GroupName, req.VisitValue); err != nil {
		return nil, groupError(err)
	}
	s.logger.Info("group visit value assigned", zap.String("group", req.GroupName), zap.Float64("visit_value", req.VisitValue))
	return s.loadGroup(ctx, req.GroupName)
}

// AssignCurator makes an existing teacher the curator of a group.
func (s *AdminService) AssignCurator(ctx context.Context, req AssignCuratorRequest) (*models.Group, error) {
	req.GroupName = strings.TrimSpace(req.GroupName)
	req.TeacherGUID = strings.TrimSpace(req.TeacherGUID)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curator payload")
	}
	if _, err := s.findTeacher(ctx, req.TeacherGUID); err != nil {
		return nil, err
	}
	if err := s.groups.UpdateCurator(ctx, req.GroupName, req.TeacherGUID); err != nil {
		return nil, groupError(err)
	}
	s.logger.Info("group curator assigned", zap.String("group", req.GroupName), zap.String("teacher_guid", req.TeacherGUID))
	return s.loadGroup(ctx, req.GroupName)
}

// GivePermissions replaces the flags of a teacher and drops their cached permissions.
// The SuperUser flag can never be granted.
func (s *AdminService) GivePermissions(ctx context.Context, req GivePermissionsRequest) (*models.Teacher, error) {
	req.TeacherGUID = strings.TrimSpace(req.TeacherGUID)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permissions payload")
	}
	if req.Permissions.Has(models.PermissionSuperUser) {
		return nil, appErrors.ErrCannotGrantSuperUser
	}
	if req.Permissions < 0 || req.Permissions > models.PermissionAll {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown permission flags")
	}
	teacher, err := s.findTeacher(ctx, req.TeacherGUID)
	if err != nil {
		return nil, err
	}
	if err := s.teachers.UpdatePermissions(ctx, req.TeacherGUID, req.Permissions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTeacherNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permissions")
	}
	if s.permissions != nil {
		if err := s.permissions.Invalidate(ctx, req.TeacherGUID); err != nil {
			s.logger.Warn("permission cache invalidation failed", zap.String("teacher_guid", req.TeacherGUID), zap.Error(err))
		}
	}
	teacher.Permissions = req.Permissions
	s.logger.Info("teacher permissions granted", zap.String("teacher_guid", req.TeacherGUID), zap.Int("permissions", int(req.Permissions)))
	return teacher, nil
}

func (s *AdminService) findTeacher(ctx context.Context, teacherGUID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByGUID(ctx, teacherGUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTeacherNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *AdminService) loadGroup(ctx context.Context, groupName string) (*models.Group, error) {
	group, err := s.groups.FindByName(ctx, groupName)
	if err != nil {
		return nil, groupError(err)
	}
	return group, nil
}

func groupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrGroupNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
}
