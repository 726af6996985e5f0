package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/cache"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

type permissionCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// PermissionService resolves teacher permission flags through a read-through cache.
// Cache failures fall back to the repository.
type PermissionService struct {
	teachers teacherReader
	cache    permissionCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewPermissionService constructs the resolver. A nil cache always reads the repository.
func NewPermissionService(teachers teacherReader, cache permissionCache, ttl time.Duration, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{teachers: teachers, cache: cache, ttl: ttl, logger: logger}
}

func permissionKey(teacherGUID string) string {
	return cache.Key("teacher", "permissions", teacherGUID)
}

// Permissions returns the permission flags of a teacher.
func (s *PermissionService) Permissions(ctx context.Context, teacherGUID string) (models.TeacherPermission, error) {
	key := permissionKey(teacherGUID)
	if s.cache != nil {
		var cached models.TeacherPermission
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Debug("permission cache unavailable", zap.String("teacher_guid", teacherGUID), zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	teacher, err := s.teachers.FindByGUID(ctx, teacherGUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PermissionDefault, appErrors.ErrTeacherNotFound
		}
		return models.PermissionDefault, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher permissions")
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, teacher.Permissions, s.ttl)
	}
	return teacher.Permissions, nil
}

// Resolve turns a token subject into a command caller.
func (s *PermissionService) Resolve(ctx context.Context, teacherGUID string) (models.Caller, error) {
	permissions, err := s.Permissions(ctx, teacherGUID)
	if err != nil {
		return models.Caller{}, err
	}
	return models.Caller{TeacherGUID: teacherGUID, Privileged: permissions.Privileged()}, nil
}

// Invalidate drops the cached flags of a teacher.
func (s *PermissionService) Invalidate(ctx context.Context, teacherGUID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, permissionKey(teacherGUID))
}
