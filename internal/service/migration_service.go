package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

type studentLister interface {
	ListGUIDs(ctx context.Context, filter models.StudentFilter) ([]string, error)
}

type studentArchiver interface {
	ArchiveStudent(ctx context.Context, req ArchiveStudentRequest) (*models.ArchivedStudent, error)
	CloseDebtIfCleared(ctx context.Context, studentGUID string) (bool, error)
}

// MigrationSummary reports the outcome of one bulk run.
type MigrationSummary struct {
	Target     string            `json:"target"`
	Total      int               `json:"total"`
	Archived   int               `json:"archived"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Duration   time.Duration     `json:"duration"`
	Cancelled  bool              `json:"cancelled"`
	FailedByID map[string]string `json:"failed_by_id,omitempty"`
}

// MigrationService moves every eligible student into a new semester, one at a time.
type MigrationService struct {
	students studentLister
	archiver studentArchiver
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewMigrationService constructs the bulk migrator.
func NewMigrationService(students studentLister, archiver studentArchiver, metrics *MetricsService, logger *zap.Logger) *MigrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationService{students: students, archiver: archiver, metrics: metrics, logger: logger}
}

// Run archives every active, non-indebted student whose semester differs from target.
// A failing student is logged and counted; the run goes on. Cancellation is honoured between students.
func (s *MigrationService) Run(ctx context.Context, target string) (*MigrationSummary, error) {
	if !ValidSemesterName(target) {
		return nil, appErrors.ErrSemesterNameInvalid
	}
	noDebt := false
	guids, err := s.students.ListGUIDs(ctx, models.StudentFilter{
		ExcludeSemester: target,
		ActiveOnly:      true,
		WithDebt:        &noDebt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students for migration")
	}

	summary := s.each(ctx, target, guids, func(ctx context.Context, guid string) (bool, error) {
		_, err := s.archiver.ArchiveStudent(ctx, ArchiveStudentRequest{
			StudentGUID:    guid,
			TargetSemester: target,
			Caller:         SystemCaller,
		})
		return err == nil, err
	})
	s.metrics.ObserveMigration("semester", summary)
	s.logger.Info("semester migration finished",
		zap.String("target", target),
		zap.Int("total", summary.Total),
		zap.Int("archived", summary.Archived),
		zap.Int("failed", summary.Failed),
		zap.Bool("cancelled", summary.Cancelled),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// RunDebtors archives indebted students whose points now meet the threshold.
func (s *MigrationService) RunDebtors(ctx context.Context) (*MigrationSummary, error) {
	withDebt := true
	guids, err := s.students.ListGUIDs(ctx, models.StudentFilter{ActiveOnly: true, WithDebt: &withDebt})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list indebted students")
	}

	summary := s.each(ctx, "", guids, s.archiver.CloseDebtIfCleared)
	s.metrics.ObserveMigration("debt", summary)
	s.logger.Info("debt sweep finished",
		zap.Int("total", summary.Total),
		zap.Int("archived", summary.Archived),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *MigrationService) each(ctx context.Context, target string, guids []string, fn func(context.Context, string) (bool, error)) *MigrationSummary {
	start := time.Now()
	summary := &MigrationSummary{Target: target, Total: len(guids)}
	for _, guid := range guids {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		archived, err := fn(ctx, guid)
		switch {
		case err != nil:
			summary.Failed++
			if summary.FailedByID == nil {
				summary.FailedByID = make(map[string]string)
			}
			summary.FailedByID[guid] = appErrors.FromError(err).Code
			s.logger.Warn("student migration failed", zap.String("student_guid", guid), zap.String("target", target), zap.Error(err))
		case archived:
			summary.Archived++
		default:
			summary.Skipped++
		}
	}
	summary.Duration = time.Since(start)
	return summary
}
