package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/database"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

// semesterNamePattern matches "2023-2024/spring": a year range, a slash and a season word.
var semesterNamePattern = regexp.MustCompile(`^\d{4}-\d{4}/\p{L}{5,}$`)

// ValidSemesterName reports whether name is a well-formed semester name.
func ValidSemesterName(name string) bool {
	return semesterNamePattern.MatchString(name)
}

type semesterRepository interface {
	Current(ctx context.Context) (*models.Semester, error)
	List(ctx context.Context) ([]models.Semester, error)
	ClearCurrent(ctx context.Context, exec sqlx.ExtContext) error
	MarkCurrent(ctx context.Context, exec sqlx.ExtContext, name string) error
}

// StartSemesterRequest names the semester that becomes current.
type StartSemesterRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// SemesterService keeps the registry of semesters with exactly one current row.
type SemesterService struct {
	repo      semesterRepository
	tx        database.TxProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService creates a semester registry.
func NewSemesterService(repo semesterRepository, tx database.TxProvider, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, tx: tx, validator: validate, logger: logger}
}

// Current returns the current semester.
func (s *SemesterService) Current(ctx context.Context) (*models.Semester, error) {
	semester, err := s.repo.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSemesterNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current semester")
	}
	return semester, nil
}

// List returns every known semester.
func (s *SemesterService) List(ctx context.Context) ([]models.Semester, error) {
	semesters, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, nil
}

// StartNewSemester makes name the current semester. Starting the semester that is already
// current is a no-op; the second return value reports whether the registry changed.
func (s *SemesterService) StartNewSemester(ctx context.Context, req StartSemesterRequest) (*models.Semester, bool, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if !ValidSemesterName(req.Name) {
		return nil, false, appErrors.ErrSemesterNameInvalid
	}

	current, err := s.repo.Current(ctx)
	switch {
	case err == nil && current.Name == req.Name:
		return current, false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current semester")
	}

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.ClearCurrent(ctx, tx); err != nil {
			return err
		}
		return s.repo.MarkCurrent(ctx, tx, req.Name)
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start semester")
	}

	s.logger.Info("semester started", zap.String("semester", req.Name))
	return &models.Semester{Name: req.Name, IsCurrent: true}, true, nil
}
