package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/internal/repository"
	"github.com/noah-isme/physed-journal-api/pkg/database"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

type ledgerRepository interface {
	FindLedger(ctx context.Context, studentGUID string) (*models.StudentLedger, error)
	UpdateLedger(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
}

type teacherReader interface {
	FindByGUID(ctx context.Context, teacherGUID string) (*models.Teacher, error)
}

// DebtCloser archives an indebted student once their points reach the threshold.
type DebtCloser interface {
	CloseDebtIfCleared(ctx context.Context, studentGUID string) (bool, error)
}

// DeleteRecordRequest identifies a history record to remove.
type DeleteRecordRequest struct {
	ID     int64 `validate:"required,gt=0"`
	Caller models.Caller
}

// MutationResult is returned by every ledger command.
type MutationResult struct {
	RecordID    int64                `json:"record_id,omitempty"`
	Ledger      models.StudentLedger `json:"ledger"`
	TotalPoints float64              `json:"total_points"`
}

// CommandDeps bundles the collaborators shared by the visit, points and standards services.
type CommandDeps struct {
	Students  ledgerRepository
	Teachers  teacherReader
	Tx        database.TxProvider
	Validator *EntryValidator
	Validate  *validator.Validate
	Metrics   *MetricsService
	Logger    *zap.Logger
	// DebtCloser is optional; when set, indebted students are archived as soon as a command clears their debt.
	DebtCloser DebtCloser
}

type ledgerCommand struct {
	CommandDeps
}

func newLedgerCommand(deps CommandDeps) ledgerCommand {
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return ledgerCommand{CommandDeps: deps}
}

func (c ledgerCommand) loadLedger(ctx context.Context, studentGUID string) (*models.StudentLedger, error) {
	return loadStudentLedger(ctx, c.Students, studentGUID)
}

func loadStudentLedger(ctx context.Context, students ledgerRepository, studentGUID string) (*models.StudentLedger, error) {
	ledger, err := students.FindLedger(ctx, studentGUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return ledger, nil
}

func (c ledgerCommand) ensureTeacher(ctx context.Context, teacherGUID string) error {
	if teacherGUID == "" {
		return appErrors.ErrTeacherNotFound
	}
	if _, err := c.Teachers.FindByGUID(ctx, teacherGUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrTeacherNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}

func (c ledgerCommand) checkDeletion(caller models.Caller, owner string, rule CategoryRule, age int) error {
	if caller.TeacherGUID != owner && !caller.Privileged {
		return appErrors.ErrTeacherMismatch
	}
	if !caller.Privileged && age > rule.DeleteWindowDays {
		return appErrors.HistoryDeleteExpired(rule.DeleteWindowDays)
	}
	return nil
}

// persist runs fn and the ledger compare-and-swap in one transaction.
func (c ledgerCommand) persist(ctx context.Context, ledger *models.StudentLedger, fn func(tx *sqlx.Tx) error) error {
	err := database.WithTx(ctx, c.Tx, func(tx *sqlx.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return c.Students.UpdateLedger(ctx, tx, &ledger.Student)
	})
	return translatePersistError(err)
}

func (c ledgerCommand) finish(ctx context.Context, command string, ledger *models.StudentLedger, recordID int64, err error) (*MutationResult, error) {
	c.Metrics.ObserveCommand(command, err)
	if err != nil {
		c.Logger.Debug("ledger command rejected", zap.String("command", command), zap.String("code", appErrors.FromError(err).Code))
		return nil, err
	}
	c.Logger.Info("ledger command applied",
		zap.String("command", command),
		zap.String("student_guid", ledger.StudentGUID),
		zap.Int64("record_id", recordID),
		zap.Int64("version", ledger.Version),
	)
	c.closeDebt(ctx, ledger)
	return &MutationResult{RecordID: recordID, Ledger: *ledger, TotalPoints: ledger.TotalPoints()}, nil
}

func (c ledgerCommand) closeDebt(ctx context.Context, ledger *models.StudentLedger) {
	if c.DebtCloser == nil || !ledger.HasDebtFromPreviousSemester {
		return
	}
	archived, err := c.DebtCloser.CloseDebtIfCleared(ctx, ledger.StudentGUID)
	if err != nil {
		c.Logger.Warn("debt closure after command failed", zap.String("student_guid", ledger.StudentGUID), zap.Error(err))
		return
	}
	if archived {
		c.Logger.Info("student debt closed", zap.String("student_guid", ledger.StudentGUID))
	}
}

func (c ledgerCommand) validateRequest(req interface{}, message string) error {
	if err := c.Validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func translatePersistError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return appErrors.ErrConcurrencyConflict
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrRecordNotFound
	}
	if repository.IsUniqueViolation(err) {
		return appErrors.ErrDuplicateCategoryRecord
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist ledger change")
}

func lookupRecordError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrRecordNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}
