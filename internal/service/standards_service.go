package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/clock"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

type standardRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.StandardRecord) error
	FindByID(ctx context.Context, id int64) (*models.StandardRecord, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	DeleteByType(ctx context.Context, exec sqlx.ExtContext, studentGUID string, standardType models.StandardType) error
	SumByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) (int, error)
}

// AddStandardRequest records a fitness standard result. With IsOverride the new
// score replaces every earlier result of the same standard unless it is lower.
type AddStandardRequest struct {
	StudentGUID  string              `validate:"required"`
	Date         time.Time           `validate:"required"`
	Points       int                 `validate:"-"`
	StandardType models.StandardType `validate:"required"`
	IsOverride   bool
	Comment      *string `validate:"omitempty,max=500"`
	Caller       models.Caller
}

// StandardsService records and removes standard results.
type StandardsService struct {
	ledgerCommand
	standards standardRepository
}

// NewStandardsService constructs a StandardsService.
func NewStandardsService(deps CommandDeps, standards standardRepository) *StandardsService {
	return &StandardsService{ledgerCommand: newLedgerCommand(deps), standards: standards}
}

// AddStandard validates and stores a result, then recomputes the capped standards total.
func (s *StandardsService) AddStandard(ctx context.Context, req AddStandardRequest) (*MutationResult, error) {
	ledger, recordID, err := s.addStandard(ctx, req)
	command := "add_standard"
	if req.IsOverride {
		command = "override_standard"
	}
	return s.finish(ctx, command, ledger, recordID, err)
}

func (s *StandardsService) addStandard(ctx context.Context, req AddStandardRequest) (*models.StudentLedger, int64, error) {
	if err := s.validateRequest(req, "invalid standard payload"); err != nil {
		return nil, 0, err
	}
	ledger, err := s.loadLedger(ctx, req.StudentGUID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.ensureTeacher(ctx, req.Caller.TeacherGUID); err != nil {
		return nil, 0, err
	}
	entry, err := s.Validator.Validate(ctx, EntryCheck{
		Category:    StandardCategory{StandardType: req.StandardType, Course: ledger.Course},
		StudentGUID: ledger.StudentGUID,
		Date:        req.Date,
		Points:      req.Points,
		Comment:     req.Comment,
		Privileged:  req.Caller.Privileged,
		Override:    req.IsOverride,
	})
	if err != nil {
		return nil, 0, err
	}
	minTotal := s.Validator.rules.Config().MinTotalPointsToAddStandards
	if ledger.TotalPoints() < float64(minTotal) {
		return nil, 0, appErrors.NotEnoughPointsForStandards(minTotal)
	}

	record := &models.StandardRecord{
		StudentGUID:  ledger.StudentGUID,
		TeacherGUID:  req.Caller.TeacherGUID,
		Date:         entry.Date,
		Points:       entry.Points,
		StandardType: req.StandardType,
		Comment:      entry.Comment,
	}
	err = s.persist(ctx, ledger, func(tx *sqlx.Tx) error {
		if entry.HasExisting {
			if err := s.standards.DeleteByType(ctx, tx, ledger.StudentGUID, req.StandardType); err != nil {
				return err
			}
		}
		if err := s.standards.Create(ctx, tx, record); err != nil {
			return err
		}
		return s.recomputeStandards(ctx, tx, ledger)
	})
	if err != nil {
		return nil, 0, err
	}
	return ledger, record.ID, nil
}

// DeleteStandard removes a result and recomputes the capped standards total.
func (s *StandardsService) DeleteStandard(ctx context.Context, req DeleteRecordRequest) (*MutationResult, error) {
	ledger, err := s.deleteStandard(ctx, req)
	return s.finish(ctx, "delete_standard", ledger, req.ID, err)
}

func (s *StandardsService) deleteStandard(ctx context.Context, req DeleteRecordRequest) (*models.StudentLedger, error) {
	if err := s.validateRequest(req, "invalid standard id"); err != nil {
		return nil, err
	}
	if err := s.ensureTeacher(ctx, req.Caller.TeacherGUID); err != nil {
		return nil, err
	}
	record, err := s.standards.FindByID(ctx, req.ID)
	if err != nil {
		return nil, lookupRecordError(err, "standard")
	}
	rule := s.Validator.rules.For(StandardCategory{StandardType: record.StandardType})
	if err := s.checkDeletion(req.Caller, record.TeacherGUID, rule, clock.DaysBetween(record.Date, s.Validator.Today())); err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, record.StudentGUID)
	if err != nil {
		return nil, err
	}

	err = s.persist(ctx, ledger, func(tx *sqlx.Tx) error {
		if err := s.standards.Delete(ctx, tx, record.ID); err != nil {
			return err
		}
		return s.recomputeStandards(ctx, tx, ledger)
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *StandardsService) recomputeStandards(ctx context.Context, tx *sqlx.Tx, ledger *models.StudentLedger) error {
	sum, err := s.standards.SumByStudent(ctx, tx, ledger.StudentGUID)
	if err != nil {
		return err
	}
	ledger.PointsForStandards = capStandards(sum, s.Validator.rules.Config().MaxPointsForStandards)
	return nil
}

func capStandards(sum, limit int) int {
	if sum > limit {
		return limit
	}
	if sum < 0 {
		return 0
	}
	return sum
}
