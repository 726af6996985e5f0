package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/clock"
)

type pointRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.PointRecord) error
	FindByID(ctx context.Context, id int64) (*models.PointRecord, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

// AddPointsRequest grants additional points for a work type.
type AddPointsRequest struct {
	StudentGUID string          `validate:"required"`
	Date        time.Time       `validate:"required"`
	Points      int             `validate:"-"`
	WorkType    models.WorkType `validate:"required"`
	Comment     *string         `validate:"omitempty,max=500"`
	Caller      models.Caller
}

// PointsService records and removes additional points.
type PointsService struct {
	ledgerCommand
	points pointRepository
}

// NewPointsService constructs a PointsService.
func NewPointsService(deps CommandDeps, points pointRepository) *PointsService {
	return &PointsService{ledgerCommand: newLedgerCommand(deps), points: points}
}

// AddPoints validates the grant and adds it to the additional points accumulator.
func (s *PointsService) AddPoints(ctx context.Context, req AddPointsRequest) (*MutationResult, error) {
	ledger, recordID, err := s.addPoints(ctx, req)
	return s.finish(ctx, "add_points", ledger, recordID, err)
}

func (s *PointsService) addPoints(ctx context.Context, req AddPointsRequest) (*models.StudentLedger, int64, error) {
	if err := s.validateRequest(req, "invalid points payload"); err != nil {
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
		Category:    PointCategory{WorkType: req.WorkType},
		StudentGUID: ledger.StudentGUID,
		Date:        req.Date,
		Points:      req.Points,
		Comment:     req.Comment,
		Privileged:  req.Caller.Privileged,
	})
	if err != nil {
		return nil, 0, err
	}

	record := &models.PointRecord{
		StudentGUID: ledger.StudentGUID,
		TeacherGUID: req.Caller.TeacherGUID,
		Date:        entry.Date,
		Points:      entry.Points,
		WorkType:    req.WorkType,
		Comment:     entry.Comment,
	}
	err = s.persist(ctx, ledger, func(tx *sqlx.Tx) error {
		if err := s.points.Create(ctx, tx, record); err != nil {
			return err
		}
		ledger.AdditionalPoints += record.Points
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return ledger, record.ID, nil
}

// DeletePoints removes a grant and subtracts it from the accumulator.
func (s *PointsService) DeletePoints(ctx context.Context, req DeleteRecordRequest) (*MutationResult, error) {
	ledger, err := s.deletePoints(ctx, req)
	return s.finish(ctx, "delete_points", ledger, req.ID, err)
}

func (s *PointsService) deletePoints(ctx context.Context, req DeleteRecordRequest) (*models.StudentLedger, error) {
	if err := s.validateRequest(req, "invalid points id"); err != nil {
		return nil, err
	}
	if err := s.ensureTeacher(ctx, req.Caller.TeacherGUID); err != nil {
		return nil, err
	}
	record, err := s.points.FindByID(ctx, req.ID)
	if err != nil {
		return nil, lookupRecordError(err, "points")
	}
	rule := s.Validator.rules.For(PointCategory{WorkType: record.WorkType})
	if err := s.checkDeletion(req.Caller, record.TeacherGUID, rule, clock.DaysBetween(record.Date, s.Validator.Today())); err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, record.StudentGUID)
	if err != nil {
		return nil, err
	}

	err = s.persist(ctx, ledger, func(tx *sqlx.Tx) error {
		if err := s.points.Delete(ctx, tx, record.ID); err != nil {
			return err
		}
		ledger.AdditionalPoints -= record.Points
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}
