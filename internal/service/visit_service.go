package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/clock"
)

type visitRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.VisitRecord) error
	FindByID(ctx context.Context, id int64) (*models.VisitRecord, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

// AddVisitRequest credits one attendance to a student.
type AddVisitRequest struct {
	StudentGUID string    `validate:"required"`
	Date        time.Time `validate:"required"`
	Caller      models.Caller
}

// VisitService records and removes attendance.
type VisitService struct {
	ledgerCommand
	visits visitRepository
}

// NewVisitService constructs a VisitService.
func NewVisitService(deps CommandDeps, visits visitRepository) *VisitService {
	return &VisitService{ledgerCommand: newLedgerCommand(deps), visits: visits}
}

// AddVisit validates the date and increments the visit counter.
func (s *VisitService) AddVisit(ctx context.Context, req AddVisitRequest) (*MutationResult, error) {
	ledger, recordID, err := s.addVisit(ctx, req)
	return s.finish(ctx, "add_visit", ledger, recordID, err)
}

func (s *VisitService) addVisit(ctx context.Context, req AddVisitRequest) (*models.StudentLedger, int64, error) {
	if err := s.validateRequest(req, "invalid visit payload"); err != nil {
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
		Category:    VisitCategory{},
		StudentGUID: ledger.StudentGUID,
		Date:        req.Date,
		Privileged:  req.Caller.Privileged,
	})
	if err != nil {
		return nil, 0, err
	}

	record := &models.VisitRecord{StudentGUID: ledger.StudentGUID, TeacherGUID: req.Caller.TeacherGUID, Date: entry.Date}
	err = s.persist(ctx, ledger, func(tx *sqlx.Tx) error {
		if err := s.visits.Create(ctx, tx, record); err != nil {
			return err
		}
		ledger.Visits++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return ledger, record.ID, nil
}

// DeleteVisit removes a visit and decrements the counter.
func (s *VisitService) DeleteVisit(ctx context.Context, req DeleteRecordRequest) (*MutationResult, error) {
	ledger, err := s.deleteVisit(ctx, req)
	return s.finish(ctx, "delete_visit", ledger, req.ID, err)
}

func (s *VisitService) deleteVisit(ctx context.Context, req DeleteRecordRequest) (*models.StudentLedger, error) {
	if err := s.validateRequest(req, "invalid visit id"); err != nil {
		return nil, err
	}
	if err := s.ensureTeacher(ctx, req.Caller.TeacherGUID); err != nil {
		return nil, err
	}
	record, err := s.visits.FindByID(ctx, req.ID)
	if err != nil {
		return nil, lookupRecordError(err, "visit")
	}
	rule := s.Validator.rules.For(VisitCategory{})
	if err := s.checkDeletion(req.Caller, record.TeacherGUID, rule, clock.DaysBetween(record.Date, s.Validator.Today())); err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, record.StudentGUID)
	if err != nil {
		return nil, err
	}

	err = s.persist(ctx, ledger, func(tx *sqlx.Tx) error {
		if err := s.visits.Delete(ctx, tx, record.ID); err != nil {
			return err
		}
		if ledger.Visits > 0 {
			ledger.Visits--
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}
