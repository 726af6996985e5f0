package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/pkg/clock"
	"github.com/noah-isme/physed-journal-api/pkg/database"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

// SystemActor is recorded as the archiver of closures started by background jobs.
const SystemActor = "system"

// SystemCaller is the privileged identity used by background jobs.
var SystemCaller = models.Caller{TeacherGUID: SystemActor, Privileged: true}

type archiveStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, archived *models.ArchivedStudent) error
	ListByStudent(ctx context.Context, studentGUID string) ([]models.ArchivedStudent, error)
	FindLatest(ctx context.Context, studentGUID, semesterName string) (*models.ArchivedStudent, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

type groupRoster interface {
	FindByName(ctx context.Context, groupName string) (*models.Group, error)
	ListMembers(ctx context.Context, groupName string) ([]models.GroupMember, error)
}

type semesterResolver interface {
	Current(ctx context.Context) (*models.Semester, error)
}

type visitHistoryStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.VisitRecord) error
	ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) ([]models.VisitRecord, error)
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) error
}

type pointHistoryStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.PointRecord) error
	ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) ([]models.PointRecord, error)
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) error
}

type standardHistoryStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.StandardRecord) error
	ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) ([]models.StandardRecord, error)
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) error
	SumByStudent(ctx context.Context, exec sqlx.ExtContext, studentGUID string) (int, error)
}

// ArchiveStudentRequest closes the semester of one student. An empty TargetSemester means the
// registry's current semester. Force archives even when the threshold is not met and
// is honoured for privileged callers only.
type ArchiveStudentRequest struct {
	StudentGUID    string `validate:"required"`
	TargetSemester string `validate:"omitempty,max=64"`
	Force          bool
	Caller         models.Caller
}

// ArchiveDeps bundles the collaborators of the archiver.
type ArchiveDeps struct {
	Students  ledgerRepository
	Archives  archiveStore
	Semesters semesterResolver
	Visits    visitHistoryStore
	Points    pointHistoryStore
	Standards standardHistoryStore
	// Groups is only needed by ArchiveGroup.
	Groups   groupRoster
	Tx       database.TxProvider
	Rules    *CategoryRules
	Policy   ClosurePolicy
	Clock    clock.Clock
	Validate *validator.Validate
	Metrics  *MetricsService
	Logger   *zap.Logger
}

// ArchiveService snapshots finished semesters and resets the live ledger.
type ArchiveService struct {
	ArchiveDeps
}

// NewArchiveService constructs the archiver. A nil policy means a full reset.
func NewArchiveService(deps ArchiveDeps) *ArchiveService {
	if deps.Policy == nil {
		deps.Policy = FullResetPolicy{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem(deps.Rules.Config().Location())
	}
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ArchiveService{ArchiveDeps: deps}
}

// ArchiveStudent moves the student to the target semester, archiving the closed one.
// A student below the threshold is flagged as indebted and NOT_ENOUGH_POINTS is returned.
func (s *ArchiveService) ArchiveStudent(ctx context.Context, req ArchiveStudentRequest) (*models.ArchivedStudent, error) {
	archived, err := s.archive(ctx, req)
	s.Metrics.ObserveArchive(err)
	if err != nil {
		s.Logger.Debug("archive rejected", zap.String("student_guid", req.StudentGUID), zap.String("code", appErrors.FromError(err).Code))
		return nil, err
	}
	s.Logger.Info("student archived",
		zap.String("student_guid", archived.StudentGUID),
		zap.String("semester", archived.SemesterName),
		zap.Float64("total_points", archived.TotalPoints),
		zap.String("policy", s.Policy.Name()),
	)
	return archived, nil
}

func (s *ArchiveService) archive(ctx context.Context, req ArchiveStudentRequest) (*models.ArchivedStudent, error) {
	req.TargetSemester = strings.TrimSpace(req.TargetSemester)
	if err := s.Validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid archive payload")
	}
	ledger, err := loadStudentLedger(ctx, s.Students, req.StudentGUID)
	if err != nil {
		return nil, err
	}
	if !req.Caller.Privileged && (ledger.CuratorGUID == nil || *ledger.CuratorGUID != req.Caller.TeacherGUID) {
		return nil, appErrors.ErrTeacherMismatch
	}
	if req.Force && !req.Caller.Privileged {
		return nil, appErrors.Clone(appErrors.ErrTeacherMismatch, "only administrators may force an archive")
	}
	target, err := s.resolveTarget(ctx, req.TargetSemester)
	if err != nil {
		return nil, err
	}
	if ledger.CurrentSemesterName == target {
		return nil, appErrors.ErrCannotMigrateSameSemester
	}

	required := s.Rules.Config().RequiredPointAmount
	total := ledger.TotalPoints()
	if total < float64(required) && !req.Force {
		if !ledger.HasDebtFromPreviousSemester {
			if err := s.recordDebt(ctx, ledger); err != nil {
				return nil, err
			}
		}
		return nil, appErrors.NotEnoughPoints(required-int(total), total)
	}

	return s.close(ctx, ledger, target, req.Caller)
}

func (s *ArchiveService) resolveTarget(ctx context.Context, target string) (string, error) {
	if target != "" {
		if !ValidSemesterName(target) {
			return "", appErrors.ErrSemesterNameInvalid
		}
		return target, nil
	}
	current, err := s.Semesters.Current(ctx)
	if err != nil {
		return "", err
	}
	return current.Name, nil
}

func (s *ArchiveService) recordDebt(ctx context.Context, ledger *models.StudentLedger) error {
	ledger.HasDebtFromPreviousSemester = true
	ledger.HadDebtInSemester = true
	ledger.ArchivedVisitValue = ledger.VisitValue
	if err := s.Students.UpdateLedger(ctx, nil, &ledger.Student); err != nil {
		return translatePersistError(err)
	}
	s.Logger.Info("student debt recorded", zap.String("student_guid", ledger.StudentGUID), zap.Float64("visit_value", ledger.VisitValue))
	return nil
}

func (s *ArchiveService) close(ctx context.Context, ledger *models.StudentLedger, target string, caller models.Caller) (*models.ArchivedStudent, error) {
	var archived *models.ArchivedStudent
	err := database.WithTx(ctx, s.Tx, func(tx *sqlx.Tx) error {
		history, err := s.loadHistory(ctx, tx, ledger.StudentGUID)
		if err != nil {
			return err
		}
		plan := s.Policy.Plan(ClosureInput{
			Ledger:       *ledger,
			History:      *history,
			Required:     s.Rules.Config().RequiredPointAmount,
			StandardsCap: s.Rules.Config().MaxPointsForStandards,
		})

		archived = &models.ArchivedStudent{
			StudentGUID:        ledger.StudentGUID,
			SemesterName:       ledger.CurrentSemesterName,
			FullName:           ledger.FullName,
			GroupNumber:        ledger.GroupNumber,
			TotalPoints:        plan.TotalPoints,
			Visits:             plan.ArchivedVisits,
			VisitValue:         plan.VisitValue,
			AdditionalPoints:   plan.ArchivedAdditional,
			PointsForStandards: plan.ArchivedStandards,
			VisitsHistory:      plan.Archived.Visits,
			PointsHistory:      plan.Archived.Points,
			StandardsHistory:   plan.Archived.Standards,
			ArchivedBy:         caller.TeacherGUID,
			ArchivedAt:         s.Clock.Now().UTC(),
		}
		if err := s.Archives.Create(ctx, tx, archived); err != nil {
			return err
		}
		if err := s.clearHistory(ctx, tx, ledger.StudentGUID, plan); err != nil {
			return err
		}

		applyClosure(&ledger.Student, plan, target)
		return s.Students.UpdateLedger(ctx, tx, &ledger.Student)
	})
	if err != nil {
		return nil, translatePersistError(err)
	}
	return archived, nil
}

func (s *ArchiveService) loadHistory(ctx context.Context, tx sqlx.ExtContext, studentGUID string) (*models.StudentHistory, error) {
	visits, err := s.Visits.ListByStudent(ctx, tx, studentGUID)
	if err != nil {
		return nil, err
	}
	points, err := s.Points.ListByStudent(ctx, tx, studentGUID)
	if err != nil {
		return nil, err
	}
	standards, err := s.Standards.ListByStudent(ctx, tx, studentGUID)
	if err != nil {
		return nil, err
	}
	return &models.StudentHistory{Visits: visits, Points: points, Standards: standards}, nil
}

func (s *ArchiveService) clearHistory(ctx context.Context, tx sqlx.ExtContext, studentGUID string, plan ClosurePlan) error {
	if plan.Full {
		if err := s.Visits.DeleteByStudent(ctx, tx, studentGUID); err != nil {
			return err
		}
		if err := s.Points.DeleteByStudent(ctx, tx, studentGUID); err != nil {
			return err
		}
		return s.Standards.DeleteByStudent(ctx, tx, studentGUID)
	}
	visitIDs, pointIDs, standardIDs := archivedIDs(plan.Archived)
	if len(visitIDs) > 0 {
		if err := s.Visits.DeleteByIDs(ctx, tx, visitIDs); err != nil {
			return err
		}
	}
	if len(pointIDs) > 0 {
		if err := s.Points.DeleteByIDs(ctx, tx, pointIDs); err != nil {
			return err
		}
	}
	if len(standardIDs) > 0 {
		return s.Standards.DeleteByIDs(ctx, tx, standardIDs)
	}
	return nil
}

// applyClosure resets the ledger for the target semester, keeping what the plan carries over.
func applyClosure(student *models.Student, plan ClosurePlan, target string) {
	if !student.HasDebtFromPreviousSemester {
		student.HadDebtInSemester = false
	}
	student.Visits = plan.RemainingVisits
	student.AdditionalPoints = plan.RemainingAdditional
	student.PointsForStandards = plan.RemainingStandards
	student.CurrentSemesterName = target
	student.ArchivedVisitValue = 0
	student.HasDebtFromPreviousSemester = false
}

// CloseDebtIfCleared archives an indebted student into the current semester once their total,
// computed with the snapshotted visit value, meets the threshold.
func (s *ArchiveService) CloseDebtIfCleared(ctx context.Context, studentGUID string) (bool, error) {
	ledger, err := loadStudentLedger(ctx, s.Students, studentGUID)
	if err != nil {
		return false, err
	}
	if !ledger.HasDebtFromPreviousSemester || ledger.TotalPoints() < float64(s.Rules.Config().RequiredPointAmount) {
		return false, nil
	}
	current, err := s.Semesters.Current(ctx)
	if err != nil {
		return false, err
	}
	if current.Name == ledger.CurrentSemesterName {
		return false, nil
	}
	if _, err := s.ArchiveStudent(ctx, ArchiveStudentRequest{
		StudentGUID:    studentGUID,
		TargetSemester: current.Name,
		Caller:         SystemCaller,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// GetArchived lists the archived semesters of a student.
func (s *ArchiveService) GetArchived(ctx context.Context, studentGUID string) ([]models.ArchivedStudent, error) {
	if _, err := loadStudentLedger(ctx, s.Students, studentGUID); err != nil {
		return nil, err
	}
	archived, err := s.Archives.ListByStudent(ctx, studentGUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archived semesters")
	}
	return archived, nil
}

// ArchiveStudentStatus is the outcome of one student within a group closure.
type ArchiveStudentStatus struct {
	StudentGUID string           `json:"guid"`
	FullName    string           `json:"full_name"`
	Archived    bool             `json:"is_archived"`
	Error       *appErrors.Error `json:"error,omitempty"`
}

// ArchiveGroup closes the semester of every student in the group. A failing student does not
// stop the run; its error is reported in its status.
func (s *ArchiveService) ArchiveGroup(ctx context.Context, groupName string, caller models.Caller) ([]ArchiveStudentStatus, error) {
	groupName = strings.TrimSpace(groupName)
	if _, err := s.Groups.FindByName(ctx, groupName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrGroupNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	members, err := s.Groups.ListMembers(ctx, groupName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group members")
	}
	if len(members) == 0 {
		return nil, appErrors.ErrNoStudentsInGroup
	}

	statuses := make([]ArchiveStudentStatus, 0, len(members))
	archived := 0
	for _, member := range members {
		status := ArchiveStudentStatus{StudentGUID: member.StudentGUID, FullName: member.FullName}
		if _, err := s.ArchiveStudent(ctx, ArchiveStudentRequest{StudentGUID: member.StudentGUID, Caller: caller}); err != nil {
			status.Error = appErrors.FromError(err)
		} else {
			status.Archived = true
			archived++
		}
		statuses = append(statuses, status)
	}
	s.Logger.Info("group archived",
		zap.String("group", groupName),
		zap.Int("students", len(members)),
		zap.Int("archived", archived),
	)
	return statuses, nil
}

// UnarchiveStudent puts the snapshot of semesterName back into the live ledger: its history is
// re-inserted, the counters grow by the archived amounts, the debt is cleared and the snapshot is
// removed. The student stays in their current semester.
func (s *ArchiveService) UnarchiveStudent(ctx context.Context, studentGUID, semesterName string) (*models.StudentLedger, error) {
	semesterName = strings.TrimSpace(semesterName)
	if !ValidSemesterName(semesterName) {
		return nil, appErrors.ErrSemesterNameInvalid
	}
	ledger, err := loadStudentLedger(ctx, s.Students, studentGUID)
	if err != nil {
		return nil, err
	}
	archived, err := s.Archives.FindLatest(ctx, studentGUID, semesterName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrArchivedStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load archived semester")
	}

	err = database.WithTx(ctx, s.Tx, func(tx *sqlx.Tx) error {
		for i := range archived.VisitsHistory {
			if err := s.Visits.Create(ctx, tx, &archived.VisitsHistory[i]); err != nil {
				return err
			}
		}
		for i := range archived.PointsHistory {
			if err := s.Points.Create(ctx, tx, &archived.PointsHistory[i]); err != nil {
				return err
			}
		}
		for i := range archived.StandardsHistory {
			if err := s.Standards.Create(ctx, tx, &archived.StandardsHistory[i]); err != nil {
				return err
			}
		}
		standards, err := s.Standards.SumByStudent(ctx, tx, studentGUID)
		if err != nil {
			return err
		}
		if err := s.Archives.Delete(ctx, tx, archived.ID); err != nil {
			return err
		}

		ledger.Visits += archived.Visits
		ledger.AdditionalPoints += archived.AdditionalPoints
		ledger.PointsForStandards = capStandards(standards, s.Rules.Config().MaxPointsForStandards)
		ledger.HasDebtFromPreviousSemester = false
		ledger.ArchivedVisitValue = 0
		return s.Students.UpdateLedger(ctx, tx, &ledger.Student)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrArchivedStudentNotFound
		}
		return nil, translatePersistError(err)
	}
	s.Logger.Info("student unarchived",
		zap.String("student_guid", studentGUID),
		zap.String("semester", semesterName),
		zap.Float64("total_points", ledger.TotalPoints()),
	)
	return ledger, nil
}
