package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

func archiveReq() ArchiveStudentRequest {
	return ArchiveStudentRequest{StudentGUID: studentGUID, Caller: caller(curatorGUID)}
}

func TestArchiveServiceArchivesAtThreshold(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(0, 46, 4)
	f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-20), Points: 46, WorkType: models.WorkTypeActivist})
	f.j.seedStandard(models.StandardRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-6), Points: 4, StandardType: models.StandardTypeJumps})
	f.expectCommit()

	archived, err := f.archive.ArchiveStudent(context.Background(), archiveReq())
	require.NoError(t, err)
	assert.Equal(t, float64(50), archived.TotalPoints)
	assert.Equal(t, fallTerm, archived.SemesterName)
	assert.Equal(t, curatorGUID, archived.ArchivedBy)
	assert.Len(t, archived.PointsHistory, 1)
	assert.Len(t, archived.StandardsHistory, 1)

	ledger := f.j.student(studentGUID)
	assert.Zero(t, ledger.Visits)
	assert.Zero(t, ledger.AdditionalPoints)
	assert.Zero(t, ledger.PointsForStandards)
	assert.Equal(t, springTerm, ledger.CurrentSemesterName)
	assert.False(t, ledger.HasDebtFromPreviousSemester)
	assert.Empty(t, f.j.points)
	assert.Empty(t, f.j.standards)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestArchiveServiceRecordsDebtBelowThreshold(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(0, 44, 4)

	_, err := f.archive.ArchiveStudent(context.Background(), archiveReq())
	require.ErrorIs(t, err, appErrors.ErrNotEnoughPoints)
	shortfall, ok := appErrors.FromError(err).Detail("shortfall")
	require.True(t, ok)
	assert.Equal(t, 2, shortfall)

	ledger := f.j.student(studentGUID)
	assert.True(t, ledger.HasDebtFromPreviousSemester)
	assert.True(t, ledger.HadDebtInSemester)
	assert.Equal(t, 2.0, ledger.ArchivedVisitValue)
	assert.Equal(t, 44, ledger.AdditionalPoints)
	assert.Equal(t, 4, ledger.PointsForStandards)
	assert.Equal(t, fallTerm, ledger.CurrentSemesterName)
	assert.Empty(t, f.j.archives)

	version := ledger.Version
	_, err = f.archive.ArchiveStudent(context.Background(), archiveReq())
	require.ErrorIs(t, err, appErrors.ErrNotEnoughPoints)
	assert.Equal(t, version, f.j.student(studentGUID).Version)
}

func TestArchiveServiceGuards(t *testing.T) {
	t.Run("same semester", func(t *testing.T) {
		f := newJournalFixture(t, nil)
		f.setCounters(0, 50, 0)
		req := archiveReq()
		req.TargetSemester = fallTerm
		_, err := f.archive.ArchiveStudent(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrCannotMigrateSameSemester)
	})
	t.Run("not curator", func(t *testing.T) {
		f := newJournalFixture(t, nil)
		req := archiveReq()
		req.Caller = caller(otherGUID)
		_, err := f.archive.ArchiveStudent(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrTeacherMismatch)
	})
	t.Run("invalid target", func(t *testing.T) {
		f := newJournalFixture(t, nil)
		req := archiveReq()
		req.TargetSemester = "next term"
		_, err := f.archive.ArchiveStudent(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrSemesterNameInvalid)
	})
	t.Run("no current semester", func(t *testing.T) {
		f := newJournalFixture(t, nil)
		f.j.semesters = nil
		_, err := f.archive.ArchiveStudent(context.Background(), archiveReq())
		assert.ErrorIs(t, err, appErrors.ErrSemesterNotFound)
	})
	t.Run("unknown student", func(t *testing.T) {
		f := newJournalFixture(t, nil)
		req := archiveReq()
		req.StudentGUID = "ghost"
		_, err := f.archive.ArchiveStudent(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
	})
}

func TestArchiveServiceForceClosesBelowThreshold(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(3, 4, 0)
	f.expectCommit()
	req := archiveReq()
	req.Force = true
	req.Caller = admin()

	archived, err := f.archive.ArchiveStudent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, float64(10), archived.TotalPoints)
	assert.Equal(t, 3, archived.Visits)
	assert.Zero(t, f.j.student(studentGUID).Visits)
}

func TestArchiveServiceForceRequiresPrivilege(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(0, 10, 0)
	before := f.j.student(studentGUID)
	req := archiveReq()
	req.Force = true

	_, err := f.archive.ArchiveStudent(context.Background(), req)
	require.ErrorIs(t, err, appErrors.ErrTeacherMismatch)
	assert.Equal(t, before, f.j.student(studentGUID))
	assert.Empty(t, f.j.archives)
}

func TestArchiveServiceFIFOCarriesSurplus(t *testing.T) {
	f := newJournalFixture(t, FIFODebtPolicy{})
	f.j.mu.Lock()
	l := f.j.students[studentGUID]
	l.HasDebtFromPreviousSemester = true
	l.HadDebtInSemester = true
	l.ArchivedVisitValue = 2
	l.Visits, l.AdditionalPoints, l.PointsForStandards = 1, 55, 4
	f.j.students[studentGUID] = l
	f.j.mu.Unlock()

	f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-10), Points: 30, WorkType: models.WorkTypeActivist})
	f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-9), Points: 15, WorkType: models.WorkTypeInternalTeam})
	f.j.seedVisit(models.VisitRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-8)})
	f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-5), Points: 10, WorkType: models.WorkTypeScience})
	f.j.seedStandard(models.StandardRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-1), Points: 4, StandardType: models.StandardTypeJumps})
	f.expectCommit()

	archived, err := f.archive.ArchiveStudent(context.Background(), archiveReq())
	require.NoError(t, err)
	assert.Equal(t, float64(57), archived.TotalPoints)
	assert.Len(t, archived.PointsHistory, 3)
	assert.Len(t, archived.VisitsHistory, 1)
	assert.Empty(t, archived.StandardsHistory)

	ledger := f.j.student(studentGUID)
	assert.Zero(t, ledger.Visits)
	assert.Zero(t, ledger.AdditionalPoints)
	assert.Equal(t, 4, ledger.PointsForStandards)
	assert.False(t, ledger.HasDebtFromPreviousSemester)
	assert.True(t, ledger.HadDebtInSemester)
	assert.Zero(t, ledger.ArchivedVisitValue)
	assert.Len(t, f.j.standards, 1)
	assert.Empty(t, f.j.points)
}

func TestArchiveServiceCloseDebtIfCleared(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.j.mu.Lock()
	l := f.j.students[studentGUID]
	l.HasDebtFromPreviousSemester = true
	l.ArchivedVisitValue = 1.5
	l.Visits, l.AdditionalPoints = 2, 45
	f.j.students[studentGUID] = l
	f.j.mu.Unlock()

	closed, err := f.archive.CloseDebtIfCleared(context.Background(), studentGUID)
	require.NoError(t, err)
	assert.False(t, closed)

	f.setCounters(4, 45, 0)
	f.expectCommit()
	closed, err = f.archive.CloseDebtIfCleared(context.Background(), studentGUID)
	require.NoError(t, err)
	assert.True(t, closed)

	archived, err := f.archive.GetArchived(context.Background(), studentGUID)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, SystemActor, archived[0].ArchivedBy)
	assert.Equal(t, 1.5, archived[0].VisitValue)
	assert.Equal(t, springTerm, f.j.student(studentGUID).CurrentSemesterName)
}

func TestLedgerCommandClosesDebtAfterMutation(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.j.mu.Lock()
	l := f.j.students[studentGUID]
	l.HasDebtFromPreviousSemester = true
	l.ArchivedVisitValue = 2
	l.AdditionalPoints = 48
	f.j.students[studentGUID] = l
	f.j.mu.Unlock()

	deps := f.deps
	deps.DebtCloser = f.archive
	points := NewPointsService(deps, fakePoints{f.j})

	f.expectCommit()
	f.expectCommit()
	_, err := points.AddPoints(context.Background(), addPoints(models.WorkTypeActivist, 2))
	require.NoError(t, err)

	ledger := f.j.student(studentGUID)
	assert.False(t, ledger.HasDebtFromPreviousSemester)
	assert.Equal(t, springTerm, ledger.CurrentSemesterName)
	assert.Zero(t, ledger.AdditionalPoints)
	assert.Len(t, f.j.archives, 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestArchiveServiceArchiveGroupReportsEachStudent(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(0, 50, 0)
	curator := curatorGUID
	f.j.addStudent(models.StudentLedger{
		Student: models.Student{
			StudentGUID:         "student-2",
			FullName:            "Student Two",
			GroupNumber:         groupName,
			CurrentSemesterName: fallTerm,
			IsActive:            true,
			AdditionalPoints:    20,
		},
		VisitValue:  2.0,
		CuratorGUID: &curator,
	})
	f.expectCommit()

	statuses, err := f.archive.ArchiveGroup(context.Background(), groupName, caller(curatorGUID))
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Archived)
	assert.Nil(t, statuses[0].Error)
	assert.False(t, statuses[1].Archived)
	require.NotNil(t, statuses[1].Error)
	assert.Equal(t, appErrors.ErrNotEnoughPoints.Code, statuses[1].Error.Code)
	assert.True(t, f.j.student("student-2").HasDebtFromPreviousSemester)
	assert.Len(t, f.j.archives, 1)
}

func TestArchiveServiceArchiveGroupErrors(t *testing.T) {
	f := newJournalFixture(t, nil)
	_, err := f.archive.ArchiveGroup(context.Background(), "PE-999", admin())
	assert.ErrorIs(t, err, appErrors.ErrGroupNotFound)

	f.j.groups["PE-200"] = models.Group{GroupName: "PE-200", VisitValue: 1}
	_, err = f.archive.ArchiveGroup(context.Background(), "PE-200", admin())
	assert.ErrorIs(t, err, appErrors.ErrNoStudentsInGroup)
}

func TestArchiveServiceUnarchiveRestoresLedger(t *testing.T) {
	f := newJournalFixture(t, nil)
	ctx := context.Background()
	f.setCounters(1, 46, 4)
	f.j.seedVisit(models.VisitRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-9)})
	f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-20), Points: 46, WorkType: models.WorkTypeActivist})
	f.j.seedStandard(models.StandardRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-6), Points: 4, StandardType: models.StandardTypeJumps})
	f.expectCommit()
	_, err := f.archive.ArchiveStudent(ctx, archiveReq())
	require.NoError(t, err)

	f.expectCommit()
	_, err = f.points.AddPoints(ctx, addPoints(models.WorkTypeActivist, 5))
	require.NoError(t, err)

	f.expectCommit()
	ledger, err := f.archive.UnarchiveStudent(ctx, studentGUID, fallTerm)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Visits)
	assert.Equal(t, 51, ledger.AdditionalPoints)
	assert.Equal(t, 4, ledger.PointsForStandards)
	assert.Equal(t, springTerm, ledger.CurrentSemesterName)
	assert.False(t, ledger.HasDebtFromPreviousSemester)

	stored := f.j.student(studentGUID)
	assert.Equal(t, fakePoints{f.j}.sum(studentGUID), stored.AdditionalPoints)
	assert.Len(t, f.j.visits, 1)
	assert.Equal(t, 1, fakeStandards{f.j}.count(studentGUID))
	assert.Empty(t, f.j.archives)

	_, err = f.archive.UnarchiveStudent(ctx, studentGUID, fallTerm)
	assert.ErrorIs(t, err, appErrors.ErrArchivedStudentNotFound)
	_, err = f.archive.UnarchiveStudent(ctx, studentGUID, "last term")
	assert.ErrorIs(t, err, appErrors.ErrSemesterNameInvalid)
	require.NoError(t, f.mock.ExpectationsWereMet())
}
