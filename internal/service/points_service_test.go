package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

func addPoints(workType models.WorkType, points int) AddPointsRequest {
	return AddPointsRequest{
		StudentGUID: studentGUID,
		Date:        day(-1),
		Points:      points,
		WorkType:    workType,
		Caller:      caller(teacherGUID),
	}
}

func TestPointsServiceSecondExternalFitnessIsDuplicate(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.expectCommit()

	_, err := f.points.AddPoints(context.Background(), addPoints(models.WorkTypeExternalFitness, 8))
	require.NoError(t, err)

	_, err = f.points.AddPoints(context.Background(), addPoints(models.WorkTypeExternalFitness, 4))
	assert.ErrorIs(t, err, appErrors.ErrDuplicateCategoryRecord)
	assert.Equal(t, 8, f.j.student(studentGUID).AdditionalPoints)
	assert.Len(t, f.j.points, 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPointsServiceBounds(t *testing.T) {
	cases := []struct {
		name     string
		req      AddPointsRequest
		want     error
		wantCap  int
		checkCap bool
	}{
		{name: "zero", req: addPoints(models.WorkTypeActivist, 0), want: appErrors.ErrNegativePoints},
		{name: "negative", req: addPoints(models.WorkTypeActivist, -3), want: appErrors.ErrNegativePoints},
		{name: "external fitness cap", req: addPoints(models.WorkTypeExternalFitness, 11), want: appErrors.ErrCategoryLimitExceeded, wantCap: 10, checkCap: true},
		{name: "science cap", req: addPoints(models.WorkTypeScience, 31), want: appErrors.ErrCategoryLimitExceeded, wantCap: 30, checkCap: true},
		{name: "global cap", req: addPoints(models.WorkTypeInternalTeam, 51), want: appErrors.ErrCategoryLimitExceeded, wantCap: 50, checkCap: true},
		{name: "unknown work type", req: addPoints(models.WorkType("Chess"), 5), want: appErrors.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newJournalFixture(t, nil)
			_, err := f.points.AddPoints(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.want)
			if tc.checkCap {
				limit, ok := appErrors.FromError(err).Detail("cap")
				require.True(t, ok)
				assert.Equal(t, tc.wantCap, limit)
			}
			assert.Zero(t, f.j.student(studentGUID).AdditionalPoints)
		})
	}
}

func TestPointsServiceOnlineWorkRetention(t *testing.T) {
	f := newJournalFixture(t, nil)
	req := addPoints(models.WorkTypeOnlineWork, 5)
	req.Date = day(-8)

	_, err := f.points.AddPoints(context.Background(), req)
	require.ErrorIs(t, err, appErrors.ErrDateExpired)

	req.WorkType = models.WorkTypeActivist
	f.expectCommit()
	_, err = f.points.AddPoints(context.Background(), req)
	require.NoError(t, err)
}

func TestPointsServiceCompetitionOnSundayRejected(t *testing.T) {
	f := newJournalFixture(t, nil)
	req := addPoints(models.WorkTypeCompetition, 6)
	req.Date = day(-3)

	_, err := f.points.AddPoints(context.Background(), req)
	require.ErrorIs(t, err, appErrors.ErrNonWorkingDay)
	assert.Zero(t, f.j.student(studentGUID).AdditionalPoints)
	assert.Empty(t, f.j.points)
}

func TestPointsServiceAccumulatorMatchesHistory(t *testing.T) {
	f := newJournalFixture(t, nil)
	ctx := context.Background()
	var ids []int64
	for _, p := range []int{5, 12, 7, 20} {
		f.expectCommit()
		result, err := f.points.AddPoints(ctx, addPoints(models.WorkTypeActivist, p))
		require.NoError(t, err)
		ids = append(ids, result.RecordID)
		assert.Equal(t, fakePoints{f.j}.sum(studentGUID), f.j.student(studentGUID).AdditionalPoints)
	}
	for _, id := range []int64{ids[1], ids[3]} {
		f.expectCommit()
		_, err := f.points.DeletePoints(ctx, DeleteRecordRequest{ID: id, Caller: caller(teacherGUID)})
		require.NoError(t, err)
		assert.Equal(t, fakePoints{f.j}.sum(studentGUID), f.j.student(studentGUID).AdditionalPoints)
	}
	assert.Equal(t, 12, f.j.student(studentGUID).AdditionalPoints)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPointsServiceDeleteMissingIsIdempotent(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(0, 10, 0)
	before := f.j.student(studentGUID)

	for i := 0; i < 2; i++ {
		_, err := f.points.DeletePoints(context.Background(), DeleteRecordRequest{ID: 999, Caller: admin()})
		assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	}
	assert.Equal(t, before, f.j.student(studentGUID))
}

func TestPointsServiceDeleteRequiresOwner(t *testing.T) {
	f := newJournalFixture(t, nil)
	f.setCounters(0, 10, 0)
	id := f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-1), Points: 10, WorkType: models.WorkTypeActivist})

	_, err := f.points.DeletePoints(context.Background(), DeleteRecordRequest{ID: id, Caller: caller(otherGUID)})
	assert.ErrorIs(t, err, appErrors.ErrTeacherMismatch)

	f.expectCommit()
	_, err = f.points.DeletePoints(context.Background(), DeleteRecordRequest{ID: id, Caller: admin()})
	require.NoError(t, err)
	assert.Zero(t, f.j.student(studentGUID).AdditionalPoints)
}

func TestPointsServiceValidatesRequest(t *testing.T) {
	f := newJournalFixture(t, nil)
	_, err := f.points.DeletePoints(context.Background(), DeleteRecordRequest{ID: 0, Caller: caller(teacherGUID)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

// hookedPoints runs afterLookup once, between the record lookup and the delete.
type hookedPoints struct {
	fakePoints
	afterLookup func()
}

func (p *hookedPoints) FindByID(ctx context.Context, id int64) (*models.PointRecord, error) {
	record, err := p.fakePoints.FindByID(ctx, id)
	if err == nil && p.afterLookup != nil {
		hook := p.afterLookup
		p.afterLookup = nil
		hook()
	}
	return record, err
}

func TestPointsServiceDeleteAfterConcurrentClosure(t *testing.T) {
	f := newJournalFixture(t, nil)
	ctx := context.Background()
	f.setCounters(0, 10, 0)
	id := f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-1), Points: 10, WorkType: models.WorkTypeActivist})

	repo := &hookedPoints{fakePoints: fakePoints{f.j}, afterLookup: func() {
		_, err := f.archive.ArchiveStudent(ctx, ArchiveStudentRequest{StudentGUID: studentGUID, Force: true, Caller: admin()})
		require.NoError(t, err)
	}}
	svc := NewPointsService(f.deps, repo)
	f.expectCommit()
	f.expectRollback()

	_, err := svc.DeletePoints(ctx, DeleteRecordRequest{ID: id, Caller: caller(teacherGUID)})
	require.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	stored := f.j.student(studentGUID)
	assert.Zero(t, stored.AdditionalPoints)
	assert.Equal(t, springTerm, stored.CurrentSemesterName)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPointsServiceRacingDeletesSubtractOnce(t *testing.T) {
	f := newJournalFixture(t, nil)
	ctx := context.Background()
	f.setCounters(0, 30, 0)
	f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-1), Points: 20, WorkType: models.WorkTypeActivist})
	id := f.j.seedPoints(models.PointRecord{StudentGUID: studentGUID, TeacherGUID: teacherGUID, Date: day(-1), Points: 10, WorkType: models.WorkTypeActivist})

	repo := &hookedPoints{fakePoints: fakePoints{f.j}, afterLookup: func() {
		_, err := f.points.DeletePoints(ctx, DeleteRecordRequest{ID: id, Caller: caller(teacherGUID)})
		require.NoError(t, err)
	}}
	svc := NewPointsService(f.deps, repo)
	f.expectCommit()
	f.expectRollback()

	_, err := svc.DeletePoints(ctx, DeleteRecordRequest{ID: id, Caller: caller(teacherGUID)})
	require.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.Equal(t, 20, f.j.student(studentGUID).AdditionalPoints)
	assert.Equal(t, fakePoints{f.j}.sum(studentGUID), f.j.student(studentGUID).AdditionalPoints)
	require.NoError(t, f.mock.ExpectationsWereMet())
}
