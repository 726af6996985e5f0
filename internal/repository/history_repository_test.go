package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physed-journal-api/internal/models"
)

func TestVisitRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO visits_history (student_guid, teacher_guid, date) VALUES ($1, $2, $3) RETURNING id")).
		WithArgs("s-1", "t-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	record := &models.VisitRecord{StudentGUID: "s-1", TeacherGUID: "t-1", Date: date}
	require.NoError(t, repo.Create(context.Background(), nil, record))
	assert.Equal(t, int64(42), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRepositoryExistsOnDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT 1 FROM visits_history").WithArgs("s-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsOnDate(context.Background(), "s-1", date)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVisitRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM visits_history WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByIDs(context.Background(), nil, []int64{1, 2, 3}))
	require.NoError(t, repo.DeleteByIDs(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepositoryCountByWorkType(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPointRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM points_history WHERE student_guid = $1 AND work_type = $2")).
		WithArgs("s-1", models.WorkTypeGTO).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountByWorkType(context.Background(), "s-1", models.WorkTypeGTO)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStandardRepositoryMaxByType(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStandardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(points) FROM standards_history")).
		WithArgs("s-1", models.StandardTypeJumps).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(points) FROM standards_history")).
		WithArgs("s-1", models.StandardTypePullUps).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(8)))

	_, found, err := repo.MaxByType(context.Background(), "s-1", models.StandardTypeJumps)
	require.NoError(t, err)
	assert.False(t, found)

	best, found, err := repo.MaxByType(context.Background(), "s-1", models.StandardTypePullUps)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 8, best)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStandardRepositorySumByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStandardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(points), 0) FROM standards_history WHERE student_guid = $1")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(36))

	sum, err := repo.SumByStudent(context.Background(), nil, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 36, sum)
}

func TestPointRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPointRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM points_history WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM points_history WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), nil, 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), nil, 5), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitAndStandardDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM visits_history WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM standards_history WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewVisitRepository(db).Delete(context.Background(), nil, 9), sql.ErrNoRows)
	assert.ErrorIs(t, NewStandardRepository(db).Delete(context.Background(), nil, 9), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert visit: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
}
