package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func studentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "first_name", "second_name", "third_name", "last_name", "normalized_name", "phone", "course", "schedule", "delegate_id", "registration_date", "created_at", "updated_at"}).
		AddRow(1, "أحمد", "محمد", "علي", "الحسن", "احمد محمد علي الحسن", "0912345678", "إنجليزي", "morning", 7, "2026-03-10", now, now)
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT id, first_name, second_name").
		WithArgs(int64(1)).
		WillReturnRows(studentRows())

	student, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "أحمد", student.FirstName)
	assert.Equal(t, int64(7), student.DelegateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT id, first_name, second_name").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByNormalizedNameExcludesID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE normalized_name = $1 AND id <> $2 LIMIT 1")).
		WithArgs("احمد محمد علي الحسن", int64(3)).
		WillReturnRows(studentRows())

	student, err := repo.FindByNormalizedName(context.Background(), "احمد محمد علي الحسن", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateAssignsNextID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO students (id, first_name")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	student := &models.Student{
		FirstName:        "أحمد",
		SecondName:       "محمد",
		ThirdName:        "علي",
		LastName:         "الحسن",
		NormalizedName:   "احمد محمد علي الحسن",
		Phone:            "0912345678",
		Course:           "إنجليزي",
		Schedule:         models.ScheduleMorning,
		DelegateID:       7,
		RegistrationDate: "2026-03-10",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, int64(12), student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteReportsAffected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	deleted, err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	deleted, err = repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("course = $1 AND delegate_id = $2")).
		WithArgs("إنجليزي", int64(7)).
		WillReturnRows(studentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1 AND course = $1 AND delegate_id = $2")).
		WithArgs("إنجليزي", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Course: "إنجليزي", DelegateID: 7})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
