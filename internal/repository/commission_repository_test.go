package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

func commissionRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "student_id", "delegate_id", "student_name", "amount", "status", "student_status", "created_date", "confirmed_date", "paid_date", "created_at", "updated_at"}).
		AddRow(1, 1, 7, "أحمد محمد علي الحسن", 500.0, "pending", "registered", "2026-03-10", nil, nil, now, now)
}

func TestCommissionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM commissions WHERE id = $1 LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(commissionRows())

	commission, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPending, commission.Status)
	assert.Nil(t, commission.ConfirmedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM commissions WHERE 1=1 AND status = $1 ORDER BY id DESC")).
		WithArgs(models.CommissionPending).
		WillReturnRows(commissionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM commissions WHERE 1=1 AND status = $1")).
		WithArgs(models.CommissionPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.CommissionPending
	commissions, total, err := repo.List(context.Background(), models.CommissionFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, commissions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRepositoryDeleteByStudentID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM commissions WHERE student_id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.DeleteByStudentID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRepositoryTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommissionRepository(db)

	rows := sqlmock.NewRows([]string{"pending_count", "confirmed_count", "paid_count", "cancelled_count", "pending_amount", "paid_amount"}).
		AddRow(3, 2, 4, 1, 1500.0, 2000.0)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, totals.PendingCount)
	assert.Equal(t, 4, totals.PaidCount)
	assert.Equal(t, 2000.0, totals.PaidAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
