package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

// CommissionRepository manages persistence for commission records.
type CommissionRepository struct {
	db *sqlx.DB
}

// NewCommissionRepository constructs a CommissionRepository.
func NewCommissionRepository(db *sqlx.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

const commissionColumns = `id, student_id, delegate_id, student_name, amount, status, student_status, created_date, confirmed_date, paid_date, created_at, updated_at`

// List returns commissions matching the provided filters.
func (r *CommissionRepository) List(ctx context.Context, filter models.CommissionFilter) ([]models.Commission, int, error) {
	base := "FROM commissions WHERE 1=1"
	var args []interface{}
	var conditions []string

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DelegateID != 0 {
		conditions = append(conditions, fmt.Sprintf("delegate_id = $%d", len(args)+1))
		args = append(args, filter.DelegateID)
	}
	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"id": true, "created_date": true, "amount": true}
	if !allowedSorts[sortBy] {
		sortBy = "id"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", commissionColumns, base, sortBy, order, size, offset)

	var commissions []models.Commission
	if err := r.db.SelectContext(ctx, &commissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list commissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count commissions: %w", err)
	}
	return commissions, total, nil
}

// FindByID fetches a commission by ID.
func (r *CommissionRepository) FindByID(ctx context.Context, id int64) (*models.Commission, error) {
	query := fmt.Sprintf("SELECT %s FROM commissions WHERE id = $1 LIMIT 1", commissionColumns)
	var commission models.Commission
	if err := r.db.GetContext(ctx, &commission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find commission by id: %w", err)
	}
	return &commission, nil
}

// Create inserts a new commission with the next dense integer ID.
func (r *CommissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	now := time.Now().UTC()
	commission.CreatedAt = now
	commission.UpdatedAt = now
	const query = `INSERT INTO commissions (id, student_id, delegate_id, student_name, amount, status, student_status, created_date, confirmed_date, paid_date, created_at, updated_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM commissions), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		commission.StudentID, commission.DelegateID, commission.StudentName,
		commission.Amount, commission.Status, commission.StudentStatus,
		commission.CreatedDate, commission.ConfirmedDate, commission.PaidDate,
		commission.CreatedAt, commission.UpdatedAt,
	).Scan(&commission.ID); err != nil {
		return fmt.Errorf("create commission: %w", err)
	}
	return nil
}

// Update persists status and stamp changes.
func (r *CommissionRepository) Update(ctx context.Context, commission *models.Commission) error {
	commission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE commissions SET status = :status, student_status = :student_status, confirmed_date = :confirmed_date, paid_date = :paid_date, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, commission); err != nil {
		return fmt.Errorf("update commission: %w", err)
	}
	return nil
}

// Delete removes a commission by ID.
func (r *CommissionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM commissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete commission: %w", err)
	}
	return nil
}

// DeleteByStudentID removes every commission referencing the student and
// returns how many rows went away (normally one, possibly zero).
func (r *CommissionRepository) DeleteByStudentID(ctx context.Context, studentID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM commissions WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete commissions by student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete commissions rows: %w", err)
	}
	return affected, nil
}

// Totals aggregates counts and amounts per payout status.
func (r *CommissionRepository) Totals(ctx context.Context) (*models.CommissionTotals, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status = 'pending') AS pending_count,
        COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed_count,
        COUNT(*) FILTER (WHERE status = 'paid') AS paid_count,
        COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_count,
        COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0) AS pending_amount,
        COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0) AS paid_amount
        FROM commissions`
	var totals models.CommissionTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("commission totals: %w", err)
	}
	return &totals, nil
}

// All returns every commission, used by backup snapshots.
func (r *CommissionRepository) All(ctx context.Context) ([]models.Commission, error) {
	var commissions []models.Commission
	query := fmt.Sprintf("SELECT %s FROM commissions ORDER BY id", commissionColumns)
	if err := r.db.SelectContext(ctx, &commissions, query); err != nil {
		return nil, fmt.Errorf("load all commissions: %w", err)
	}
	return commissions, nil
}
