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

// DelegateRepository manages persistence for delegate profiles.
type DelegateRepository struct {
	db *sqlx.DB
}

// NewDelegateRepository constructs a DelegateRepository.
func NewDelegateRepository(db *sqlx.DB) *DelegateRepository {
	return &DelegateRepository{db: db}
}

const delegateColumns = `id, user_id, name, phone, active, students, created_at, updated_at`

// List returns delegates matching the provided filters.
func (r *DelegateRepository) List(ctx context.Context, filter models.DelegateFilter) ([]models.Delegate, int, error) {
	base := "FROM delegates WHERE 1=1"
	var args []interface{}
	var conditions []string

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name LIKE $%d OR phone LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"id": true, "name": true, "students": true}
	if !allowedSorts[sortBy] {
		sortBy = "id"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", delegateColumns, base, sortBy, order, size, offset)

	var delegates []models.Delegate
	if err := r.db.SelectContext(ctx, &delegates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list delegates: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count delegates: %w", err)
	}
	return delegates, total, nil
}

// FindByID fetches a delegate by ID.
func (r *DelegateRepository) FindByID(ctx context.Context, id int64) (*models.Delegate, error) {
	query := fmt.Sprintf("SELECT %s FROM delegates WHERE id = $1 LIMIT 1", delegateColumns)
	var delegate models.Delegate
	if err := r.db.GetContext(ctx, &delegate, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find delegate by id: %w", err)
	}
	return &delegate, nil
}

// FindByName fetches a delegate by exact display name, used by imports.
func (r *DelegateRepository) FindByName(ctx context.Context, name string) (*models.Delegate, error) {
	query := fmt.Sprintf("SELECT %s FROM delegates WHERE name = $1 LIMIT 1", delegateColumns)
	var delegate models.Delegate
	if err := r.db.GetContext(ctx, &delegate, query, strings.TrimSpace(name)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find delegate by name: %w", err)
	}
	return &delegate, nil
}

// Create inserts a new delegate profile.
func (r *DelegateRepository) Create(ctx context.Context, delegate *models.Delegate) error {
	now := time.Now().UTC()
	delegate.CreatedAt = now
	delegate.UpdatedAt = now
	const query = `INSERT INTO delegates (id, user_id, name, phone, active, students, created_at, updated_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM delegates), $1, $2, $3, $4, $5, $6, $7)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		delegate.UserID, delegate.Name, delegate.Phone, delegate.Active,
		delegate.Students, delegate.CreatedAt, delegate.UpdatedAt,
	).Scan(&delegate.ID); err != nil {
		return fmt.Errorf("create delegate: %w", err)
	}
	return nil
}

// Update modifies delegate profile fields. The students counter only moves
// through IncrementStudents/DecrementStudents.
func (r *DelegateRepository) Update(ctx context.Context, delegate *models.Delegate) error {
	delegate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE delegates SET name = :name, phone = :phone, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, delegate); err != nil {
		return fmt.Errorf("update delegate: %w", err)
	}
	return nil
}

// IncrementStudents atomically bumps the cached student count.
func (r *DelegateRepository) IncrementStudents(ctx context.Context, id int64) error {
	const query = `UPDATE delegates SET students = students + 1, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment delegate students: %w", err)
	}
	return nil
}

// DecrementStudents atomically lowers the cached count, floored at zero.
func (r *DelegateRepository) DecrementStudents(ctx context.Context, id int64) error {
	const query = `UPDATE delegates SET students = GREATEST(students - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement delegate students: %w", err)
	}
	return nil
}

// TopDelegate returns the active delegate with the most students. Ties break
// on the lowest ID so the result never depends on scan order.
func (r *DelegateRepository) TopDelegate(ctx context.Context) (*models.Delegate, error) {
	query := fmt.Sprintf("SELECT %s FROM delegates WHERE active = true ORDER BY students DESC, id ASC LIMIT 1", delegateColumns)
	var delegate models.Delegate
	if err := r.db.GetContext(ctx, &delegate, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("top delegate: %w", err)
	}
	return &delegate, nil
}

// CountActive returns the number of active delegates.
func (r *DelegateRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM delegates WHERE active = true"); err != nil {
		return 0, fmt.Errorf("count delegates: %w", err)
	}
	return total, nil
}

// All returns every delegate, used by backup snapshots.
func (r *DelegateRepository) All(ctx context.Context) ([]models.Delegate, error) {
	var delegates []models.Delegate
	query := fmt.Sprintf("SELECT %s FROM delegates ORDER BY id", delegateColumns)
	if err := r.db.SelectContext(ctx, &delegates, query); err != nil {
		return nil, fmt.Errorf("load all delegates: %w", err)
	}
	return delegates, nil
}
