package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

// ActivityRepository appends and reads the audit trail. There is deliberately
// no update or delete path.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends one activity entry.
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO activity_logs (id, user_id, action, target, target_id, details, ip_address, user_agent, created_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM activity_logs), $1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.Action, entry.Target, entry.TargetID,
		entry.Details, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	).Scan(&entry.ID); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// List returns activity entries, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	base := "FROM activity_logs WHERE 1=1"
	var args []interface{}
	var conditions []string

	if filter.UserID != 0 {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Target != "" {
		conditions = append(conditions, fmt.Sprintf("target = $%d", len(args)+1))
		args = append(args, filter.Target)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT id, user_id, action, target, target_id, details, ip_address, user_agent, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var entries []models.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}
	return entries, total, nil
}
