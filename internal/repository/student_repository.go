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

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var args []interface{}
	var conditions []string

	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.DelegateID != 0 {
		conditions = append(conditions, fmt.Sprintf("delegate_id = $%d", len(args)+1))
		args = append(args, filter.DelegateID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(normalized_name LIKE $%d OR phone LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"id":                true,
		"registration_date": true,
		"created_at":        true,
	}
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

	query := fmt.Sprintf(`SELECT id, first_name, second_name, third_name, last_name, normalized_name, phone, course, schedule, delegate_id, registration_date, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, first_name, second_name, third_name, last_name, normalized_name, phone, course, schedule, delegate_id, registration_date, created_at, updated_at
        FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByNormalizedName returns the student whose folded full name matches,
// optionally excluding an ID (used by edits).
func (r *StudentRepository) FindByNormalizedName(ctx context.Context, normalized string, excludeID int64) (*models.Student, error) {
	query := `SELECT id, first_name, second_name, third_name, last_name, normalized_name, phone, course, schedule, delegate_id, registration_date, created_at, updated_at
        FROM students WHERE normalized_name = $1`
	args := []interface{}{normalized}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by normalized name: %w", err)
	}
	return &student, nil
}

// Create inserts a new student, allocating the next dense integer ID inside
// the statement so concurrent writers cannot observe a stale maximum.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, first_name, second_name, third_name, last_name, normalized_name, phone, course, schedule, delegate_id, registration_date, created_at, updated_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM students), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		student.FirstName, student.SecondName, student.ThirdName, student.LastName,
		student.NormalizedName, student.Phone, student.Course, student.Schedule,
		student.DelegateID, student.RegistrationDate, student.CreatedAt, student.UpdatedAt,
	).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. RegistrationDate is left untouched.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, second_name = :second_name, third_name = :third_name, last_name = :last_name,
        normalized_name = :normalized_name, phone = :phone, course = :course, schedule = :schedule, delegate_id = :delegate_id, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student and reports whether a row was deleted.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student rows: %w", err)
	}
	return affected > 0, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// All returns every student, used by backup snapshots.
func (r *StudentRepository) All(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	const query = `SELECT id, first_name, second_name, third_name, last_name, normalized_name, phone, course, schedule, delegate_id, registration_date, created_at, updated_at
        FROM students ORDER BY id`
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("load all students: %w", err)
	}
	return students, nil
}
