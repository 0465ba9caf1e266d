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

// CourseRepository manages persistence for course offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, status, start_date, end_date, current_students, max_students, created_at, updated_at`

// List returns all courses, optionally filtered by status.
func (r *CourseRepository) List(ctx context.Context, status *models.CourseStatus) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses", courseColumns)
	var args []interface{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY id"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1 LIMIT 1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindByName fetches a course by exact name, used by imports.
func (r *CourseRepository) FindByName(ctx context.Context, name string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE name = $1 LIMIT 1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, strings.TrimSpace(name)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by name: %w", err)
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, status, start_date, end_date, current_students, max_students, created_at, updated_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM courses), $1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		course.Name, course.Status, course.StartDate, course.EndDate,
		course.CurrentStudents, course.MaxStudents, course.CreatedAt, course.UpdatedAt,
	).Scan(&course.ID); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, status = :status, start_date = :start_date, end_date = :end_date,
        current_students = :current_students, max_students = :max_students, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course. Students keep their course name; no cascade.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// All returns every course, used by backup snapshots.
func (r *CourseRepository) All(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	query := fmt.Sprintf("SELECT %s FROM courses ORDER BY id", courseColumns)
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("load all courses: %w", err)
	}
	return courses, nil
}
