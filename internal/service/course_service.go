package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, status *models.CourseStatus) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// CourseRequest holds payload for creating or editing a course.
type CourseRequest struct {
	Name            string              `json:"name" validate:"required"`
	Status          models.CourseStatus `json:"status" validate:"required,oneof=upcoming active completed"`
	StartDate       string              `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string              `json:"end_date" validate:"required,datetime=2006-01-02"`
	CurrentStudents int                 `json:"current_students" validate:"gte=0"`
	MaxStudents     int                 `json:"max_students" validate:"gte=0"`
}

// CourseService handles course CRUD and the derived progress percentage.
type CourseService struct {
	courses   courseRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(courses courseRepository, validate *validator.Validate, logger *zap.Logger, now func() time.Time) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &CourseService{courses: courses, validator: validate, logger: logger, now: now}
}

// List returns courses with computed progress.
func (s *CourseService) List(ctx context.Context, status *models.CourseStatus) ([]models.CourseDetail, error) {
	courses, err := s.courses.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	details := make([]models.CourseDetail, 0, len(courses))
	for _, course := range courses {
		details = append(details, models.CourseDetail{Course: course, Progress: s.Progress(course)})
	}
	return details, nil
}

// Get returns one course with computed progress.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return &models.CourseDetail{Course: *course, Progress: s.Progress(*course)}, nil
}

// Create inserts a new course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Name:            req.Name,
		Status:          req.Status,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CurrentStudents: req.CurrentStudents,
		MaxStudents:     req.MaxStudents,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return &models.CourseDetail{Course: *course, Progress: s.Progress(*course)}, nil
}

// Update edits an existing course.
func (s *CourseService) Update(ctx context.Context, id int64, req CourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course.Name = req.Name
	course.Status = req.Status
	course.StartDate = req.StartDate
	course.EndDate = req.EndDate
	course.CurrentStudents = req.CurrentStudents
	course.MaxStudents = req.MaxStudents
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return &models.CourseDetail{Course: *course, Progress: s.Progress(*course)}, nil
}

// Delete removes a course without cascading to students.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// Progress interpolates the current date between the course bounds, clamped
// to [0,100]. Upcoming is always 0 and completed always 100 regardless of
// dates; unparsable or inverted date ranges fall back to 0.
func (s *CourseService) Progress(course models.Course) float64 {
	switch course.Status {
	case models.CourseUpcoming:
		return 0
	case models.CourseCompleted:
		return 100
	}

	start, err := time.Parse("2006-01-02", course.StartDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse("2006-01-02", course.EndDate)
	if err != nil {
		return 0
	}
	total := end.Sub(start)
	if total <= 0 {
		return 0
	}

	elapsed := s.now().Sub(start)
	progress := float64(elapsed) / float64(total) * 100
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
