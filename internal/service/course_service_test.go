package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type courseRepoStub struct {
	courses map[int64]*models.Course
	nextID  int64
}

func newCourseRepoStub(courses ...*models.Course) *courseRepoStub {
	stub := &courseRepoStub{courses: make(map[int64]*models.Course), nextID: 1}
	for _, c := range courses {
		stub.courses[c.ID] = c
		if c.ID >= stub.nextID {
			stub.nextID = c.ID + 1
		}
	}
	return stub
}

func (c *courseRepoStub) List(ctx context.Context, status *models.CourseStatus) ([]models.Course, error) {
	result := make([]models.Course, 0, len(c.courses))
	for _, course := range c.courses {
		if status != nil && course.Status != *status {
			continue
		}
		result = append(result, *course)
	}
	return result, nil
}

func (c *courseRepoStub) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if course, ok := c.courses[id]; ok {
		copy := *course
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	course.ID = c.nextID
	c.nextID++
	copy := *course
	c.courses[course.ID] = &copy
	return nil
}

func (c *courseRepoStub) Update(ctx context.Context, course *models.Course) error {
	if _, ok := c.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *course
	c.courses[course.ID] = &copy
	return nil
}

func (c *courseRepoStub) Delete(ctx context.Context, id int64) error {
	delete(c.courses, id)
	return nil
}

func TestCourseServiceProgress(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, fixedClock("2026-02-15"))

	cases := []struct {
		name   string
		course models.Course
		want   float64
	}{
		{
			name:   "upcoming is always zero",
			course: models.Course{Status: models.CourseUpcoming, StartDate: "2026-01-01", EndDate: "2026-02-01"},
			want:   0,
		},
		{
			name:   "completed is always full",
			course: models.Course{Status: models.CourseCompleted, StartDate: "2026-03-01", EndDate: "2026-04-01"},
			want:   100,
		},
		{
			name:   "active halfway",
			course: models.Course{Status: models.CourseActive, StartDate: "2026-02-01", EndDate: "2026-03-01"},
			want:   50,
		},
		{
			name:   "active clamps above the end date",
			course: models.Course{Status: models.CourseActive, StartDate: "2026-01-01", EndDate: "2026-01-31"},
			want:   100,
		},
		{
			name:   "active clamps before the start date",
			course: models.Course{Status: models.CourseActive, StartDate: "2026-03-01", EndDate: "2026-04-01"},
			want:   0,
		},
		{
			name:   "inverted dates fall back to zero",
			course: models.Course{Status: models.CourseActive, StartDate: "2026-03-01", EndDate: "2026-02-01"},
			want:   0,
		},
		{
			name:   "unparsable dates fall back to zero",
			course: models.Course{Status: models.CourseActive, StartDate: "soon", EndDate: "later"},
			want:   0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, svc.Progress(tc.course), 0.01)
		})
	}
}

func TestCourseServiceCreateAndGet(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, nil, nil, fixedClock("2026-02-15"))

	created, err := svc.Create(context.Background(), CourseRequest{
		Name:        "إنجليزي",
		Status:      models.CourseActive,
		StartDate:   "2026-02-01",
		EndDate:     "2026-03-01",
		MaxStudents: 30,
	})
	require.NoError(t, err)
	require.InDelta(t, 50, created.Progress, 0.01)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "إنجليزي", got.Name)
}

func TestCourseServiceCreateValidatesDates(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), CourseRequest{
		Name:      "إنجليزي",
		Status:    models.CourseActive,
		StartDate: "01/02/2026",
		EndDate:   "2026-03-01",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceListFiltersByStatus(t *testing.T) {
	repo := newCourseRepoStub(
		&models.Course{ID: 1, Name: "أ", Status: models.CourseActive, StartDate: "2026-01-01", EndDate: "2026-03-01"},
		&models.Course{ID: 2, Name: "ب", Status: models.CourseUpcoming, StartDate: "2026-04-01", EndDate: "2026-05-01"},
	)
	svc := NewCourseService(repo, nil, nil, fixedClock("2026-02-15"))

	active := models.CourseActive
	details, err := svc.List(context.Background(), &active)
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, "أ", details[0].Name)
}

func TestCourseServiceUpdateNotFound(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, nil)

	_, err := svc.Update(context.Background(), 9, CourseRequest{
		Name:      "إنجليزي",
		Status:    models.CourseActive,
		StartDate: "2026-02-01",
		EndDate:   "2026-03-01",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
