package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/pkg/arabic"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByNormalizedName(ctx context.Context, normalized string, excludeID int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type studentCommissionRepository interface {
	Create(ctx context.Context, commission *models.Commission) error
	DeleteByStudentID(ctx context.Context, studentID int64) (int64, error)
}

type studentDelegateRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Delegate, error)
	IncrementStudents(ctx context.Context, id int64) error
	DecrementStudents(ctx context.Context, id int64) error
}

type activityWriter interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// RegisterStudentRequest holds payload for registering a student.
type RegisterStudentRequest struct {
	FirstName  string          `json:"first_name" validate:"required"`
	SecondName string          `json:"second_name" validate:"required"`
	ThirdName  string          `json:"third_name" validate:"required"`
	LastName   string          `json:"last_name" validate:"required"`
	Phone      string          `json:"phone" validate:"required"`
	Course     string          `json:"course" validate:"required"`
	Schedule   models.Schedule `json:"schedule" validate:"required"`
	DelegateID int64           `json:"delegate_id"`

	// Suppress the broadcast notification; bulk import sets this.
	Silent  bool   `json:"-"`
	ActorID *int64 `json:"-"`
}

// UpdateStudentRequest holds payload for editing a student.
type UpdateStudentRequest struct {
	FirstName  string          `json:"first_name" validate:"required"`
	SecondName string          `json:"second_name" validate:"required"`
	ThirdName  string          `json:"third_name" validate:"required"`
	LastName   string          `json:"last_name" validate:"required"`
	Phone      string          `json:"phone" validate:"required"`
	Course     string          `json:"course" validate:"required"`
	Schedule   models.Schedule `json:"schedule" validate:"required"`
	DelegateID int64           `json:"delegate_id" validate:"required"`
}

// RegistrationResult reports what a successful registration created.
type RegistrationResult struct {
	Student    *models.Student    `json:"student"`
	Commission *models.Commission `json:"commission"`
}

// StudentService owns the registration workflow and student CRUD. A
// registration validates the delegate, rejects duplicate names after Arabic
// folding, then creates the student, its paired commission, the delegate
// counter bump, an activity entry and a broadcast notification in order.
type StudentService struct {
	students      studentRepository
	commissions   studentCommissionRepository
	delegates     studentDelegateRepository
	activity      activityWriter
	notifications notificationWriter
	validator     *validator.Validate
	logger        *zap.Logger

	commissionAmount float64
	now              func() time.Time
}

// StudentServiceParams groups constructor dependencies.
type StudentServiceParams struct {
	Students         studentRepository
	Commissions      studentCommissionRepository
	Delegates        studentDelegateRepository
	Activity         activityWriter
	Notifications    notificationWriter
	Validator        *validator.Validate
	Logger           *zap.Logger
	CommissionAmount float64
	Now              func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(p StudentServiceParams) *StudentService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.CommissionAmount <= 0 {
		p.CommissionAmount = 500
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &StudentService{
		students:         p.Students,
		commissions:      p.Commissions,
		delegates:        p.Delegates,
		activity:         p.Activity,
		notifications:    p.Notifications,
		validator:        p.Validator,
		logger:           p.Logger,
		commissionAmount: p.CommissionAmount,
		now:              p.Now,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Register runs the full registration workflow.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*RegistrationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.DelegateID == 0 {
		return nil, appErrors.Clone(appErrors.ErrDelegateRequired, "")
	}

	delegate, err := s.delegates.FindByID(ctx, req.DelegateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrDelegateRequired, "selected delegate does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegate")
	}

	fullName := arabic.JoinName(req.FirstName, req.SecondName, req.ThirdName, req.LastName)
	normalized := arabic.NormalizeName(fullName)

	if existing, err := s.students.FindByNormalizedName(ctx, normalized, 0); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateStudent,
			fmt.Sprintf("student already registered as %s (phone %s)", existing.FullName(), existing.Phone))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicates")
	}

	today := s.now().Format("2006-01-02")
	student := &models.Student{
		FirstName:        req.FirstName,
		SecondName:       req.SecondName,
		ThirdName:        req.ThirdName,
		LastName:         req.LastName,
		NormalizedName:   normalized,
		Phone:            req.Phone,
		Course:           req.Course,
		Schedule:         req.Schedule,
		DelegateID:       delegate.ID,
		RegistrationDate: today,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	commission := &models.Commission{
		StudentID:     student.ID,
		DelegateID:    delegate.ID,
		StudentName:   fullName,
		Amount:        s.commissionAmount,
		Status:        models.CommissionPending,
		StudentStatus: models.StudentRegistered,
		CreatedDate:   today,
	}
	if err := s.commissions.Create(ctx, commission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create commission")
	}

	if err := s.delegates.IncrementStudents(ctx, delegate.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update delegate count")
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:   req.ActorID,
		Action:   models.ActivityActionAdd,
		Target:   "students",
		TargetID: &student.ID,
		Details:  fmt.Sprintf("registered student %s for delegate %s", fullName, delegate.Name),
	}); err != nil {
		s.logger.Warn("failed to record registration activity", zap.Error(err))
	}

	if !req.Silent {
		if err := s.notifications.Create(ctx, &models.Notification{
			UserID:   nil,
			Title:    "تسجيل طالب جديد",
			Message:  fmt.Sprintf("تم تسجيل الطالب %s في دورة %s", fullName, req.Course),
			Severity: models.SeveritySuccess,
		}); err != nil {
			s.logger.Warn("failed to broadcast registration notification", zap.Error(err))
		}
	}

	return &RegistrationResult{Student: student, Commission: commission}, nil
}

// Update edits a student. The registration date never changes, and moving a
// student between delegates transfers one count between their counters.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	fullName := arabic.JoinName(req.FirstName, req.SecondName, req.ThirdName, req.LastName)
	normalized := arabic.NormalizeName(fullName)
	if existing, err := s.students.FindByNormalizedName(ctx, normalized, id); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateStudent,
			fmt.Sprintf("student already registered as %s (phone %s)", existing.FullName(), existing.Phone))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicates")
	}

	previousDelegate := student.DelegateID
	student.FirstName = req.FirstName
	student.SecondName = req.SecondName
	student.ThirdName = req.ThirdName
	student.LastName = req.LastName
	student.NormalizedName = normalized
	student.Phone = req.Phone
	student.Course = req.Course
	student.Schedule = req.Schedule
	student.DelegateID = req.DelegateID

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if previousDelegate != req.DelegateID {
		if err := s.delegates.DecrementStudents(ctx, previousDelegate); err != nil {
			s.logger.Warn("failed to decrement previous delegate count", zap.Error(err))
		}
		if err := s.delegates.IncrementStudents(ctx, req.DelegateID); err != nil {
			s.logger.Warn("failed to increment new delegate count", zap.Error(err))
		}
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		Action:   models.ActivityActionUpdate,
		Target:   "students",
		TargetID: &student.ID,
		Details:  fmt.Sprintf("updated student %s", fullName),
	}); err != nil {
		s.logger.Warn("failed to record student update activity", zap.Error(err))
	}

	return student, nil
}

// Delete removes a student together with its commissions, lowers the owning
// delegate's counter and records the deletion. Unknown ids are a no-op.
func (s *StudentService) Delete(ctx context.Context, id int64, actorID *int64) error {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	deleted, err := s.students.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if !deleted {
		return nil
	}

	if _, err := s.commissions.DeleteByStudentID(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete commissions")
	}

	if err := s.delegates.DecrementStudents(ctx, student.DelegateID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update delegate count")
	}

	fullName := student.FullName()
	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:   actorID,
		Action:   models.ActivityActionDelete,
		Target:   "students",
		TargetID: &id,
		Details:  fmt.Sprintf("deleted student %s", fullName),
	}); err != nil {
		s.logger.Warn("failed to record deletion activity", zap.Error(err))
	}

	if err := s.notifications.Create(ctx, &models.Notification{
		UserID:   nil,
		Title:    "حذف طالب",
		Message:  fmt.Sprintf("تم حذف الطالب %s", fullName),
		Severity: models.SeverityDanger,
	}); err != nil {
		s.logger.Warn("failed to broadcast deletion notification", zap.Error(err))
	}

	return nil
}
