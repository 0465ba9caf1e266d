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
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type commissionRepository interface {
	List(ctx context.Context, filter models.CommissionFilter) ([]models.Commission, int, error)
	FindByID(ctx context.Context, id int64) (*models.Commission, error)
	Update(ctx context.Context, commission *models.Commission) error
	Delete(ctx context.Context, id int64) error
	Totals(ctx context.Context) (*models.CommissionTotals, error)
}

type commissionDelegateRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Delegate, error)
}

// UpdateCommissionStatusRequest sets a new payout status.
type UpdateCommissionStatusRequest struct {
	Status models.CommissionStatus `json:"status" validate:"required,oneof=pending confirmed paid cancelled"`
}

// UpdateStudentStatusRequest sets a new student-side status.
type UpdateStudentStatusRequest struct {
	StudentStatus models.StudentStatus `json:"student_status" validate:"required,oneof=registered fees_paid studying on_hold dropped completed"`
}

// CommissionService owns payout-status transitions and the student-status
// reconciliation that derives payout changes from enrollment outcomes.
type CommissionService struct {
	commissions   commissionRepository
	delegates     commissionDelegateRepository
	activity      activityWriter
	notifications notificationWriter
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// CommissionServiceParams groups constructor dependencies.
type CommissionServiceParams struct {
	Commissions   commissionRepository
	Delegates     commissionDelegateRepository
	Activity      activityWriter
	Notifications notificationWriter
	Validator     *validator.Validate
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewCommissionService constructs the commission service.
func NewCommissionService(p CommissionServiceParams) *CommissionService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &CommissionService{
		commissions:   p.Commissions,
		delegates:     p.Delegates,
		activity:      p.Activity,
		notifications: p.Notifications,
		validator:     p.Validator,
		logger:        p.Logger,
		now:           p.Now,
	}
}

// List returns commissions and pagination metadata.
func (s *CommissionService) List(ctx context.Context, filter models.CommissionFilter) ([]models.Commission, *models.Pagination, error) {
	commissions, total, err := s.commissions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return commissions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one commission.
func (s *CommissionService) Get(ctx context.Context, id int64) (*models.Commission, error) {
	commission, err := s.commissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "commission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commission")
	}
	return commission, nil
}

// UpdateStatus sets the payout status. Any status may be set from any other
// status; no transition is rejected. Confirmed stamps confirmed_date only the
// first time, paid re-stamps paid_date on every entry, and both of those
// transitions notify the owning delegate's user.
func (s *CommissionService) UpdateStatus(ctx context.Context, id int64, req UpdateCommissionStatusRequest, actorID *int64) (*models.Commission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	commission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := commission.Status
	today := s.now().Format("2006-01-02")

	commission.Status = req.Status
	switch req.Status {
	case models.CommissionConfirmed:
		if commission.ConfirmedDate == nil {
			commission.ConfirmedDate = &today
		}
	case models.CommissionPaid:
		commission.PaidDate = &today
	}

	if err := s.commissions.Update(ctx, commission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update commission")
	}

	if req.Status == models.CommissionConfirmed || req.Status == models.CommissionPaid {
		s.notifyDelegate(ctx, commission, req.Status)
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:   actorID,
		Action:   models.ActivityActionStatus,
		Target:   "commissions",
		TargetID: &commission.ID,
		Details:  fmt.Sprintf("commission status %s -> %s", previous, req.Status),
	}); err != nil {
		s.logger.Warn("failed to record commission status activity", zap.Error(err))
	}

	return commission, nil
}

// UpdateStudentStatus writes the student-side status and derives payout
// changes for the two terminal outcomes: completed forces confirmed unless
// the commission is already paid, dropped forces cancelled unconditionally.
func (s *CommissionService) UpdateStudentStatus(ctx context.Context, id int64, req UpdateStudentStatusRequest, actorID *int64) (*models.Commission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	commission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := commission.StudentStatus
	today := s.now().Format("2006-01-02")

	switch req.StudentStatus {
	case models.StudentCompleted:
		if commission.Status != models.CommissionPaid {
			commission.Status = models.CommissionConfirmed
			if commission.ConfirmedDate == nil {
				commission.ConfirmedDate = &today
			}
		}
	case models.StudentDropped:
		// A drop cancels the commission even when it was already paid. The
		// console has always worked this way; the warning makes the money
		// implication visible to operators.
		if commission.Status == models.CommissionPaid {
			s.logger.Warn("cancelling a paid commission on student drop",
				zap.Int64("commission_id", commission.ID),
				zap.Float64("amount", commission.Amount))
		}
		commission.Status = models.CommissionCancelled
	}
	commission.StudentStatus = req.StudentStatus

	if err := s.commissions.Update(ctx, commission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update commission")
	}

	if err := s.activity.Create(ctx, &models.ActivityLog{
		UserID:   actorID,
		Action:   models.ActivityActionStatus,
		Target:   "commissions",
		TargetID: &commission.ID,
		Details:  fmt.Sprintf("student status %s -> %s", previous, req.StudentStatus),
	}); err != nil {
		s.logger.Warn("failed to record student status activity", zap.Error(err))
	}

	return commission, nil
}

// Delete removes one commission independently of its student.
func (s *CommissionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.commissions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete commission")
	}
	return nil
}

// Totals aggregates commission counts and amounts by status.
func (s *CommissionService) Totals(ctx context.Context) (*models.CommissionTotals, error) {
	totals, err := s.commissions.Totals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commission totals")
	}
	return totals, nil
}

// notifyDelegate targets the delegate's user account; a missing delegate or
// user link skips the notification silently.
func (s *CommissionService) notifyDelegate(ctx context.Context, commission *models.Commission, status models.CommissionStatus) {
	delegate, err := s.delegates.FindByID(ctx, commission.DelegateID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve commission delegate", zap.Error(err))
		}
		return
	}

	title := "تأكيد عمولة"
	message := fmt.Sprintf("تم تأكيد عمولة الطالب %s", commission.StudentName)
	if status == models.CommissionPaid {
		title = "دفع عمولة"
		message = fmt.Sprintf("تم دفع عمولة الطالب %s بمبلغ %.0f", commission.StudentName, commission.Amount)
	}

	if err := s.notifications.Create(ctx, &models.Notification{
		UserID:   &delegate.UserID,
		Title:    title,
		Message:  message,
		Severity: models.SeveritySuccess,
	}); err != nil {
		s.logger.Warn("failed to notify delegate", zap.Error(err))
	}
}
