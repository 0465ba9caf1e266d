package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type delegateCounter interface {
	CountActive(ctx context.Context) (int, error)
	TopDelegate(ctx context.Context) (*models.Delegate, error)
}

type commissionTotaller interface {
	Totals(ctx context.Context) (*models.CommissionTotals, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardSummary is the aggregate payload served by the dashboard endpoint.
type DashboardSummary struct {
	StudentCount    int                      `json:"student_count"`
	ActiveDelegates int                      `json:"active_delegates"`
	Commissions     *models.CommissionTotals `json:"commissions"`
	TopDelegate     *models.Delegate         `json:"top_delegate,omitempty"`
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students    studentCounter
	Delegates   delegateCounter
	Commissions commissionTotaller
	Cache       dashboardCache
	Logger      *zap.Logger
	CacheTTL    time.Duration
}

// DashboardService composes the aggregate counters shown on the console
// landing page, with a short-lived Redis cache in front.
type DashboardService struct {
	students    studentCounter
	delegates   delegateCounter
	commissions commissionTotaller
	cache       dashboardCache
	logger      *zap.Logger
	ttl         time.Duration
}

const dashboardCacheKey = "dash:summary"

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:    params.Students,
		delegates:   params.Delegates,
		commissions: params.Commissions,
		cache:       params.Cache,
		logger:      logger,
		ttl:         ttl,
	}
}

// Summary returns the dashboard rollup and reports whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*DashboardSummary, error) {
	studentCount, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	activeDelegates, err := s.delegates.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count delegates")
	}
	totals, err := s.commissions.Totals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate commissions")
	}

	summary := &DashboardSummary{
		StudentCount:    studentCount,
		ActiveDelegates: activeDelegates,
		Commissions:     totals,
	}

	top, err := s.delegates.TopDelegate(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve top delegate")
		}
	} else {
		summary.TopDelegate = top
	}
	return summary, nil
}
