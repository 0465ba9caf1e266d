package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

// ActivityService reads the append-only activity log.
type ActivityService struct {
	repo   activityRepository
	logger *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo activityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, logger: logger}
}

// List returns activity entries newest first, with the total match count.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity log")
	}
	return entries, total, nil
}
