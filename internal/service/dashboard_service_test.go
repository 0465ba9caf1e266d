package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type counterStub struct {
	students int
	active   int
	top      *models.Delegate
	calls    int
}

func (c *counterStub) Count(ctx context.Context) (int, error) {
	c.calls++
	return c.students, nil
}

func (c *counterStub) CountActive(ctx context.Context) (int, error) {
	return c.active, nil
}

func (c *counterStub) TopDelegate(ctx context.Context) (*models.Delegate, error) {
	if c.top == nil {
		return nil, sql.ErrNoRows
	}
	return c.top, nil
}

func (c *counterStub) Totals(ctx context.Context) (*models.CommissionTotals, error) {
	return &models.CommissionTotals{PendingCount: 3, PaidAmount: 1500}, nil
}

type cacheStub struct {
	entries map[string][]byte
	sets    int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func TestDashboardServiceSummaryComposesAndCaches(t *testing.T) {
	counters := &counterStub{students: 42, active: 5, top: &models.Delegate{ID: 7, Name: "سالم", Students: 12}}
	cache := newCacheStub()
	svc := NewDashboardService(DashboardServiceParams{
		Students:    counters,
		Delegates:   counters,
		Commissions: counters,
		Cache:       cache,
	})

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 42, summary.StudentCount)
	require.Equal(t, 5, summary.ActiveDelegates)
	require.Equal(t, 3, summary.Commissions.PendingCount)
	require.Equal(t, "سالم", summary.TopDelegate.Name)
	require.Equal(t, 1, cache.sets)

	// The second read is served from cache without touching the counters.
	summary, cached, err = svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, 42, summary.StudentCount)
	require.Equal(t, 1, counters.calls)
}

func TestDashboardServiceSummaryOmitsTopDelegateWhenNone(t *testing.T) {
	counters := &counterStub{students: 0, active: 0}
	svc := NewDashboardService(DashboardServiceParams{
		Students:    counters,
		Delegates:   counters,
		Commissions: counters,
	})

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.False(t, cached)
	require.Nil(t, summary.TopDelegate)
}

func TestDashboardServiceSummaryWorksWithoutCache(t *testing.T) {
	counters := &counterStub{students: 10, active: 2}
	svc := NewDashboardService(DashboardServiceParams{
		Students:    counters,
		Delegates:   counters,
		Commissions: counters,
	})

	for i := 0; i < 2; i++ {
		_, cached, err := svc.Summary(context.Background())
		require.NoError(t, err)
		require.False(t, cached)
	}
	require.Equal(t, 2, counters.calls)
}
