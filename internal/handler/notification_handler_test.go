package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mandoub-dev/mandoub-api/internal/middleware"
	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/internal/service"
)

type fakeNotificationRepo struct {
	listed  []models.Notification
	marked  []int64
	cleared []int64
	lastUID int64
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return nil
}

func (f *fakeNotificationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	f.lastUID = userID
	if limit < len(f.listed) {
		return f.listed[:limit], nil
	}
	return f.listed, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	f.marked = append(f.marked, -userID)
	return nil
}

func (f *fakeNotificationRepo) ClearForUser(ctx context.Context, userID int64) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

func viewerContext(rec *httptest.ResponseRecorder, method, target string) (*gin.Context, *gin.Engine) {
	c, engine := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 9, Role: models.RoleManager})
	return c, engine
}

func TestNotificationHandlerListScopesToViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeNotificationRepo{listed: []models.Notification{{ID: 1, Title: "تنبيه"}}}
	handler := NewNotificationHandler(service.NewNotificationService(repo, nil))

	rec := httptest.NewRecorder()
	c, _ := viewerContext(rec, http.MethodGet, "/notifications")

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), repo.lastUID)
}

func TestNotificationHandlerListRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(service.NewNotificationService(&fakeNotificationRepo{}, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandlerMarkReadValidatesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeNotificationRepo{}
	handler := NewNotificationHandler(service.NewNotificationService(repo, nil))

	rec := httptest.NewRecorder()
	c, _ := viewerContext(rec, http.MethodPatch, "/notifications/abc/read")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.MarkRead(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.marked)
}

func TestNotificationHandlerClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeNotificationRepo{}
	handler := NewNotificationHandler(service.NewNotificationService(repo, nil))

	rec := httptest.NewRecorder()
	c, _ := viewerContext(rec, http.MethodDelete, "/notifications")

	handler.Clear(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{9}, repo.cleared)
}
