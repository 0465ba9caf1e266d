package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	})
	router.GET("/users/:id", RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	router := rbacRouter(&models.JWTClaims{UserID: 1, Role: models.RoleAdmin}, string(models.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsOtherRoles(t *testing.T) {
	router := rbacRouter(&models.JWTClaims{UserID: 1, Role: models.RoleDelegate}, string(models.RoleAdmin), string(models.RoleManager))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/5", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACSelfAllowsOwnRecordOnly(t *testing.T) {
	claims := &models.JWTClaims{UserID: 5, Role: models.RoleDelegate}
	router := rbacRouter(claims, string(models.RoleAdmin), "SELF")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/6", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACRequiresAuthentication(t *testing.T) {
	router := rbacRouter(nil, string(models.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/5", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
