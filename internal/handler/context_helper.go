package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/middleware"
	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorIDFromContext(c *gin.Context) *int64 {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id parameter")
	}
	return id, nil
}
