package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/internal/repository"
)

// Audit records an activity log entry after successful requests.
func Audit(repo *repository.ActivityRepository, action, target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *int64
		if claims, ok := c.Get(ContextUserKey); ok {
			user := claims.(*models.JWTClaims)
			userID = &user.UserID
		}

		details := fmt.Sprintf("%s %s -> %d (%dms)",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Milliseconds())

		_ = repo.Create(c.Request.Context(), &models.ActivityLog{
			UserID:    userID,
			Action:    action,
			Target:    target,
			Details:   details,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
