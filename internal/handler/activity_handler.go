package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/internal/service"
	"github.com/mandoub-dev/mandoub-api/pkg/response"
)

// ActivityHandler exposes the read side of the activity log.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List godoc
// @Summary List activity log entries
// @Tags Activity
// @Produce json
// @Param userId query int false "Filter by actor"
// @Param target query string false "Filter by target type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var filter models.ActivityFilter
	if userID, err := strconv.ParseInt(c.Query("userId"), 10, 64); err == nil {
		filter.UserID = userID
	}
	filter.Target = c.Query("target")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	entries, total, err := h.activity.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, map[string]interface{}{"total": total})
}
