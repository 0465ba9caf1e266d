package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/service"
	"github.com/mandoub-dev/mandoub-api/pkg/response"
)

// DashboardHandler serves the console landing-page rollup.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics}
}

// Summary godoc
// @Summary Dashboard rollup
// @Description Student totals, active delegates, commission sums, top delegate
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cached, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(cached)
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}
