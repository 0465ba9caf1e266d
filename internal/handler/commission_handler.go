package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/internal/service"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
	"github.com/mandoub-dev/mandoub-api/pkg/response"
)

// CommissionHandler exposes commission endpoints.
type CommissionHandler struct {
	commissions *service.CommissionService
	exports     *service.ExportService
}

// NewCommissionHandler constructs CommissionHandler.
func NewCommissionHandler(commissions *service.CommissionService, exports *service.ExportService) *CommissionHandler {
	return &CommissionHandler{commissions: commissions, exports: exports}
}

// List godoc
// @Summary List commissions
// @Tags Commissions
// @Produce json
// @Param status query string false "Filter by payout status"
// @Param delegateId query int false "Filter by delegate"
// @Param studentId query int false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /commissions [get]
func (h *CommissionHandler) List(c *gin.Context) {
	var filter models.CommissionFilter
	if status := c.Query("status"); status != "" {
		s := models.CommissionStatus(status)
		filter.Status = &s
	}
	if delegateID, err := strconv.ParseInt(c.Query("delegateId"), 10, 64); err == nil {
		filter.DelegateID = delegateID
	}
	if studentID, err := strconv.ParseInt(c.Query("studentId"), 10, 64); err == nil {
		filter.StudentID = studentID
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	commissions, pagination, err := h.commissions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commissions, pagination)
}

// Get godoc
// @Summary Get commission detail
// @Tags Commissions
// @Produce json
// @Param id path int true "Commission ID"
// @Success 200 {object} response.Envelope
// @Router /commissions/{id} [get]
func (h *CommissionHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	commission, err := h.commissions.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commission, nil)
}

// UpdateStatus godoc
// @Summary Update commission payout status
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path int true "Commission ID"
// @Param payload body service.UpdateCommissionStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /commissions/{id}/status [patch]
func (h *CommissionHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateCommissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	commission, err := h.commissions.UpdateStatus(c.Request.Context(), id, req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commission, nil)
}

// UpdateStudentStatus godoc
// @Summary Update the student status on a commission
// @Description Completed confirms an unpaid commission; dropped cancels it
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path int true "Commission ID"
// @Param payload body service.UpdateStudentStatusRequest true "Student status payload"
// @Success 200 {object} response.Envelope
// @Router /commissions/{id}/student-status [patch]
func (h *CommissionHandler) UpdateStudentStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateStudentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	commission, err := h.commissions.UpdateStudentStatus(c.Request.Context(), id, req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, commission, nil)
}

// Delete godoc
// @Summary Delete commission
// @Tags Commissions
// @Produce json
// @Param id path int true "Commission ID"
// @Success 204 {object} response.Envelope
// @Router /commissions/{id} [delete]
func (h *CommissionHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.commissions.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Totals godoc
// @Summary Commission totals by status
// @Tags Commissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /commissions/totals [get]
func (h *CommissionHandler) Totals(c *gin.Context) {
	totals, err := h.commissions.Totals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}

// Export godoc
// @Summary Export commissions as PDF
// @Tags Commissions
// @Produce application/pdf
// @Success 200 {file} file
// @Router /commissions/export [get]
func (h *CommissionHandler) Export(c *gin.Context) {
	file, err := h.exports.CommissionsPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
