package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/internal/service"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
	"github.com/mandoub-dev/mandoub-api/pkg/response"
)

// DelegateHandler exposes delegate endpoints.
type DelegateHandler struct {
	delegates *service.DelegateService
}

// NewDelegateHandler constructs DelegateHandler.
func NewDelegateHandler(delegates *service.DelegateService) *DelegateHandler {
	return &DelegateHandler{delegates: delegates}
}

// List godoc
// @Summary List delegates
// @Tags Delegates
// @Produce json
// @Param search query string false "Search by name or phone"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /delegates [get]
func (h *DelegateHandler) List(c *gin.Context) {
	var filter models.DelegateFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	delegates, pagination, err := h.delegates.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, delegates, pagination)
}

// Get godoc
// @Summary Get delegate detail
// @Tags Delegates
// @Produce json
// @Param id path int true "Delegate ID"
// @Success 200 {object} response.Envelope
// @Router /delegates/{id} [get]
func (h *DelegateHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	delegate, err := h.delegates.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, delegate, nil)
}

// Create godoc
// @Summary Create delegate
// @Tags Delegates
// @Accept json
// @Produce json
// @Param payload body service.CreateDelegateRequest true "Delegate payload"
// @Success 201 {object} response.Envelope
// @Router /delegates [post]
func (h *DelegateHandler) Create(c *gin.Context) {
	var req service.CreateDelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	delegate, err := h.delegates.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, delegate)
}

// Update godoc
// @Summary Update delegate
// @Tags Delegates
// @Accept json
// @Produce json
// @Param id path int true "Delegate ID"
// @Param payload body service.UpdateDelegateRequest true "Delegate payload"
// @Success 200 {object} response.Envelope
// @Router /delegates/{id} [put]
func (h *DelegateHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateDelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	delegate, err := h.delegates.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, delegate, nil)
}

// Network godoc
// @Summary List users referred by the delegate
// @Tags Delegates
// @Produce json
// @Param id path int true "Delegate ID"
// @Success 200 {object} response.Envelope
// @Router /delegates/{id}/network [get]
func (h *DelegateHandler) Network(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	users, err := h.delegates.Network(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// Top godoc
// @Summary Get the delegate with the most students
// @Tags Delegates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /delegates/top [get]
func (h *DelegateHandler) Top(c *gin.Context) {
	delegate, err := h.delegates.Top(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, delegate, nil)
}

// BankAccounts godoc
// @Summary List delegate bank accounts
// @Tags Delegates
// @Produce json
// @Param id path int true "Delegate ID"
// @Success 200 {object} response.Envelope
// @Router /delegates/{id}/bank-accounts [get]
func (h *DelegateHandler) BankAccounts(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	accounts, err := h.delegates.BankAccounts(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, nil)
}

// AddBankAccount godoc
// @Summary Add a delegate bank account
// @Tags Delegates
// @Accept json
// @Produce json
// @Param id path int true "Delegate ID"
// @Param payload body service.CreateBankAccountRequest true "Bank account payload"
// @Success 201 {object} response.Envelope
// @Router /delegates/{id}/bank-accounts [post]
func (h *DelegateHandler) AddBankAccount(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.delegates.AddBankAccount(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// RemoveBankAccount godoc
// @Summary Remove a delegate bank account
// @Tags Delegates
// @Produce json
// @Param id path int true "Delegate ID"
// @Param accountId path int true "Bank account ID"
// @Success 204 {object} response.Envelope
// @Router /delegates/{id}/bank-accounts/{accountId} [delete]
func (h *DelegateHandler) RemoveBankAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil || accountID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid accountId parameter"))
		return
	}
	if err := h.delegates.RemoveBankAccount(c.Request.Context(), accountID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
