package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mandoub-dev/mandoub-api/internal/service"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
	"github.com/mandoub-dev/mandoub-api/pkg/response"
)

// BackupHandler exposes snapshot creation, listing, download and restore.
type BackupHandler struct {
	backups *service.BackupService
}

// NewBackupHandler constructs BackupHandler.
func NewBackupHandler(backups *service.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// Create godoc
// @Summary Queue a new backup snapshot
// @Tags Backups
// @Accept json
// @Produce json
// @Param payload body object false "Optional snapshot name"
// @Success 202 {object} response.Envelope
// @Router /backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	// Body is optional; a missing name gets a generated one.
	_ = c.ShouldBindJSON(&payload)

	info, err := h.backups.Create(c.Request.Context(), payload.Name, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, info, nil)
}

// List godoc
// @Summary List stored backup snapshots
// @Tags Backups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, backups, nil)
}

// Download godoc
// @Summary Download a backup snapshot
// @Tags Backups
// @Produce application/json
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /backups/download [get]
func (h *BackupHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.backups.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename="+download.Filename)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, download.File)
}

// Restore godoc
// @Summary Restore from an uploaded snapshot
// @Description Replaces the persisted collections with the snapshot contents
// @Tags Backups
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Backup JSON file"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /backups/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a backup file upload is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	if err := h.backups.Restore(c.Request.Context(), file, actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
