package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oref-labs/placement-api/internal/service"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
	"github.com/oref-labs/placement-api/pkg/response"
)

// ExportHandler turns report data into downloadable files.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Generate godoc
// @Summary Render a report export and return a signed download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body service.ExportRequest true "Export selection"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	var req service.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, warnings, err := h.exports.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, warnings)
}

// Download godoc
// @Summary Stream a previously generated export
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token required"))
		return
	}
	download, err := h.exports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename=\""+download.Filename+"\"")
	c.Header("Content-Type", download.ContentType)
	c.File(download.File.Name())
}
