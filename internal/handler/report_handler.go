package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oref-labs/placement-api/internal/service"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
	"github.com/oref-labs/placement-api/pkg/response"
)

// ReportHandler exposes the report and edit views.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Assignments godoc
// @Summary Full placements report
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/assignments [get]
func (h *ReportHandler) Assignments(c *gin.Context) {
	rows, err := h.reports.Assignments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Unconnected godoc
// @Summary Roster students with no placement row
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/unconnected [get]
func (h *ReportHandler) Unconnected(c *gin.Context) {
	names, warnings, err := h.reports.Unconnected(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, warnings)
}

// EditForm godoc
// @Summary Edit view for one placement, with current reference options
// @Tags Reports
// @Produce json
// @Param id path int true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/edit-form [get]
func (h *ReportHandler) EditForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid placement id"))
		return
	}
	form, warnings, err := h.reports.EditForm(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, warnings)
}
