package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oref-labs/placement-api/internal/middleware"
	"github.com/oref-labs/placement-api/internal/service"
	appErrors "github.com/oref-labs/placement-api/pkg/errors"
	"github.com/oref-labs/placement-api/pkg/response"
)

// AssignmentHandler exposes the assign/edit/clear actions.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List all placements
// @Tags Placements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.assignments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Create godoc
// @Summary Save a batch of placements, one row per selected student
// @Tags Placements
// @Accept json
// @Produce json
// @Param X-Actor header string true "Editor identifier"
// @Param payload body service.BatchCreateRequest true "Placement batch"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.assignments.CreateBatch(c.Request.Context(), middleware.ActorValue(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Replace all fields of one placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path int true "Placement ID"
// @Param X-Actor header string true "Editor identifier"
// @Param payload body service.UpdateAssignmentRequest true "Placement fields"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid placement id"))
		return
	}
	var req service.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.assignments.Update(c.Request.Context(), middleware.ActorValue(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// RequestClear godoc
// @Summary Request a clear-all confirmation token
// @Tags Placements
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /assignments/clear [post]
func (h *AssignmentHandler) RequestClear(c *gin.Context) {
	confirmation := h.assignments.RequestClear(c.Request.Context(), middleware.ActorValue(c))
	response.Accepted(c, confirmation)
}

type clearTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ConfirmClear godoc
// @Summary Destroy every placement after explicit confirmation
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body clearTokenRequest true "Confirmation token"
// @Success 200 {object} response.Envelope
// @Router /assignments/clear/confirm [post]
func (h *AssignmentHandler) ConfirmClear(c *gin.Context) {
	var req clearTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "confirmation token required"))
		return
	}
	deleted, err := h.assignments.ConfirmClear(c.Request.Context(), middleware.ActorValue(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// CancelClear godoc
// @Summary Cancel a pending clear-all confirmation
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body clearTokenRequest true "Confirmation token"
// @Success 204
// @Router /assignments/clear/cancel [post]
func (h *AssignmentHandler) CancelClear(c *gin.Context) {
	var req clearTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "confirmation token required"))
		return
	}
	if err := h.assignments.CancelClear(req.Token); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
