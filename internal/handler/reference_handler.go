package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oref-labs/placement-api/internal/models"
	"github.com/oref-labs/placement-api/internal/service"
	"github.com/oref-labs/placement-api/pkg/response"
)

// ReferenceHandler serves the cached reference lists.
type ReferenceHandler struct {
	refs *service.ReferenceService
}

// NewReferenceHandler constructs ReferenceHandler.
func NewReferenceHandler(refs *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// Roster godoc
// @Summary Current student roster with classes
// @Tags Reference
// @Produce json
// @Param class query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /reference/roster [get]
func (h *ReferenceHandler) Roster(c *gin.Context) {
	roster, warnings := h.refs.Roster(c.Request.Context())
	if class := c.Query("class"); class != "" {
		filtered := make([]models.RosterEntry, 0, len(roster))
		for _, entry := range roster {
			if entry.Class == class {
				filtered = append(filtered, entry)
			}
		}
		roster = filtered
	}
	response.JSON(c, http.StatusOK, roster, warnings)
}

// List godoc
// @Summary One named reference list (tests, periods, years or classes)
// @Tags Reference
// @Produce json
// @Param list path string true "List name"
// @Success 200 {object} response.Envelope
// @Router /reference/{list} [get]
func (h *ReferenceHandler) List(c *gin.Context) {
	values, warnings, err := h.refs.List(c.Request.Context(), c.Param("list"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, values, warnings)
}

// Refresh godoc
// @Summary Clear the reference cache so the next read hits the source
// @Tags Reference
// @Produce json
// @Success 204
// @Router /reference/refresh [post]
func (h *ReferenceHandler) Refresh(c *gin.Context) {
	if err := h.refs.InvalidateAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
