package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/service"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/response"
)

// AvailabilityHandler exposes the referee availability registry.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// List godoc
// @Summary List availability declarations
// @Description Lists per-day declarations of one referee inside a date window
// @Tags Availability
// @Produce json
// @Param id path string true "Referee ID"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /referees/{id}/availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	items, err := h.availability.List(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Set godoc
// @Summary Declare availability for one day
// @Description Upserts the referee's declaration; days without one count as available
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Referee ID"
// @Param payload body dto.SetAvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Router /referees/{id}/availability [put]
func (h *AvailabilityHandler) Set(c *gin.Context) {
	var req dto.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	actor := actorFromContext(c)
	item, err := h.availability.Set(c.Request.Context(), c.Param("id"), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SetRange godoc
// @Summary Declare availability for a date range
// @Description Applies one declaration to every day of the inclusive range
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Referee ID"
// @Param payload body dto.SetAvailabilityRangeRequest true "Availability range payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /referees/{id}/availability/range [put]
func (h *AvailabilityHandler) SetRange(c *gin.Context) {
	var req dto.SetAvailabilityRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	actor := actorFromContext(c)
	items, err := h.availability.SetRange(c.Request.Context(), c.Param("id"), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
