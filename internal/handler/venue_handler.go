package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/service"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/response"
)

// VenueHandler exposes venue endpoints.
type VenueHandler struct {
	venues *service.VenueService
}

// NewVenueHandler constructs VenueHandler.
func NewVenueHandler(venues *service.VenueService) *VenueHandler {
	return &VenueHandler{venues: venues}
}

// List godoc
// @Summary List venues
// @Tags Venues
// @Produce json
// @Param search query string false "Search by name"
// @Param city query string false "Filter by city"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /venues [get]
func (h *VenueHandler) List(c *gin.Context) {
	var filter models.VenueFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.City = c.Query("city")
	filter.Active = boolQuery(c, "active")
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	venues, pagination, err := h.venues.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venues, pagination)
}

// Get godoc
// @Summary Get venue detail
// @Tags Venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.Envelope
// @Router /venues/{id} [get]
func (h *VenueHandler) Get(c *gin.Context) {
	venue, err := h.venues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venue, nil)
}

// Create godoc
// @Summary Create venue
// @Tags Venues
// @Accept json
// @Produce json
// @Param payload body dto.CreateVenueRequest true "Venue payload"
// @Success 201 {object} response.Envelope
// @Router /venues [post]
func (h *VenueHandler) Create(c *gin.Context) {
	var req dto.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	venue, err := h.venues.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, venue)
}

// Update godoc
// @Summary Update venue
// @Tags Venues
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param payload body dto.UpdateVenueRequest true "Venue payload"
// @Success 200 {object} response.Envelope
// @Router /venues/{id} [put]
func (h *VenueHandler) Update(c *gin.Context) {
	var req dto.UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	venue, err := h.venues.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venue, nil)
}

// Deactivate godoc
// @Summary Deactivate venue
// @Tags Venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 204 {object} response.Envelope
// @Router /venues/{id} [delete]
func (h *VenueHandler) Deactivate(c *gin.Context) {
	if err := h.venues.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
