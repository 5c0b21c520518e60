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

// RefereeHandler exposes referee registry endpoints.
type RefereeHandler struct {
	referees *service.RefereeService
}

// NewRefereeHandler constructs RefereeHandler.
func NewRefereeHandler(referees *service.RefereeService) *RefereeHandler {
	return &RefereeHandler{referees: referees}
}

// List godoc
// @Summary List referees
// @Tags Referees
// @Produce json
// @Param search query string false "Search by name"
// @Param license query string false "Filter by license category"
// @Param city query string false "Filter by city"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /referees [get]
func (h *RefereeHandler) List(c *gin.Context) {
	var filter models.RefereeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.License = models.LicenseCategory(c.Query("license"))
	filter.City = c.Query("city")
	if status := c.Query("status"); status != "" {
		s := models.RefereeStatus(status)
		filter.Status = &s
	}
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	referees, pagination, err := h.referees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, referees, pagination)
}

// Get godoc
// @Summary Get referee detail
// @Tags Referees
// @Produce json
// @Param id path string true "Referee ID"
// @Success 200 {object} response.Envelope
// @Router /referees/{id} [get]
func (h *RefereeHandler) Get(c *gin.Context) {
	referee, err := h.referees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, referee, nil)
}

// Create godoc
// @Summary Create referee profile
// @Tags Referees
// @Accept json
// @Produce json
// @Param payload body dto.CreateRefereeRequest true "Referee payload"
// @Success 201 {object} response.Envelope
// @Router /referees [post]
func (h *RefereeHandler) Create(c *gin.Context) {
	var req dto.CreateRefereeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	referee, err := h.referees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, referee)
}

// Update godoc
// @Summary Update referee profile
// @Tags Referees
// @Accept json
// @Produce json
// @Param id path string true "Referee ID"
// @Param payload body dto.UpdateRefereeRequest true "Referee payload"
// @Success 200 {object} response.Envelope
// @Router /referees/{id} [put]
func (h *RefereeHandler) Update(c *gin.Context) {
	var req dto.UpdateRefereeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	referee, err := h.referees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, referee, nil)
}

// SetStatus godoc
// @Summary Change referee status
// @Tags Referees
// @Accept json
// @Produce json
// @Param id path string true "Referee ID"
// @Param payload body dto.SetRefereeStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /referees/{id}/status [put]
func (h *RefereeHandler) SetStatus(c *gin.Context) {
	var req dto.SetRefereeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	referee, err := h.referees.SetStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, referee, nil)
}
