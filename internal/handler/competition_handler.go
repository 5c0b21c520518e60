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

// CompetitionHandler exposes competition endpoints.
type CompetitionHandler struct {
	competitions *service.CompetitionService
}

// NewCompetitionHandler constructs CompetitionHandler.
func NewCompetitionHandler(competitions *service.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitions: competitions}
}

// List godoc
// @Summary List competitions
// @Tags Competitions
// @Produce json
// @Param search query string false "Search by name"
// @Param season query string false "Filter by season"
// @Param category query string false "Filter by category"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /competitions [get]
func (h *CompetitionHandler) List(c *gin.Context) {
	var filter models.CompetitionFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Season = c.Query("season")
	filter.Category = models.CompetitionCategory(c.Query("category"))
	filter.Active = boolQuery(c, "active")
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	competitions, pagination, err := h.competitions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, competitions, pagination)
}

// Get godoc
// @Summary Get competition detail
// @Tags Competitions
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id} [get]
func (h *CompetitionHandler) Get(c *gin.Context) {
	competition, err := h.competitions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, competition, nil)
}

// Create godoc
// @Summary Create competition
// @Tags Competitions
// @Accept json
// @Produce json
// @Param payload body dto.CreateCompetitionRequest true "Competition payload"
// @Success 201 {object} response.Envelope
// @Router /competitions [post]
func (h *CompetitionHandler) Create(c *gin.Context) {
	var req dto.CreateCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	competition, err := h.competitions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, competition)
}

// Update godoc
// @Summary Update competition
// @Tags Competitions
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param payload body dto.UpdateCompetitionRequest true "Competition payload"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id} [put]
func (h *CompetitionHandler) Update(c *gin.Context) {
	var req dto.UpdateCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	competition, err := h.competitions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, competition, nil)
}

// Deactivate godoc
// @Summary Deactivate competition
// @Tags Competitions
// @Produce json
// @Param id path string true "Competition ID"
// @Success 204 {object} response.Envelope
// @Router /competitions/{id} [delete]
func (h *CompetitionHandler) Deactivate(c *gin.Context) {
	if err := h.competitions.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
