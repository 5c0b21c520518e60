package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/service"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/response"
)

// MatchHandler exposes match schedule endpoints.
type MatchHandler struct {
	matches *service.MatchService
}

// NewMatchHandler constructs MatchHandler.
func NewMatchHandler(matches *service.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// List godoc
// @Summary List matches
// @Tags Matches
// @Produce json
// @Param competitionId query string false "Filter by competition"
// @Param teamId query string false "Filter by home or away team"
// @Param venueId query string false "Filter by venue"
// @Param status query string false "Filter by status"
// @Param dateFrom query string false "Scheduled on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Scheduled on or before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	var filter models.MatchFilter
	filter.CompetitionID = c.Query("competitionId")
	filter.TeamID = c.Query("teamId")
	filter.VenueID = c.Query("venueId")
	if status := c.Query("status"); status != "" {
		s := models.MatchStatus(status)
		filter.Status = &s
	}
	if from := c.Query("dateFrom"); from != "" {
		t, err := time.Parse(models.AvailabilityDateLayout, from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &t
	}
	if to := c.Query("dateTo"); to != "" {
		t, err := time.Parse(models.AvailabilityDateLayout, to)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &t
	}
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	matches, pagination, err := h.matches.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, pagination)
}

// Get godoc
// @Summary Get match detail
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id} [get]
func (h *MatchHandler) Get(c *gin.Context) {
	match, err := h.matches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// Create godoc
// @Summary Create match
// @Tags Matches
// @Accept json
// @Produce json
// @Param payload body dto.CreateMatchRequest true "Match payload"
// @Success 201 {object} response.Envelope
// @Router /matches [post]
func (h *MatchHandler) Create(c *gin.Context) {
	var req dto.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	match, err := h.matches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, match)
}

// Update godoc
// @Summary Update match
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.UpdateMatchRequest true "Match payload"
// @Success 200 {object} response.Envelope
// @Router /matches/{id} [put]
func (h *MatchHandler) Update(c *gin.Context) {
	var req dto.UpdateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	match, err := h.matches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// SetStatus godoc
// @Summary Change match status
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.SetMatchStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/status [put]
func (h *MatchHandler) SetStatus(c *gin.Context) {
	var req dto.SetMatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	match, err := h.matches.SetStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}
