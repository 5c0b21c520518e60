package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/refdesk/refdesk-api/internal/service"
	"github.com/refdesk/refdesk-api/pkg/response"
)

// RosterHandler exposes the delegation candidate roster.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// Candidates godoc
// @Summary List delegation candidates
// @Description Lists active referees annotated with availability and same-day engagements for a match
// @Tags Roster
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /matches/{id}/candidates [get]
func (h *RosterHandler) Candidates(c *gin.Context) {
	candidates, err := h.roster.ListCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}
