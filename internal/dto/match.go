package dto

import "github.com/refdesk/refdesk-api/internal/models"

// CreateMatchRequest defines payload for scheduling a match.
type CreateMatchRequest struct {
	CompetitionID string `json:"competitionId" validate:"required"`
	HomeTeamID    string `json:"homeTeamId" validate:"required"`
	AwayTeamID    string `json:"awayTeamId" validate:"required,nefield=HomeTeamID"`
	VenueID       string `json:"venueId" validate:"required"`
	ScheduledAt   string `json:"scheduledAt" validate:"required"`
}

// UpdateMatchRequest defines payload for rescheduling a match.
type UpdateMatchRequest struct {
	VenueID     *string `json:"venueId,omitempty"`
	ScheduledAt *string `json:"scheduledAt,omitempty"`
}

// SetMatchStatusRequest drives the match lifecycle.
type SetMatchStatusRequest struct {
	Status models.MatchStatus `json:"status" validate:"required,oneof=SCHEDULED IN_PROGRESS COMPLETED POSTPONED CANCELLED"`
}
