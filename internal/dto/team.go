package dto

// CreateTeamRequest defines payload for registering a team.
type CreateTeamRequest struct {
	Name          string  `json:"name" validate:"required,max=150"`
	ShortName     *string `json:"shortName,omitempty" validate:"omitempty,max=20"`
	City          string  `json:"city" validate:"required,max=100"`
	CompetitionID *string `json:"competitionId,omitempty"`
}

// UpdateTeamRequest defines payload for updating a team.
type UpdateTeamRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=150"`
	ShortName     *string `json:"shortName,omitempty" validate:"omitempty,max=20"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	CompetitionID *string `json:"competitionId,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}
