package dto

import "github.com/refdesk/refdesk-api/internal/models"

// CreateCompetitionRequest defines payload for creating a competition.
type CreateCompetitionRequest struct {
	Name      string                     `json:"name" validate:"required,max=150"`
	Season    string                     `json:"season" validate:"required,max=20"`
	Category  models.CompetitionCategory `json:"category" validate:"required,oneof=SENIOR JUNIOR YOUTH"`
	StartDate string                     `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string                     `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// UpdateCompetitionRequest defines payload for updating a competition.
type UpdateCompetitionRequest struct {
	Name      *string                     `json:"name,omitempty" validate:"omitempty,max=150"`
	Season    *string                     `json:"season,omitempty" validate:"omitempty,max=20"`
	Category  *models.CompetitionCategory `json:"category,omitempty" validate:"omitempty,oneof=SENIOR JUNIOR YOUTH"`
	StartDate *string                     `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string                     `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active    *bool                       `json:"active,omitempty"`
}
