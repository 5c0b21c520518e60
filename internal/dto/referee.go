package dto

import "github.com/refdesk/refdesk-api/internal/models"

// CreateRefereeRequest defines payload for registering a referee.
type CreateRefereeRequest struct {
	UserID     string                 `json:"userId" validate:"required"`
	FullName   string                 `json:"fullName" validate:"required,max=150"`
	License    models.LicenseCategory `json:"license" validate:"required,oneof=INTERNATIONAL A B C REGIONAL"`
	City       string                 `json:"city" validate:"required,max=100"`
	Experience int                    `json:"experienceYears" validate:"gte=0,lte=60"`
}

// UpdateRefereeRequest defines payload for updating a referee profile.
type UpdateRefereeRequest struct {
	FullName   *string                 `json:"fullName,omitempty" validate:"omitempty,max=150"`
	License    *models.LicenseCategory `json:"license,omitempty" validate:"omitempty,oneof=INTERNATIONAL A B C REGIONAL"`
	City       *string                 `json:"city,omitempty" validate:"omitempty,max=100"`
	Experience *int                    `json:"experienceYears,omitempty" validate:"omitempty,gte=0,lte=60"`
}

// SetRefereeStatusRequest changes a referee's account standing.
type SetRefereeStatusRequest struct {
	Status models.RefereeStatus `json:"status" validate:"required,oneof=ACTIVE INACTIVE SUSPENDED"`
}
