package dto

import "github.com/refdesk/refdesk-api/internal/models"

// CreateUserRequest defines payload for creating a user account.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"fullName" validate:"required,max=150"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN DELEGATE REFEREE"`
}

// UpdateUserRequest defines payload for updating a user account.
type UpdateUserRequest struct {
	Email    *string          `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string          `json:"fullName,omitempty" validate:"omitempty,max=150"`
	Role     *models.UserRole `json:"role,omitempty" validate:"omitempty,oneof=SUPERADMIN ADMIN DELEGATE REFEREE"`
	Active   *bool            `json:"active,omitempty"`
}
