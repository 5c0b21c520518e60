package dto

// CreateVenueRequest defines payload for registering a venue.
type CreateVenueRequest struct {
	Name     string  `json:"name" validate:"required,max=150"`
	City     string  `json:"city" validate:"required,max=100"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=250"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}

// UpdateVenueRequest defines payload for updating a venue.
type UpdateVenueRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=150"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=250"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Active   *bool   `json:"active,omitempty"`
}
