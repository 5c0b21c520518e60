package models

import "time"

// Venue represents a sports hall where matches are played.
type Venue struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	City      string    `db:"city" json:"city"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Capacity  *int      `db:"capacity" json:"capacity,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VenueFilter defines filters supported by list endpoints.
type VenueFilter struct {
	Search    string
	City      string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
