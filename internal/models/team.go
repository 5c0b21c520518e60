package models

import "time"

// Team represents a club side competing in a competition.
type Team struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ShortName     *string   `db:"short_name" json:"short_name,omitempty"`
	City          string    `db:"city" json:"city"`
	CompetitionID *string   `db:"competition_id" json:"competition_id,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TeamFilter defines filters supported by list endpoints.
type TeamFilter struct {
	Search        string
	City          string
	CompetitionID string
	Active        *bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
