package models

import "time"

// CompetitionCategory distinguishes competition levels.
type CompetitionCategory string

const (
	CategorySenior CompetitionCategory = "SENIOR"
	CategoryJunior CompetitionCategory = "JUNIOR"
	CategoryYouth  CompetitionCategory = "YOUTH"
)

// Competition models a league or cup within one season.
type Competition struct {
	ID        string              `db:"id" json:"id"`
	Name      string              `db:"name" json:"name"`
	Season    string              `db:"season" json:"season"`
	Category  CompetitionCategory `db:"category" json:"category"`
	StartDate time.Time           `db:"start_date" json:"start_date"`
	EndDate   time.Time           `db:"end_date" json:"end_date"`
	Active    bool                `db:"active" json:"active"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

// CompetitionFilter defines filters supported by list endpoints.
type CompetitionFilter struct {
	Season    string
	Category  CompetitionCategory
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
