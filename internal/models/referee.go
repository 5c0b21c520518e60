package models

import "time"

// LicenseCategory grades a referee's officiating license.
type LicenseCategory string

const (
	LicenseInternational LicenseCategory = "INTERNATIONAL"
	LicenseA             LicenseCategory = "A"
	LicenseB             LicenseCategory = "B"
	LicenseC             LicenseCategory = "C"
	LicenseRegional      LicenseCategory = "REGIONAL"
)

// RefereeStatus represents the account standing of a referee.
type RefereeStatus string

const (
	RefereeActive    RefereeStatus = "ACTIVE"
	RefereeInactive  RefereeStatus = "INACTIVE"
	RefereeSuspended RefereeStatus = "SUSPENDED"
)

// Referee represents a person qualified to officiate matches. The
// record is owned by user management; the delegation engine reads it.
type Referee struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	FullName   string          `db:"full_name" json:"full_name"`
	License    LicenseCategory `db:"license" json:"license"`
	City       string          `db:"city" json:"city"`
	Experience int             `db:"experience_years" json:"experience_years"`
	Status     RefereeStatus   `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the referee may receive assignments.
func (r *Referee) IsActive() bool {
	return r != nil && r.Status == RefereeActive
}

// RefereeFilter captures filtering options for listing referees.
type RefereeFilter struct {
	Search    string
	License   LicenseCategory
	City      string
	Status    *RefereeStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
