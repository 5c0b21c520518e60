package models

import "time"

// MatchStatus tracks the lifecycle of a scheduled match.
type MatchStatus string

const (
	MatchScheduled  MatchStatus = "SCHEDULED"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchCompleted  MatchStatus = "COMPLETED"
	MatchPostponed  MatchStatus = "POSTPONED"
	MatchCancelled  MatchStatus = "CANCELLED"
)

// Match identifies one scheduled game. Delegations reference matches
// but never own them.
type Match struct {
	ID            string      `db:"id" json:"id"`
	CompetitionID string      `db:"competition_id" json:"competition_id"`
	HomeTeamID    string      `db:"home_team_id" json:"home_team_id"`
	AwayTeamID    string      `db:"away_team_id" json:"away_team_id"`
	VenueID       string      `db:"venue_id" json:"venue_id"`
	ScheduledAt   time.Time   `db:"scheduled_at" json:"scheduled_at"`
	Status        MatchStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Editable reports whether the delegation of this match may still change.
func (m *Match) Editable() bool {
	if m == nil {
		return false
	}
	return m.Status != MatchCompleted && m.Status != MatchCancelled
}

// MatchDetail enriches a match with descriptive names for list views.
type MatchDetail struct {
	Match
	CompetitionName string `db:"competition_name" json:"competition_name"`
	HomeTeamName    string `db:"home_team_name" json:"home_team_name"`
	AwayTeamName    string `db:"away_team_name" json:"away_team_name"`
	VenueName       string `db:"venue_name" json:"venue_name"`
	VenueCity       string `db:"venue_city" json:"venue_city"`
}

// MatchFilter defines filters supported by list endpoints.
type MatchFilter struct {
	CompetitionID string
	TeamID        string
	VenueID       string
	Status        *MatchStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// ValidMatchStatusTransition reports whether a status change is allowed.
func ValidMatchStatusTransition(from, to MatchStatus) bool {
	switch from {
	case MatchScheduled:
		return to == MatchInProgress || to == MatchCompleted || to == MatchPostponed || to == MatchCancelled
	case MatchInProgress:
		return to == MatchCompleted
	case MatchPostponed:
		return to == MatchScheduled || to == MatchCancelled
	default:
		return false
	}
}
