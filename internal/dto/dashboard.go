package dto

// DashboardSummary aggregates the figures shown on the admin landing
// page.
type DashboardSummary struct {
	UpcomingMatches    int     `json:"upcomingMatches"`
	OpenSlots          int     `json:"openSlots"`
	PendingResponses   int     `json:"pendingResponses"`
	ConfirmedDelegations int   `json:"confirmedDelegations"`
	ActiveReferees     int     `json:"activeReferees"`
	DeclineRate        float64 `json:"declineRate"`
}
