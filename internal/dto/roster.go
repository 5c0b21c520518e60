package dto

import "github.com/refdesk/refdesk-api/internal/models"

// CandidateItem is one referee in a match candidate list. Availability
// and existing engagements are annotations for the assigning admin;
// filtering on them is the engine's job, not the roster's.
type CandidateItem struct {
	RefereeID  string                 `json:"refereeId"`
	FullName   string                 `json:"fullName"`
	License    models.LicenseCategory `json:"license"`
	City       string                 `json:"city"`
	Experience int                    `json:"experienceYears"`
	Available  bool                   `json:"available"`
	// UnavailableReason carries the referee's stated reason when
	// Available is false.
	UnavailableReason *string `json:"unavailableReason,omitempty"`
	// EngagedMatchIDs lists other matches the referee already officiates
	// on the same date.
	EngagedMatchIDs []string `json:"engagedMatchIds,omitempty"`
}
