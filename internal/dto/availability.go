package dto

// SetAvailabilityRequest upserts a single-day availability record.
type SetAvailabilityRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty" validate:"max=250"`
}

// SetAvailabilityRangeRequest applies one value to every date in the
// inclusive range.
type SetAvailabilityRangeRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty" validate:"max=250"`
}

// AvailabilityItem is one day in an availability listing.
type AvailabilityItem struct {
	Date      string  `json:"date"`
	Available bool    `json:"available"`
	Reason    *string `json:"reason,omitempty"`
}
