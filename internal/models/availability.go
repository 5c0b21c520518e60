package models

import "time"

// AvailabilityDateLayout is the canonical per-day key format.
const AvailabilityDateLayout = "2006-01-02"

// AvailabilityRecord stores a referee's stated availability for one
// date. At most one record exists per (referee_id, date); absence of a
// record means available. Records are overwritten, never deleted.
type AvailabilityRecord struct {
	ID        string    `db:"id" json:"id"`
	RefereeID string    `db:"referee_id" json:"referee_id"`
	Date      time.Time `db:"date" json:"date"`
	Available bool      `db:"available" json:"available"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
