package models

import "time"

// NotificationType categorises delegation events pushed to users.
type NotificationType string

const (
	NotificationAssignmentOffered  NotificationType = "ASSIGNMENT_OFFERED"
	NotificationAssignmentRemoved  NotificationType = "ASSIGNMENT_REMOVED"
	NotificationAssignmentDeclined NotificationType = "ASSIGNMENT_DECLINED"
	NotificationDelegationConfirmed NotificationType = "DELEGATION_CONFIRMED"
)

// Notification is an in-app message delivered to a user.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	MatchID   *string          `db:"match_id" json:"match_id,omitempty"`
	Message   string           `db:"message" json:"message"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	UserID   string
	Unread   *bool
	Page     int
	PageSize int
}
