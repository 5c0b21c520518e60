package models

import (
	"strings"
	"time"
)

// Slot is one of the fixed officiating roles filled for a match.
type Slot string

const (
	SlotMain       Slot = "MAIN"
	SlotAssistant1 Slot = "ASSISTANT_1"
	SlotAssistant2 Slot = "ASSISTANT_2"
	SlotDelegate   Slot = "DELEGATE"
)

// AllSlots lists every slot of a delegation in sheet order.
var AllSlots = []Slot{SlotMain, SlotAssistant1, SlotAssistant2, SlotDelegate}

// RequiredSlots are the slots that must be bound and accepted before a
// delegation can be confirmed. The delegate slot is optional.
var RequiredSlots = []Slot{SlotMain, SlotAssistant1, SlotAssistant2}

// ParseSlot normalises external slot input. URL parameters arrive in
// kebab or lower case.
func ParseSlot(raw string) (Slot, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_"))
	switch Slot(normalized) {
	case SlotMain, SlotAssistant1, SlotAssistant2, SlotDelegate:
		return Slot(normalized), true
	}
	return "", false
}

// DelegationStatus is the aggregate lifecycle of a match delegation.
type DelegationStatus string

const (
	DelegationEmpty             DelegationStatus = "EMPTY"
	DelegationPartiallyAssigned DelegationStatus = "PARTIALLY_ASSIGNED"
	DelegationFullyAssigned     DelegationStatus = "FULLY_ASSIGNED"
	DelegationConfirmed         DelegationStatus = "CONFIRMED"
)

// ResponseStatus is the referee's answer to being placed in a slot.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "PENDING"
	ResponseAccepted ResponseStatus = "ACCEPTED"
	ResponseDeclined ResponseStatus = "DECLINED"
)

// DeclineReason is the closed set of reasons a referee may decline with.
type DeclineReason string

const (
	DeclineScheduleConflict DeclineReason = "SCHEDULE_CONFLICT"
	DeclineHealth           DeclineReason = "HEALTH"
	DeclinePersonal         DeclineReason = "PERSONAL"
	DeclineTravel           DeclineReason = "TRAVEL"
	DeclineOther            DeclineReason = "OTHER"
)

// ValidDeclineReason reports whether the reason belongs to the closed set.
func ValidDeclineReason(r DeclineReason) bool {
	switch r {
	case DeclineScheduleConflict, DeclineHealth, DeclinePersonal, DeclineTravel, DeclineOther:
		return true
	}
	return false
}

// Delegation is the aggregate of slot bindings for one match. Version
// increments on every mutation and backs the optimistic concurrency
// check of the engine.
type Delegation struct {
	ID        string           `db:"id" json:"id"`
	MatchID   string           `db:"match_id" json:"match_id"`
	Status    DelegationStatus `db:"status" json:"status"`
	Notes     *string          `db:"notes" json:"notes,omitempty"`
	Version   int              `db:"version" json:"version"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// SlotBinding binds one referee to one slot of a delegation together
// with the referee's assignment response. A DECLINED binding keeps the
// response on record but leaves the slot logically free.
type SlotBinding struct {
	ID            string         `db:"id" json:"id"`
	DelegationID  string         `db:"delegation_id" json:"delegation_id"`
	Slot          Slot           `db:"slot" json:"slot"`
	RefereeID     string         `db:"referee_id" json:"referee_id"`
	Response      ResponseStatus `db:"response" json:"response"`
	DeclineReason *DeclineReason `db:"decline_reason" json:"decline_reason,omitempty"`
	ResponseNote  *string        `db:"response_note" json:"response_note,omitempty"`
	// Overridden marks that the assignment was forced although the
	// referee declared themselves unavailable for the match date.
	Overridden  bool       `db:"overridden" json:"overridden"`
	AssignedAt  time.Time  `db:"assigned_at" json:"assigned_at"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`
}

// Occupied reports whether the binding blocks its slot. Declined
// bindings do not; the slot reverted to unassigned.
func (b *SlotBinding) Occupied() bool {
	return b != nil && b.Response != ResponseDeclined
}

// SlotBindingDetail enriches a binding with referee fields for views.
type SlotBindingDetail struct {
	SlotBinding
	RefereeName    string          `db:"referee_name" json:"referee_name"`
	RefereeLicense LicenseCategory `db:"referee_license" json:"referee_license"`
	RefereeCity    string          `db:"referee_city" json:"referee_city"`
}

// DeriveDelegationStatus recomputes the aggregate status from the
// currently occupied bindings. Confirmation never derives from
// bindings alone; it is granted by ConfirmAll and kept only while all
// required slots stay accepted.
func DeriveDelegationStatus(current DelegationStatus, bindings []SlotBinding) DelegationStatus {
	occupied := make(map[Slot]SlotBinding, len(bindings))
	for _, b := range bindings {
		if b.Occupied() {
			occupied[b.Slot] = b
		}
	}

	required := 0
	allAccepted := true
	for _, slot := range RequiredSlots {
		b, ok := occupied[slot]
		if !ok {
			allAccepted = false
			continue
		}
		required++
		if b.Response != ResponseAccepted {
			allAccepted = false
		}
	}

	switch {
	case len(occupied) == 0:
		return DelegationEmpty
	case required < len(RequiredSlots):
		return DelegationPartiallyAssigned
	case current == DelegationConfirmed && allAccepted:
		return DelegationConfirmed
	default:
		return DelegationFullyAssigned
	}
}
