package dto

import (
	"time"

	"github.com/refdesk/refdesk-api/internal/models"
)

// AssignSlotRequest binds a referee to a delegation slot.
type AssignSlotRequest struct {
	RefereeID string `json:"refereeId" validate:"required"`
	// Override forces the assignment although the referee is marked
	// unavailable for the match date. Recorded on the binding.
	Override bool `json:"override"`
	// ExpectedVersion enables the optimistic concurrency check; zero
	// means "whatever is current".
	ExpectedVersion int `json:"expectedVersion" validate:"gte=0"`
}

// RemoveSlotRequest clears a delegation slot.
type RemoveSlotRequest struct {
	ExpectedVersion int `json:"expectedVersion" validate:"gte=0"`
}

// ConfirmDelegationRequest finalises a fully accepted delegation.
type ConfirmDelegationRequest struct {
	ExpectedVersion int `json:"expectedVersion" validate:"gte=0"`
}

// RespondRequest carries a referee's accept/decline answer.
type RespondRequest struct {
	Action string               `json:"action" validate:"required,oneof=accept decline"`
	Reason models.DeclineReason `json:"reason,omitempty"`
	Note   string               `json:"note,omitempty" validate:"max=500"`
}

// SlotView renders one slot of the delegation, empty or bound.
type SlotView struct {
	Slot          models.Slot            `json:"slot"`
	RefereeID     string                 `json:"refereeId,omitempty"`
	RefereeName   string                 `json:"refereeName,omitempty"`
	License       models.LicenseCategory `json:"license,omitempty"`
	Response      models.ResponseStatus  `json:"response,omitempty"`
	DeclineReason *models.DeclineReason  `json:"declineReason,omitempty"`
	Overridden    bool                   `json:"overridden,omitempty"`
	AssignedAt    *time.Time             `json:"assignedAt,omitempty"`
	RespondedAt   *time.Time             `json:"respondedAt,omitempty"`
}

// DelegationView is the aggregate state returned by every engine
// operation.
type DelegationView struct {
	MatchID   string                  `json:"matchId"`
	Status    models.DelegationStatus `json:"status"`
	Version   int                     `json:"version"`
	Notes     *string                 `json:"notes,omitempty"`
	Slots     []SlotView              `json:"slots"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// IncompleteSlotDetail reports one unmet requirement blocking
// confirmation.
type IncompleteSlotDetail struct {
	Slot     models.Slot           `json:"slot"`
	Response models.ResponseStatus `json:"response,omitempty"`
	Reason   string                `json:"reason"`
}
