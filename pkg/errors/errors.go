package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// Details carries structured context a client needs to retry
	// correctly, e.g. unmet slots or the current aggregate version.
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Delegation engine errors. Validation failures carry 400, state
// conflicts carry 409 so clients can distinguish retry-after-refresh
// from fix-the-request.
var (
	ErrMatchNotEditable     = New("MATCH_NOT_EDITABLE", http.StatusConflict, "match is not editable")
	ErrInvalidSlot          = New("INVALID_SLOT", http.StatusBadRequest, "invalid delegation slot")
	ErrRefereeInactive      = New("REFEREE_INACTIVE", http.StatusConflict, "referee is not active")
	ErrRefereeUnavailable   = New("REFEREE_UNAVAILABLE", http.StatusConflict, "referee is unavailable on the match date")
	ErrDuplicateAssignment  = New("DUPLICATE_ASSIGNMENT", http.StatusConflict, "referee already occupies another slot of this delegation")
	ErrIncompleteDelegation = New("INCOMPLETE_DELEGATION", http.StatusConflict, "delegation has unmet required slots")
	ErrResponseFinalized    = New("RESPONSE_FINALIZED", http.StatusConflict, "assignment response already finalized")
	ErrStaleAssignment      = New("STALE_ASSIGNMENT", http.StatusConflict, "assignment changed concurrently, refresh and retry")
	ErrInvalidRange         = New("INVALID_RANGE", http.StatusBadRequest, "end date precedes start date")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of the error carrying structured details.
func WithDetails(err *Error, details interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
