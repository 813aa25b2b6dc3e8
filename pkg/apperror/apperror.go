// Package apperror defines the typed business outcomes shared by the booking service.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error so callers can branch without string matching.
type Kind string

const (
	// KindValidation is a structural or business-rule violation of the input.
	KindValidation Kind = "validation_failed"
	// KindNotFound covers both a missing entity and one the caller does not own.
	KindNotFound Kind = "not_found"
	// KindInvalidState is an illegal status transition on an existing, owned entity.
	KindInvalidState Kind = "invalid_state_transition"
	// KindTimeSlotConflict means the interval overlaps a live booking of the company.
	KindTimeSlotConflict Kind = "time_slot_conflict"
	// KindConcurrentUpdate means the row changed between read and write.
	KindConcurrentUpdate Kind = "concurrent_update"
)

// Error is the single error type returned for business outcomes.
type Error struct {
	Kind    Kind
	Message string
	Errors  []string
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Errors, ", "))
}

// NewValidationError returns a validation failure carrying every violated rule.
func NewValidationError(message string, violations ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Errors: violations}
}

// NewNotFoundError returns the collapsed not-found/no-access outcome.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewInvalidStateError returns an illegal transition error.
func NewInvalidStateError(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// NewTimeSlotConflictError returns a conflicting time slot error.
func NewTimeSlotConflictError(message string) *Error {
	return &Error{Kind: KindTimeSlotConflict, Message: message}
}

// NewConcurrentUpdateError returns an optimistic locking failure.
func NewConcurrentUpdateError(message string) *Error {
	return &Error{Kind: KindConcurrentUpdate, Message: message}
}

// KindOf extracts the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
