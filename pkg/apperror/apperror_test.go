package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind_UnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("create booking: %w", NewTimeSlotConflictError("slot taken"))

	assert.True(t, IsKind(err, KindTimeSlotConflict))
	assert.False(t, IsKind(err, KindValidation))
	assert.Equal(t, KindTimeSlotConflict, KindOf(err))
}

func TestIsKind_PlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("boom"), KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}

func TestValidationError_MessageListsEveryViolation(t *testing.T) {
	err := NewValidationError("booking validation failed", "a", "b")

	assert.Equal(t, "booking validation failed: a, b", err.Error())
	assert.Equal(t, []string{"a", "b"}, err.Errors)
}

func TestNotFoundError_Message(t *testing.T) {
	assert.Equal(t, "Booking 42 not found", NewNotFoundError("Booking", "42").Error())
}
