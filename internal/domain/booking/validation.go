package booking

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Booking constraints.
const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 480
	MaxNotesLength     = 500

	// PastStartGrace tolerates clock skew between client and server.
	PastStartGrace = 5 * time.Minute
	// MaxAdvanceYears is how many calendar years ahead a slot may be reserved.
	MaxAdvanceYears = 1
)

// ValidationResult lists every rule a booking violates.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

func (r *ValidationResult) addError(msg string) {
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
}

// Validate checks the structural rules of b against the instant now. It never fails
// fast: the result carries one message per violated rule.
func Validate(b *Booking, now time.Time) ValidationResult {
	result := ValidationResult{IsValid: true}

	start, end := b.startDateTime, b.endDateTime

	switch {
	case start.IsZero():
		result.addError("Start date time is required.")
	case start.Before(now.Add(-PastStartGrace)):
		result.addError("Start date time cannot be in the past.")
	case start.After(now.AddDate(MaxAdvanceYears, 0, 0)):
		result.addError("Start date time cannot be more than 1 year in the future.")
	}

	switch {
	case end.IsZero():
		result.addError("End date time is required.")
	case !end.After(start):
		result.addError("End date time must be after start date time.")
	}

	duration := end.Sub(start)
	switch {
	case duration < MinDurationMinutes*time.Minute:
		result.addError("Booking duration must be at least 15 minutes.")
	case duration > MaxDurationMinutes*time.Minute:
		result.addError("Booking duration cannot exceed 8 hours.")
	}

	requiredIDs := []struct {
		id  uuid.UUID
		msg string
	}{
		{b.userID, "User ID is required."},
		{b.companyID, "Company ID is required."},
		{b.serviceOptionID, "Service option ID is required."},
		{b.vehicleID, "Vehicle ID is required."},
		{b.addressID, "Address ID is required."},
	}
	for _, r := range requiredIDs {
		if r.id == uuid.Nil {
			result.addError(r.msg)
		}
	}

	if strings.TrimSpace(b.notes) != "" && utf8.RuneCountInString(b.notes) > MaxNotesLength {
		result.addError("Notes cannot exceed 500 characters.")
	}

	return result
}
