package booking

import (
	"fmt"
	"time"

	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/google/uuid"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id              uuid.UUID
	userID          uuid.UUID
	companyID       uuid.UUID
	serviceOptionID uuid.UUID
	vehicleID       uuid.UUID
	addressID       uuid.UUID

	startDateTime time.Time
	endDateTime   time.Time

	status BookingStatus
	notes  string
	isPaid bool

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams carries the inputs of NewBooking.
type NewBookingParams struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	CompanyID       uuid.UUID
	ServiceOptionID uuid.UUID
	VehicleID       uuid.UUID
	AddressID       uuid.UUID
	StartDateTime   time.Time
	Duration        time.Duration
	Notes           string
}

// NewBooking creates a pending, unpaid booking whose end is start + duration.
// Structural validation is left to Validate so every violation is reported at once.
func NewBooking(p NewBookingParams, now time.Time) *Booking {
	start := p.StartDateTime.UTC()
	return &Booking{
		id:              p.ID,
		userID:          p.UserID,
		companyID:       p.CompanyID,
		serviceOptionID: p.ServiceOptionID,
		vehicleID:       p.VehicleID,
		addressID:       p.AddressID,
		startDateTime:   start,
		endDateTime:     start.Add(p.Duration),
		status:          StatusPending,
		notes:           p.Notes,
		isPaid:          false,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, userID, companyID, serviceOptionID, vehicleID, addressID uuid.UUID,
	startDateTime, endDateTime time.Time,
	status BookingStatus,
	notes string,
	isPaid bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		userID:          userID,
		companyID:       companyID,
		serviceOptionID: serviceOptionID,
		vehicleID:       vehicleID,
		addressID:       addressID,
		startDateTime:   startDateTime.UTC(),
		endDateTime:     endDateTime.UTC(),
		status:          status,
		notes:           notes,
		isPaid:          isPaid,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// UserID returns the customer who made the booking.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// CompanyID returns the company performing the service.
func (b *Booking) CompanyID() uuid.UUID { return b.companyID }

// ServiceOptionID returns the booked service option.
func (b *Booking) ServiceOptionID() uuid.UUID { return b.serviceOptionID }

// VehicleID returns the vehicle to be washed.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// AddressID returns the address the service is performed at.
func (b *Booking) AddressID() uuid.UUID { return b.addressID }

// StartDateTime returns the UTC start of the reserved slot.
func (b *Booking) StartDateTime() time.Time { return b.startDateTime }

// EndDateTime returns the UTC end of the reserved slot.
func (b *Booking) EndDateTime() time.Time { return b.endDateTime }

// Interval returns the reserved slot as a half-open interval.
func (b *Booking) Interval() TimeInterval {
	return TimeInterval{Start: b.startDateTime, End: b.endDateTime}
}

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Notes returns the customer's notes.
func (b *Booking) Notes() string { return b.notes }

// IsPaid reports whether the linked payment has completed.
func (b *Booking) IsPaid() bool { return b.isPaid }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Ownership ---

// IsOwnedByUser reports whether userID made the booking.
func (b *Booking) IsOwnedByUser(userID uuid.UUID) bool {
	return b.userID == userID
}

// IsOwnedByCompany reports whether companyID performs the booking.
func (b *Booking) IsOwnedByCompany(companyID uuid.UUID) bool {
	return b.companyID == companyID
}

// --- Behavior ---

// Reschedule moves the slot to start (keeping duration) and replaces the notes.
func (b *Booking) Reschedule(start time.Time, duration time.Duration, notes string, now time.Time) error {
	if !b.status.CanBeRescheduled() {
		return apperror.NewInvalidStateError(fmt.Sprintf("cannot update booking with status %s", b.status))
	}
	b.startDateTime = start.UTC()
	b.endDateTime = b.startDateTime.Add(duration)
	b.notes = notes
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled unless it is already completed or cancelled.
func (b *Booking) Cancel(now time.Time) error {
	if !b.status.CanBeCancelled() {
		return apperror.NewInvalidStateError(fmt.Sprintf("cannot cancel booking with status %s", b.status))
	}
	b.status = StatusCancelled
	b.updatedAt = now
	return nil
}

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm(now time.Time) error {
	if b.status != StatusPending {
		return apperror.NewInvalidStateError("only pending bookings can be confirmed")
	}
	b.status = StatusConfirmed
	b.updatedAt = now
	return nil
}

// StartService transitions the booking from confirmed to in_progress.
func (b *Booking) StartService(now time.Time) error {
	if b.status != StatusConfirmed {
		return apperror.NewInvalidStateError("only confirmed bookings can be started")
	}
	b.status = StatusInProgress
	b.updatedAt = now
	return nil
}

// CompleteService transitions the booking from in_progress to completed.
func (b *Booking) CompleteService(now time.Time) error {
	if b.status != StatusInProgress {
		return apperror.NewInvalidStateError("only in-progress bookings can be completed")
	}
	b.status = StatusCompleted
	b.updatedAt = now
	return nil
}

// MarkPaid sets the paid flag. It reports false when the flag was already set.
func (b *Booking) MarkPaid(now time.Time) bool {
	if b.isPaid {
		return false
	}
	b.isPaid = true
	b.updatedAt = now
	return true
}

// MarkUnpaid clears the paid flag after a refund. It reports false when already clear.
func (b *Booking) MarkUnpaid(now time.Time) bool {
	if !b.isPaid {
		return false
	}
	b.isPaid = false
	b.updatedAt = now
	return true
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
