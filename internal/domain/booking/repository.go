package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Details is a booking together with display data of the entities it references.
type Details struct {
	Booking           *Booking
	ServiceOptionName string
	PriceCents        int64
	VehicleInfo       string
	AddressInfo       string
}

// CompanyFilter narrows a company's booking list. Nil bounds are open.
type CompanyFilter struct {
	CompanyID uuid.UUID
	From      *time.Time
	To        *time.Time
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDWithDetails retrieves a booking joined with its service option, vehicle and address.
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*Details, error)

	// FindByUserID retrieves a user's bookings, newest slot first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Booking, error)

	// FindUpcomingByUserID retrieves a user's bookings starting after now, soonest first.
	FindUpcomingByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*Booking, error)

	// FindPastByUserID retrieves a user's bookings that ended before now, newest first.
	FindPastByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*Booking, error)

	// FindByCompany retrieves a company's bookings, newest slot first.
	FindByCompany(ctx context.Context, filter CompanyFilter) ([]*Booking, error)

	// CountByStatus returns a company's booking counts grouped by status.
	CountByStatus(ctx context.Context, companyID uuid.UUID) (map[string]int64, error)

	// HasConflict reports whether a slot-blocking booking of companyID overlaps interval,
	// ignoring excludeID when it is non-nil.
	HasConflict(ctx context.Context, companyID uuid.UUID, interval TimeInterval, excludeID *uuid.UUID) (bool, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
