package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ghseeli/service-booking/internal/domain/address"
	bookingDomain "github.com/ghseeli/service-booking/internal/domain/booking"
	"github.com/ghseeli/service-booking/internal/domain/serviceoption"
	"github.com/ghseeli/service-booking/internal/domain/vehicle"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/ghseeli/service-booking/pkg/kafka"
	"github.com/google/uuid"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type sequenceIDs struct{ next []uuid.UUID }

func (g *sequenceIDs) NewID() uuid.UUID {
	if len(g.next) == 0 {
		return uuid.New()
	}
	id := g.next[0]
	g.next = g.next[1:]
	return id
}

// passthroughTx serializes callers the way the advisory lock does.
type passthroughTx struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (t *passthroughTx) WithinCompanyLock(ctx context.Context, companyID uuid.UUID, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, companyID)
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memoryBookingRepo stores snapshots so callers cannot mutate persisted state.
type memoryBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*bookingDomain.Booking
	updateErr error
	// staleUpdates makes the next n updates fail as if another writer won.
	staleUpdates int
}

func newMemoryBookingRepo() *memoryBookingRepo {
	return &memoryBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func snapshot(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.UserID(), b.CompanyID(), b.ServiceOptionID(), b.VehicleID(), b.AddressID(),
		b.StartDateTime(), b.EndDateTime(), b.Status(), b.Notes(), b.IsPaid(), b.Version(),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *memoryBookingRepo) put(b *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = snapshot(b)
}

func (r *memoryBookingRepo) get(id uuid.UUID) *bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		return snapshot(b)
	}
	return nil
}

func (r *memoryBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	if b := r.get(id); b != nil {
		return b, nil
	}
	return nil, apperror.NewNotFoundError("Booking", id.String())
}

func (r *memoryBookingRepo) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*bookingDomain.Details, error) {
	b, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &bookingDomain.Details{Booking: b, ServiceOptionName: "Exterior wash", PriceCents: 2500}, nil
}

func (r *memoryBookingRepo) filter(keep func(*bookingDomain.Booking) bool, less func(a, b *bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, snapshot(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b *bookingDomain.Booking) bool { return a.StartDateTime().After(b.StartDateTime()) }

func (r *memoryBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.UserID() == userID }, newestFirst), nil
}

func (r *memoryBookingRepo) FindUpcomingByUserID(_ context.Context, userID uuid.UUID, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.filter(
		func(b *bookingDomain.Booking) bool { return b.UserID() == userID && b.StartDateTime().After(now) },
		func(a, b *bookingDomain.Booking) bool { return a.StartDateTime().Before(b.StartDateTime()) },
	), nil
}

func (r *memoryBookingRepo) FindPastByUserID(_ context.Context, userID uuid.UUID, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.UserID() == userID && b.EndDateTime().Before(now) }, newestFirst), nil
}

func (r *memoryBookingRepo) FindByCompany(_ context.Context, f bookingDomain.CompanyFilter) ([]*bookingDomain.Booking, error) {
	return r.filter(func(b *bookingDomain.Booking) bool {
		if b.CompanyID() != f.CompanyID {
			return false
		}
		if f.From != nil && b.StartDateTime().Before(*f.From) {
			return false
		}
		if f.To != nil && b.StartDateTime().After(*f.To) {
			return false
		}
		return true
	}, newestFirst), nil
}

func (r *memoryBookingRepo) CountByStatus(_ context.Context, companyID uuid.UUID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		if b.CompanyID() == companyID {
			counts[b.Status().String()]++
		}
	}
	return counts, nil
}

func (r *memoryBookingRepo) HasConflict(_ context.Context, companyID uuid.UUID, interval bookingDomain.TimeInterval, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CompanyID() != companyID || !b.Status().BlocksTimeSlot() {
			continue
		}
		if excludeID != nil && b.ID() == *excludeID {
			continue
		}
		if b.Interval().Overlaps(interval) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.put(b)
	return nil
}

func (r *memoryBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.bookings[b.ID()]
	if !ok {
		return apperror.NewNotFoundError("Booking", b.ID().String())
	}
	if r.staleUpdates > 0 {
		r.staleUpdates--
		return apperror.NewConcurrentUpdateError("booking was modified by another transaction")
	}
	if stored.Version() != b.Version()-1 {
		return apperror.NewConcurrentUpdateError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = snapshot(b)
	return nil
}

type memoryVehicles map[uuid.UUID]*vehicle.Vehicle

func (m memoryVehicles) FindByID(_ context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	if v, ok := m[id]; ok {
		return v, nil
	}
	return nil, apperror.NewNotFoundError("Vehicle", id.String())
}

type memoryAddresses map[uuid.UUID]*address.Address

func (m memoryAddresses) FindByID(_ context.Context, id uuid.UUID) (*address.Address, error) {
	if a, ok := m[id]; ok {
		return a, nil
	}
	return nil, apperror.NewNotFoundError("Address", id.String())
}

type memoryServiceOptions map[uuid.UUID]*serviceoption.ServiceOption

// failingServiceOptions reports a storage failure on every lookup.
type failingServiceOptions struct{ err error }

func (f failingServiceOptions) FindByID(context.Context, uuid.UUID) (*serviceoption.ServiceOption, error) {
	return nil, f.err
}

func (m memoryServiceOptions) FindByID(_ context.Context, id uuid.UUID) (*serviceoption.ServiceOption, error) {
	if o, ok := m[id]; ok {
		return o, nil
	}
	return nil, apperror.NewNotFoundError("ServiceOption", id.String())
}
