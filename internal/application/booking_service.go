package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ghseeli/service-booking/internal/domain/address"
	bookingDomain "github.com/ghseeli/service-booking/internal/domain/booking"
	"github.com/ghseeli/service-booking/internal/domain/serviceoption"
	"github.com/ghseeli/service-booking/internal/domain/vehicle"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/ghseeli/service-booking/pkg/events"
	"github.com/ghseeli/service-booking/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
// The company is derived from the service option, never taken from the caller.
type CreateBookingRequest struct {
	ServiceOptionID uuid.UUID `json:"service_option_id" binding:"required"`
	VehicleID       uuid.UUID `json:"vehicle_id" binding:"required"`
	AddressID       uuid.UUID `json:"address_id" binding:"required"`
	StartDateTime   time.Time `json:"start_date_time" binding:"required"`
	Notes           string    `json:"notes"`
}

// UpdateBookingRequest reschedules a booking and replaces its notes.
type UpdateBookingRequest struct {
	StartDateTime time.Time `json:"start_date_time" binding:"required"`
	Notes         string    `json:"notes"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	CompanyID       uuid.UUID `json:"company_id"`
	ServiceOptionID uuid.UUID `json:"service_option_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	AddressID       uuid.UUID `json:"address_id"`
	StartDateTime   time.Time `json:"start_date_time"`
	EndDateTime     time.Time `json:"end_date_time"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	IsPaid          bool      `json:"is_paid"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookingDetailsDTO adds display data of the referenced entities.
type BookingDetailsDTO struct {
	BookingDTO
	ServiceOptionName string `json:"service_option_name,omitempty"`
	PriceCents        int64  `json:"price_cents"`
	VehicleInfo       string `json:"vehicle_info,omitempty"`
	AddressInfo       string `json:"address_info,omitempty"`
}

// BookingStatsDTO holds a company's booking counts.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo           bookingDomain.BookingRepository
	vehicles       vehicle.Repository
	addresses      address.Repository
	serviceOptions serviceoption.Repository
	tx             TxManager
	clock          Clock
	ids            IDGenerator
	events         eventEmitter
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// BookingServiceDeps lists the collaborators of BookingService.
type BookingServiceDeps struct {
	Bookings       bookingDomain.BookingRepository
	Vehicles       vehicle.Repository
	Addresses      address.Repository
	ServiceOptions serviceoption.Repository
	Tx             TxManager
	Clock          Clock
	IDs            IDGenerator
	Publisher      EventPublisher
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(deps BookingServiceDeps) *BookingService {
	return &BookingService{
		repo:           deps.Bookings,
		vehicles:       deps.Vehicles,
		addresses:      deps.Addresses,
		serviceOptions: deps.ServiceOptions,
		tx:             deps.Tx,
		clock:          deps.Clock,
		ids:            deps.IDs,
		events:         eventEmitter{publisher: deps.Publisher, logger: deps.Logger},
		metrics:        deps.Metrics,
		logger:         deps.Logger,
	}
}

// CreateBooking reserves a slot for userID with the company owning the requested service option.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (result *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation("create", err) }()

	log := s.logger.With(zap.String("user_id", userID.String()))

	v, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err := ownershipResult(err, v != nil && v.IsOwnedBy(userID), "Vehicle", req.VehicleID); err != nil {
		log.Warn("vehicle not found or not owned by user", zap.String("vehicle_id", req.VehicleID.String()))
		return nil, err
	}

	a, err := s.addresses.FindByID(ctx, req.AddressID)
	if err := ownershipResult(err, a != nil && a.IsOwnedBy(userID), "Address", req.AddressID); err != nil {
		log.Warn("address not found or not owned by user", zap.String("address_id", req.AddressID.String()))
		return nil, err
	}

	option, err := s.serviceOptions.FindByID(ctx, req.ServiceOptionID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			log.Warn("service option not found", zap.String("service_option_id", req.ServiceOptionID.String()))
			return nil, apperror.NewNotFoundError("Service option", req.ServiceOptionID.String())
		}
		return nil, fmt.Errorf("failed to load service option: %w", err)
	}

	companyID, ok := option.CompanyID()
	if !ok {
		return nil, apperror.NewValidationError("Service option must have a company")
	}

	ts := s.clock.Now()
	bk := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ID:              s.ids.NewID(),
		UserID:          userID,
		CompanyID:       companyID,
		ServiceOptionID: option.ID(),
		VehicleID:       v.ID(),
		AddressID:       a.ID(),
		StartDateTime:   req.StartDateTime,
		Duration:        option.Duration(),
		Notes:           req.Notes,
	}, ts)

	err = s.tx.WithinCompanyLock(ctx, companyID, func(ctx context.Context) error {
		conflict, err := s.repo.HasConflict(ctx, companyID, bk.Interval(), nil)
		if err != nil {
			return fmt.Errorf("failed to check time slot: %w", err)
		}
		if conflict {
			return apperror.NewTimeSlotConflictError("The selected time slot is not available. Please choose a different time.")
		}

		if vr := bookingDomain.Validate(bk, ts); !vr.IsValid {
			return apperror.NewValidationError("Booking validation failed", vr.Errors...)
		}

		if err := s.repo.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logRejection(log, "create booking rejected", err, zap.String("company_id", companyID.String()))
		return nil, err
	}

	log.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("company_id", companyID.String()),
		zap.Time("start", bk.StartDateTime()),
	)

	s.events.publish(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:       bk.ID(),
		UserID:          bk.UserID(),
		CompanyID:       bk.CompanyID(),
		ServiceOptionID: bk.ServiceOptionID(),
		VehicleID:       bk.VehicleID(),
		AddressID:       bk.AddressID(),
		StartDateTime:   bk.StartDateTime(),
		EndDateTime:     bk.EndDateTime(),
		OccurredAt:      ts,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// UpdateBooking moves a pending or confirmed booking owned by userID to a new start time.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID, userID uuid.UUID, req UpdateBookingRequest) (result *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation("update", err) }()

	log := s.logger.With(zap.String("booking_id", bookingID.String()), zap.String("user_id", userID.String()))

	bk, err := s.findOwnedByUser(ctx, bookingID, userID)
	if err != nil {
		s.logRejection(log, "update booking rejected", err)
		return nil, err
	}

	if !bk.Status().CanBeRescheduled() {
		err = apperror.NewInvalidStateError(fmt.Sprintf("cannot update booking with status %s", bk.Status()))
		s.logRejection(log, "update booking rejected", err)
		return nil, err
	}

	duration, err := s.serviceDuration(ctx, bk)
	if err != nil {
		return nil, err
	}

	ts := s.clock.Now()
	if err := bk.Reschedule(req.StartDateTime, duration, req.Notes, ts); err != nil {
		s.logRejection(log, "update booking rejected", err)
		return nil, err
	}

	err = s.tx.WithinCompanyLock(ctx, bk.CompanyID(), func(ctx context.Context) error {
		excludeID := bk.ID()
		conflict, err := s.repo.HasConflict(ctx, bk.CompanyID(), bk.Interval(), &excludeID)
		if err != nil {
			return fmt.Errorf("failed to check time slot: %w", err)
		}
		if conflict {
			return apperror.NewTimeSlotConflictError("The updated time slot is not available. Please choose a different time.")
		}

		if vr := bookingDomain.Validate(bk, ts); !vr.IsValid {
			return apperror.NewValidationError("Booking validation failed", vr.Errors...)
		}

		bk.IncrementVersion()
		return s.repo.Update(ctx, bk)
	})
	if err != nil {
		s.logRejection(log, "update booking rejected", err)
		return nil, err
	}

	log.Info("booking rescheduled", zap.Time("start", bk.StartDateTime()))

	s.events.publish(ctx, events.TopicBookingEvents, events.BookingUpdated, bk.ID().String(), events.BookingRescheduledEvent{
		BookingID:     bk.ID(),
		CompanyID:     bk.CompanyID(),
		StartDateTime: bk.StartDateTime(),
		EndDateTime:   bk.EndDateTime(),
		Notes:         bk.Notes(),
		OccurredAt:    ts,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// CancelBooking cancels a booking owned by userID that has not completed or been cancelled.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (result *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation("cancel", err) }()

	bk, err := s.findOwnedByUser(ctx, bookingID, userID)
	if err != nil {
		s.logRejection(s.logger, "cancel booking rejected", err, zap.String("booking_id", bookingID.String()))
		return nil, err
	}
	return s.transition(ctx, bk, userID, "cancel", events.BookingCancelled, bk.Cancel)
}

// ConfirmBooking accepts a pending booking on behalf of the company performing it.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, companyID uuid.UUID) (result *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation("confirm", err) }()

	bk, err := s.findOwnedByCompany(ctx, bookingID, companyID)
	if err != nil {
		s.logRejection(s.logger, "confirm booking rejected", err, zap.String("booking_id", bookingID.String()))
		return nil, err
	}
	return s.transition(ctx, bk, companyID, "confirm", events.BookingConfirmed, bk.Confirm)
}

// StartService marks a confirmed booking as in progress.
func (s *BookingService) StartService(ctx context.Context, bookingID, companyID uuid.UUID) (result *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation("start", err) }()

	bk, err := s.findOwnedByCompany(ctx, bookingID, companyID)
	if err != nil {
		s.logRejection(s.logger, "start service rejected", err, zap.String("booking_id", bookingID.String()))
		return nil, err
	}
	return s.transition(ctx, bk, companyID, "start", events.BookingStarted, bk.StartService)
}

// CompleteService marks an in-progress booking as completed.
func (s *BookingService) CompleteService(ctx context.Context, bookingID, companyID uuid.UUID) (result *BookingDTO, err error) {
	defer func() { s.metrics.ObserveOperation("complete", err) }()

	bk, err := s.findOwnedByCompany(ctx, bookingID, companyID)
	if err != nil {
		s.logRejection(s.logger, "complete service rejected", err, zap.String("booking_id", bookingID.String()))
		return nil, err
	}
	return s.transition(ctx, bk, companyID, "complete", events.BookingCompleted, bk.CompleteService)
}

// IsTimeSlotAvailable reports whether [start, end) is free for the company.
func (s *BookingService) IsTimeSlotAvailable(ctx context.Context, companyID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	if !end.After(start) {
		return false, apperror.NewValidationError("End time must be after start time")
	}

	conflict, err := s.repo.HasConflict(ctx, companyID, bookingDomain.TimeInterval{Start: start.UTC(), End: end.UTC()}, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check time slot: %w", err)
	}
	return !conflict, nil
}

// GetBooking returns a booking with its related details. Only the customer who
// made it or the company performing it may read it.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID, companyID uuid.UUID) (*BookingDetailsDTO, error) {
	details, err := s.repo.FindByIDWithDetails(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	bk := details.Booking
	if !bk.IsOwnedByUser(userID) && (companyID == uuid.Nil || !bk.IsOwnedByCompany(companyID)) {
		return nil, apperror.NewNotFoundError("Booking", bookingID.String())
	}

	return &BookingDetailsDTO{
		BookingDTO:        toBookingDTO(bk),
		ServiceOptionName: details.ServiceOptionName,
		PriceCents:        details.PriceCents,
		VehicleInfo:       details.VehicleInfo,
		AddressInfo:       details.AddressInfo,
	}, nil
}

// ListUserBookings returns every booking of userID, latest slot first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// ListUpcomingUserBookings returns bookings of userID that have not started yet.
func (s *BookingService) ListUpcomingUserBookings(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.repo.FindUpcomingByUserID(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// ListPastUserBookings returns bookings of userID whose slot has ended.
func (s *BookingService) ListPastUserBookings(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.repo.FindPastByUserID(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list past bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// ListCompanyBookings returns a company's bookings, optionally only those
// starting on the UTC calendar day of day.
func (s *BookingService) ListCompanyBookings(ctx context.Context, companyID uuid.UUID, day *time.Time) ([]BookingDTO, error) {
	filter := bookingDomain.CompanyFilter{CompanyID: companyID}
	if day != nil {
		d := now.New(day.UTC())
		from, to := d.BeginningOfDay(), d.EndOfDay()
		filter.From, filter.To = &from, &to
	}

	bookings, err := s.repo.FindByCompany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list company bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// CompanyBookingStats returns a company's booking counts by status.
func (s *BookingService) CompanyBookingStats(ctx context.Context, companyID uuid.UUID) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func (s *BookingService) transition(
	ctx context.Context,
	bk *bookingDomain.Booking,
	actorID uuid.UUID,
	operation, eventType string,
	apply func(time.Time) error,
) (*BookingDTO, error) {
	log := s.logger.With(zap.String("booking_id", bk.ID().String()), zap.String("operation", operation))

	ts := s.clock.Now()
	if err := apply(ts); err != nil {
		log.Warn("status transition rejected", zap.String("status", bk.Status().String()), zap.Error(err))
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		s.logRejection(log, "failed to persist status transition", err)
		return nil, err
	}

	log.Info("booking status changed", zap.String("status", bk.Status().String()))

	s.events.publish(ctx, events.TopicBookingEvents, eventType, bk.ID().String(), events.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		UserID:     bk.UserID(),
		CompanyID:  bk.CompanyID(),
		Status:     bk.Status().String(),
		ChangedBy:  actorID,
		OccurredAt: ts,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// findOwnedByUser collapses a missing booking and a foreign booking into one not-found error.
func (s *BookingService) findOwnedByUser(ctx context.Context, bookingID, userID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedByUser(userID) {
		return nil, apperror.NewNotFoundError("Booking", bookingID.String())
	}
	return bk, nil
}

func (s *BookingService) findOwnedByCompany(ctx context.Context, bookingID, companyID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedByCompany(companyID) {
		return nil, apperror.NewNotFoundError("Booking", bookingID.String())
	}
	return bk, nil
}

// serviceDuration returns the booked option's duration, or the current slot
// length when the option has since been removed from the catalog.
func (s *BookingService) serviceDuration(ctx context.Context, bk *bookingDomain.Booking) (time.Duration, error) {
	option, err := s.serviceOptions.FindByID(ctx, bk.ServiceOptionID())
	switch {
	case err == nil:
		return option.Duration(), nil
	case apperror.IsKind(err, apperror.KindNotFound):
		return bk.Interval().Duration(), nil
	default:
		return 0, fmt.Errorf("failed to load service option: %w", err)
	}
}

// logRejection logs business-rule rejections at Warn and everything else at Error.
func (s *BookingService) logRejection(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if apperror.KindOf(err) != "" {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, fields...)
}

// ownershipResult maps a lookup outcome to the collapsed not-found error.
func ownershipResult(lookupErr error, owned bool, entity string, id uuid.UUID) error {
	if lookupErr != nil && !apperror.IsKind(lookupErr, apperror.KindNotFound) {
		return fmt.Errorf("failed to load %s: %w", entity, lookupErr)
	}
	if lookupErr != nil || !owned {
		return apperror.NewNotFoundError(entity, id.String())
	}
	return nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		UserID:          bk.UserID(),
		CompanyID:       bk.CompanyID(),
		ServiceOptionID: bk.ServiceOptionID(),
		VehicleID:       bk.VehicleID(),
		AddressID:       bk.AddressID(),
		StartDateTime:   bk.StartDateTime(),
		EndDateTime:     bk.EndDateTime(),
		Status:          bk.Status().String(),
		Notes:           bk.Notes(),
		IsPaid:          bk.IsPaid(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
