package application

import (
	"context"

	bookingDomain "github.com/ghseeli/service-booking/internal/domain/booking"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/ghseeli/service-booking/pkg/events"
	"github.com/ghseeli/service-booking/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentStatus is the subset of payment states the booking reacts to.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const maxPaidFlagAttempts = 3

// PaymentLinkService keeps a booking's paid flag in step with its payment.
// It touches nothing but the flag.
type PaymentLinkService struct {
	repo    bookingDomain.BookingRepository
	clock   Clock
	events  eventEmitter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPaymentLinkService creates a new PaymentLinkService.
func NewPaymentLinkService(
	repo bookingDomain.BookingRepository,
	clock Clock,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PaymentLinkService {
	return &PaymentLinkService{
		repo:    repo,
		clock:   clock,
		events:  eventEmitter{publisher: publisher, logger: logger},
		metrics: m,
		logger:  logger,
	}
}

// OnPaymentStatusChanged sets the paid flag on completion and clears it on refund.
// Other statuses are ignored. A concurrent write to the booking is retried.
func (s *PaymentLinkService) OnPaymentStatusChanged(ctx context.Context, bookingID uuid.UUID, paymentID *uuid.UUID, status PaymentStatus) (err error) {
	var paid bool
	switch status {
	case PaymentStatusCompleted:
		paid = true
	case PaymentStatusRefunded:
		paid = false
	default:
		s.logger.Debug("ignoring payment status", zap.String("status", string(status)))
		return nil
	}

	defer func() { s.metrics.ObserveOperation("payment_link", err) }()

	for attempt := 1; ; attempt++ {
		err = s.applyPaidFlag(ctx, bookingID, paymentID, paid)
		if err == nil || !apperror.IsKind(err, apperror.KindConcurrentUpdate) || attempt == maxPaidFlagAttempts {
			return err
		}
		s.logger.Warn("paid flag update raced, retrying",
			zap.String("booking_id", bookingID.String()),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *PaymentLinkService) applyPaidFlag(ctx context.Context, bookingID uuid.UUID, paymentID *uuid.UUID, paid bool) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	ts := s.clock.Now()
	var changed bool
	if paid {
		changed = bk.MarkPaid(ts)
	} else {
		changed = bk.MarkUnpaid(ts)
	}
	if !changed {
		return nil
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	s.logger.Info("booking paid flag changed",
		zap.String("booking_id", bookingID.String()),
		zap.Bool("is_paid", paid),
	)

	eventType := events.BookingUnpaid
	if paid {
		eventType = events.BookingPaid
	}
	s.events.publish(ctx, events.TopicBookingEvents, eventType, bookingID.String(), events.BookingPaymentStatusEvent{
		BookingID:  bookingID,
		PaymentID:  paymentID,
		IsPaid:     paid,
		OccurredAt: ts,
	})
	return nil
}
