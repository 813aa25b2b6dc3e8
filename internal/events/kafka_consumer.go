package events

import (
	"context"

	"github.com/ghseeli/service-booking/internal/application"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/ghseeli/service-booking/pkg/events"
	"github.com/ghseeli/service-booking/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentStatusHandler is satisfied by *application.PaymentLinkService.
type PaymentStatusHandler interface {
	OnPaymentStatusChanged(ctx context.Context, bookingID uuid.UUID, paymentID *uuid.UUID, status application.PaymentStatus) error
}

// PaymentEventConsumer listens to payment events and keeps the booking's paid flag current.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	payments PaymentStatusHandler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	payments PaymentStatusHandler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		payments: payments,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentCompleted:
		var evt events.PaymentCompletedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentCompletedEvent data", zap.Error(err))
			return nil
		}
		return c.apply(ctx, evt.BookingID, evt.PaymentID, application.PaymentStatusCompleted)

	case events.PaymentRefunded:
		var evt events.PaymentRefundedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PaymentRefundedEvent data", zap.Error(err))
			return nil
		}
		return c.apply(ctx, evt.BookingID, evt.PaymentID, application.PaymentStatusRefunded)

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) apply(ctx context.Context, bookingID, paymentID uuid.UUID, status application.PaymentStatus) error {
	log := c.logger.With(
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.String("payment_status", string(status)),
	)

	err := c.payments.OnPaymentStatusChanged(ctx, bookingID, &paymentID, status)
	switch {
	case err == nil:
		log.Info("payment status applied to booking")
		return nil
	case apperror.IsKind(err, apperror.KindNotFound):
		// A payment for a booking this service never stored cannot succeed on retry.
		log.Warn("payment event references unknown booking")
		return nil
	default:
		log.Error("failed to apply payment status to booking", zap.Error(err))
		return err
	}
}
