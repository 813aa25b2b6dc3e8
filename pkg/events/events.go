// Package events holds the topic names, event types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types.
const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingConfirmed = "booking.confirmed"
	BookingStarted   = "booking.started"
	BookingCompleted = "booking.completed"
	BookingPaid      = "booking.paid"
	BookingUnpaid    = "booking.unpaid"
)

// Payment event types.
const (
	PaymentCompleted = "payment.completed"
	PaymentRefunded  = "payment.refunded"
)

// BookingCreatedEvent is published when a customer reserves a slot.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	UserID          uuid.UUID `json:"user_id"`
	CompanyID       uuid.UUID `json:"company_id"`
	ServiceOptionID uuid.UUID `json:"service_option_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	AddressID       uuid.UUID `json:"address_id"`
	StartDateTime   time.Time `json:"start_date_time"`
	EndDateTime     time.Time `json:"end_date_time"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingRescheduledEvent is published when a customer moves a booking.
type BookingRescheduledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	CompanyID     uuid.UUID `json:"company_id"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	Notes         string    `json:"notes,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent covers cancelled, confirmed, started and completed.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	CompanyID  uuid.UUID `json:"company_id"`
	Status     string    `json:"status"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingPaymentStatusEvent is published when the paid flag flips.
type BookingPaymentStatusEvent struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	PaymentID  *uuid.UUID `json:"payment_id,omitempty"`
	IsPaid     bool       `json:"is_paid"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// PaymentCompletedEvent is consumed from the payment service.
type PaymentCompletedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentRefundedEvent is consumed from the payment service.
type PaymentRefundedEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
