package application

import (
	"context"
	"time"

	"github.com/ghseeli/service-booking/pkg/kafka"
	"github.com/google/uuid"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator mints identifiers for new aggregates.
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDGenerator mints random v4 UUIDs.
type UUIDGenerator struct{}

// NewID returns a random UUID.
func (UUIDGenerator) NewID() uuid.UUID { return uuid.New() }

// TxManager runs fn in one transaction that holds the company's booking lock.
// Repositories called with the ctx passed to fn join that transaction.
type TxManager interface {
	WithinCompanyLock(ctx context.Context, companyID uuid.UUID, fn func(ctx context.Context) error) error
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}
