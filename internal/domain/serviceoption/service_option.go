package serviceoption

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ServiceOption is a priced, timed variant of a wash service, optionally scoped to one company.
type ServiceOption struct {
	id              uuid.UUID
	serviceID       uuid.UUID
	companyID       *uuid.UUID
	name            string
	durationMinutes int
	priceCents      int64
}

// Reconstruct rebuilds a ServiceOption from persistence data (no validation).
func Reconstruct(id, serviceID uuid.UUID, companyID *uuid.UUID, name string, durationMinutes int, priceCents int64) *ServiceOption {
	return &ServiceOption{
		id:              id,
		serviceID:       serviceID,
		companyID:       companyID,
		name:            name,
		durationMinutes: durationMinutes,
		priceCents:      priceCents,
	}
}

func (o *ServiceOption) ID() uuid.UUID         { return o.id }
func (o *ServiceOption) ServiceID() uuid.UUID  { return o.serviceID }
func (o *ServiceOption) Name() string          { return o.name }
func (o *ServiceOption) DurationMinutes() int  { return o.durationMinutes }
func (o *ServiceOption) PriceCents() int64     { return o.priceCents }

// Duration returns the length of one wash of this option.
func (o *ServiceOption) Duration() time.Duration {
	return time.Duration(o.durationMinutes) * time.Minute
}

// CompanyID returns the owning company, or false for an unscoped option that cannot be booked.
func (o *ServiceOption) CompanyID() (uuid.UUID, bool) {
	if o.companyID == nil || *o.companyID == uuid.Nil {
		return uuid.Nil, false
	}
	return *o.companyID, true
}

// Repository is the read-only service catalog lookup.
type Repository interface {
	// FindByID returns the option or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceOption, error)
}
