package address

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Address is a location saved by a customer where a wash can be performed.
type Address struct {
	id          uuid.UUID
	userID      uuid.UUID
	addressLine string
	city        string
	area        string
	latitude    *float64
	longitude   *float64
}

// Reconstruct rebuilds an Address from persistence data (no validation).
func Reconstruct(id, userID uuid.UUID, addressLine, city, area string, latitude, longitude *float64) *Address {
	return &Address{
		id:          id,
		userID:      userID,
		addressLine: addressLine,
		city:        city,
		area:        area,
		latitude:    latitude,
		longitude:   longitude,
	}
}

func (a *Address) ID() uuid.UUID       { return a.id }
func (a *Address) UserID() uuid.UUID   { return a.userID }
func (a *Address) AddressLine() string { return a.addressLine }
func (a *Address) City() string        { return a.city }
func (a *Address) Area() string        { return a.area }
func (a *Address) Latitude() *float64  { return a.latitude }
func (a *Address) Longitude() *float64 { return a.longitude }

// IsOwnedBy checks if the address belongs to the given user.
func (a *Address) IsOwnedBy(userID uuid.UUID) bool {
	return a.userID == userID
}

// Describe joins the non-empty address parts with commas.
func Describe(line, area, city string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{line, area, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Repository is the read-only address lookup used by booking creation.
type Repository interface {
	// FindByID returns the address or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
}
