package vehicle

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Vehicle is a customer's car as registered in the vehicle registry.
type Vehicle struct {
	id           uuid.UUID
	userID       uuid.UUID
	make         string
	model        string
	year         string
	licensePlate string
	color        string
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(id, userID uuid.UUID, make, model, year, licensePlate, color string) *Vehicle {
	return &Vehicle{
		id:           id,
		userID:       userID,
		make:         make,
		model:        model,
		year:         year,
		licensePlate: licensePlate,
		color:        color,
	}
}

func (v *Vehicle) ID() uuid.UUID        { return v.id }
func (v *Vehicle) UserID() uuid.UUID    { return v.userID }
func (v *Vehicle) Make() string         { return v.make }
func (v *Vehicle) Model() string        { return v.model }
func (v *Vehicle) Year() string         { return v.year }
func (v *Vehicle) LicensePlate() string { return v.licensePlate }
func (v *Vehicle) Color() string        { return v.color }

// IsOwnedBy checks if the vehicle belongs to the given user.
func (v *Vehicle) IsOwnedBy(userID uuid.UUID) bool {
	return v.userID == userID
}

// Describe returns a one-line description such as "Toyota Corolla 2020 (ABC-123)".
func Describe(make, model, year, plate string) string {
	info := strings.Join(strings.Fields(strings.Join([]string{make, model, year}, " ")), " ")
	if plate != "" {
		if info == "" {
			return plate
		}
		info += " (" + plate + ")"
	}
	return info
}

// Repository is the read-only vehicle lookup used by booking creation.
type Repository interface {
	// FindByID returns the vehicle or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
}
