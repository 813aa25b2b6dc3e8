package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghseeli/service-booking/internal/domain/address"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddressModel is the GORM model for the user_addresses table.
type AddressModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	AddressLine string    `gorm:"type:varchar(255);not null"`
	City        string    `gorm:"type:varchar(100)"`
	Area        string    `gorm:"type:varchar(100)"`
	Latitude    *float64  `gorm:"type:double precision"`
	Longitude   *float64  `gorm:"type:double precision"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName sets the table name.
func (AddressModel) TableName() string { return "user_addresses" }

// GormAddressRepository implements address.Repository using GORM.
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository.
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindByID retrieves a saved address.
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*address.Address, error) {
	var m AddressModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Address", id.String())
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}
	return address.Reconstruct(m.ID, m.UserID, m.AddressLine, m.City, m.Area, m.Latitude, m.Longitude), nil
}
