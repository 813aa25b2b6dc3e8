package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ghseeli/service-booking/internal/domain/vehicle"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Make         string    `gorm:"type:varchar(100);not null"`
	Model        string    `gorm:"type:varchar(100);not null"`
	Year         string    `gorm:"type:varchar(4)"`
	LicensePlate string    `gorm:"type:varchar(20)"`
	Color        string    `gorm:"type:varchar(50)"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleRepository implements vehicle.Repository using GORM.
type GormVehicleRepository struct {
	db *gorm.DB
}

func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	var model VehicleModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Vehicle", id.String())
		}
		return nil, err
	}
	return vehicle.Reconstruct(model.ID, model.UserID, model.Make, model.Model, model.Year, model.LicensePlate, model.Color), nil
}
