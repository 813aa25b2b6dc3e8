package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghseeli/service-booking/internal/domain/serviceoption"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceOptionModel is the GORM model for the service_options table.
// A NULL company_id marks a catalog template that cannot be booked directly.
type ServiceOptionModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ServiceID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	CompanyID       *uuid.UUID `gorm:"type:uuid;index"`
	Name            string     `gorm:"type:varchar(100);not null"`
	DurationMinutes int        `gorm:"not null"`
	PriceCents      int64      `gorm:"not null"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (ServiceOptionModel) TableName() string { return "service_options" }

// GormServiceOptionRepository implements serviceoption.Repository using GORM.
type GormServiceOptionRepository struct {
	db *gorm.DB
}

// NewGormServiceOptionRepository creates a new GormServiceOptionRepository.
func NewGormServiceOptionRepository(db *gorm.DB) *GormServiceOptionRepository {
	return &GormServiceOptionRepository{db: db}
}

func (r *GormServiceOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*serviceoption.ServiceOption, error) {
	var m ServiceOptionModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("ServiceOption", id.String())
		}
		return nil, fmt.Errorf("failed to find service option: %w", err)
	}
	return serviceoption.Reconstruct(m.ID, m.ServiceID, m.CompanyID, m.Name, m.DurationMinutes, m.PriceCents), nil
}
