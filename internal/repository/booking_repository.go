package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ghseeli/service-booking/internal/domain/address"
	bookingDomain "github.com/ghseeli/service-booking/internal/domain/booking"
	"github.com/ghseeli/service-booking/internal/domain/vehicle"
	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null"`
	CompanyID       uuid.UUID `gorm:"type:uuid;not null"`
	ServiceOptionID uuid.UUID `gorm:"type:uuid;not null"`
	VehicleID       uuid.UUID `gorm:"type:uuid;not null"`
	AddressID       uuid.UUID `gorm:"type:uuid;not null"`
	StartDateTime   time.Time `gorm:"type:timestamptz;not null"`
	EndDateTime     time.Time `gorm:"type:timestamptz;not null"`
	Status          string    `gorm:"not null;size:30"`
	Notes           string    `gorm:"size:500"`
	IsPaid          bool      `gorm:"not null;default:false"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
// Calls made with a ctx from GormTxManager join its transaction.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

type bookingDetailsRow struct {
	BookingModel        `gorm:"embedded"`
	ServiceOptionName   string
	PriceCents          int64
	VehicleMake         string
	VehicleModel        string
	VehicleYear         string
	VehicleLicensePlate string
	AddressLine         string
	AddressArea         string
	AddressCity         string
}

// FindByIDWithDetails retrieves a booking joined with its service option, vehicle and address.
// References that no longer exist leave the matching detail fields empty.
func (r *GormBookingRepository) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*bookingDomain.Details, error) {
	var rows []bookingDetailsRow
	err := conn(ctx, r.db).
		Table("bookings AS b").
		Select(`b.*,
			so.name AS service_option_name, so.price_cents AS price_cents,
			v.make AS vehicle_make, v.model AS vehicle_model, v.year AS vehicle_year, v.license_plate AS vehicle_license_plate,
			a.address_line AS address_line, a.area AS address_area, a.city AS address_city`).
		Joins("LEFT JOIN service_options so ON so.id = b.service_option_id").
		Joins("LEFT JOIN vehicles v ON v.id = b.vehicle_id").
		Joins("LEFT JOIN user_addresses a ON a.id = b.address_id").
		Where("b.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find booking details: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFoundError("Booking", id.String())
	}

	row := rows[0]
	bk, err := toDomainBooking(&row.BookingModel)
	if err != nil {
		return nil, err
	}
	return &bookingDomain.Details{
		Booking:           bk,
		ServiceOptionName: row.ServiceOptionName,
		PriceCents:        row.PriceCents,
		VehicleInfo:       vehicle.Describe(row.VehicleMake, row.VehicleModel, row.VehicleYear, row.VehicleLicensePlate),
		AddressInfo:       address.Describe(row.AddressLine, row.AddressArea, row.AddressCity),
	}, nil
}

// FindByUserID retrieves a user's bookings, newest slot first.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("start_date_time DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find user bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindUpcomingByUserID retrieves a user's bookings starting after now, soonest first.
func (r *GormBookingRepository) FindUpcomingByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("user_id = ? AND start_date_time > ?", userID, now).
		Order("start_date_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find upcoming bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindPastByUserID retrieves a user's bookings that ended before now, newest first.
func (r *GormBookingRepository) FindPastByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("user_id = ? AND end_date_time < ?", userID, now).
		Order("start_date_time DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find past bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByCompany retrieves a company's bookings, newest slot first.
func (r *GormBookingRepository) FindByCompany(ctx context.Context, filter bookingDomain.CompanyFilter) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).Where("company_id = ?", filter.CompanyID)
	if filter.From != nil {
		q = q.Where("start_date_time >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("start_date_time <= ?", *filter.To)
	}

	var models []BookingModel
	if err := q.Order("start_date_time DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find company bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountByStatus returns a company's booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context, companyID uuid.UUID) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Where("company_id = ?", companyID).
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// HasConflict reports whether a slot-blocking booking of companyID overlaps interval.
// It is a single EXISTS query served by idx_bookings_company_status_range.
func (r *GormBookingRepository) HasConflict(ctx context.Context, companyID uuid.UUID, interval bookingDomain.TimeInterval, excludeID *uuid.UUID) (bool, error) {
	query, args, err := conflictQuery(companyID, interval, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to build conflict query: %w", err)
	}

	var exists bool
	if err := conn(ctx, r.db).Raw(query, args...).Scan(&exists).Error; err != nil {
		return false, fmt.Errorf("failed to check booking conflict: %w", err)
	}
	return exists, nil
}

func conflictQuery(companyID uuid.UUID, interval bookingDomain.TimeInterval, excludeID *uuid.UUID) (string, []interface{}, error) {
	statuses := make([]string, len(bookingDomain.BlockingStatuses))
	for i, s := range bookingDomain.BlockingStatuses {
		statuses[i] = s.String()
	}

	// uuid.UUID is an array type, which squirrel would expand into an IN list; bind strings.
	sub := sq.Select("1").
		From("bookings").
		Where(sq.Eq{"company_id": companyID.String(), "status": statuses}).
		Where(sq.Lt{"start_date_time": interval.End}).
		Where(sq.Gt{"end_date_time": interval.Start})
	if excludeID != nil {
		sub = sub.Where(sq.NotEq{"id": excludeID.String()})
	}

	query, args, err := sub.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "SELECT EXISTS (" + query + ")", args, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return translateWriteError(fmt.Errorf("failed to save booking: %w", err))
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already run, so the stored row must still hold the previous version.
	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"start_date_time": model.StartDateTime,
			"end_date_time":   model.EndDateTime,
			"status":          model.Status,
			"notes":           model.Notes,
			"is_paid":         model.IsPaid,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return translateWriteError(fmt.Errorf("failed to update booking: %w", result.Error))
	}

	if result.RowsAffected == 0 {
		return apperror.NewConcurrentUpdateError("booking was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		UserID:          bk.UserID(),
		CompanyID:       bk.CompanyID(),
		ServiceOptionID: bk.ServiceOptionID(),
		VehicleID:       bk.VehicleID(),
		AddressID:       bk.AddressID(),
		StartDateTime:   bk.StartDateTime(),
		EndDateTime:     bk.EndDateTime(),
		Status:          bk.Status().String(),
		Notes:           bk.Notes(),
		IsPaid:          bk.IsPaid(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.UserID,
		m.CompanyID,
		m.ServiceOptionID,
		m.VehicleID,
		m.AddressID,
		m.StartDateTime,
		m.EndDateTime,
		status,
		m.Notes,
		m.IsPaid,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
