package repository

import (
	"errors"

	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// sqlStateExclusionViolation is raised by the bookings_no_overlap constraint.
	sqlStateExclusionViolation = "23P01"
	bookingOverlapConstraint   = "bookings_no_overlap"
)

// translateWriteError maps the overlap constraint onto the time-slot conflict
// error and leaves every other error untouched.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateExclusionViolation && pgErr.ConstraintName == bookingOverlapConstraint {
		return apperror.NewTimeSlotConflictError("The selected time slot is not available. Please choose a different time.")
	}
	return err
}
