package handler

import (
	"context"
	"time"

	"github.com/ghseeli/service-booking/internal/application"
	"github.com/ghseeli/service-booking/pkg/auth"
	"github.com/ghseeli/service-booking/pkg/middleware"
	"github.com/ghseeli/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingService is the subset of *application.BookingService the HTTP layer drives.
type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	UpdateBooking(ctx context.Context, bookingID, userID uuid.UUID, req application.UpdateBookingRequest) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*application.BookingDTO, error)
	ConfirmBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*application.BookingDTO, error)
	StartService(ctx context.Context, bookingID, companyID uuid.UUID) (*application.BookingDTO, error)
	CompleteService(ctx context.Context, bookingID, companyID uuid.UUID) (*application.BookingDTO, error)
	IsTimeSlotAvailable(ctx context.Context, companyID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	GetBooking(ctx context.Context, bookingID, userID, companyID uuid.UUID) (*application.BookingDetailsDTO, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]application.BookingDTO, error)
	ListUpcomingUserBookings(ctx context.Context, userID uuid.UUID) ([]application.BookingDTO, error)
	ListPastUserBookings(ctx context.Context, userID uuid.UUID) ([]application.BookingDTO, error)
	ListCompanyBookings(ctx context.Context, companyID uuid.UUID, day *time.Time) ([]application.BookingDTO, error)
	CompanyBookingStats(ctx context.Context, companyID uuid.UUID) (*application.BookingStatsDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// AvailabilityResponse answers a time-slot check.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	companyOnly := middleware.RequireCompany()

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/check-availability", h.CheckAvailability)
		bookings.GET("/my-bookings", h.MyBookings)
		bookings.GET("/my-bookings/upcoming", h.MyUpcomingBookings)
		bookings.GET("/my-bookings/history", h.MyPastBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.PUT("/:id/cancel", h.CancelBooking)
		bookings.PUT("/:id/confirm", companyOnly, h.ConfirmBooking)
		bookings.PUT("/:id/start", companyOnly, h.StartService)
		bookings.PUT("/:id/complete", companyOnly, h.CompleteService)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateBooking handles PUT /api/v1/bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBooking(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles PUT /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmBooking handles PUT /api/v1/bookings/:id/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.companyTransition(c, h.service.ConfirmBooking)
}

// StartService handles PUT /api/v1/bookings/:id/start.
func (h *BookingHandler) StartService(c *gin.Context) {
	h.companyTransition(c, h.service.StartService)
}

// CompleteService handles PUT /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteService(c *gin.Context) {
	h.companyTransition(c, h.service.CompleteService)
}

func (h *BookingHandler) companyTransition(
	c *gin.Context,
	op func(ctx context.Context, bookingID, companyID uuid.UUID) (*application.BookingDTO, error),
) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	companyID, _ := middleware.GetCompanyID(c)

	result, err := op(c.Request.Context(), bookingID, companyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckAvailability handles GET /api/v1/bookings/check-availability.
// Times are RFC 3339; excludeId skips one booking, as when rescheduling it.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("companyId"))
	if err != nil {
		response.BadRequest(c, "invalid companyId")
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("startTime"))
	if err != nil {
		response.BadRequest(c, "invalid startTime, expected RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("endTime"))
	if err != nil {
		response.BadRequest(c, "invalid endTime, expected RFC 3339")
		return
	}

	var excludeID *uuid.UUID
	if raw := c.Query("excludeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid excludeId")
			return
		}
		excludeID = &id
	}

	available, err := h.service.IsTimeSlotAvailable(c.Request.Context(), companyID, start, end, excludeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, AvailabilityResponse{Available: available})
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)
	companyID, _ := middleware.GetCompanyID(c)

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID, companyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// MyBookings handles GET /api/v1/bookings/my-bookings.
func (h *BookingHandler) MyBookings(c *gin.Context) {
	h.userList(c, h.service.ListUserBookings)
}

// MyUpcomingBookings handles GET /api/v1/bookings/my-bookings/upcoming.
func (h *BookingHandler) MyUpcomingBookings(c *gin.Context) {
	h.userList(c, h.service.ListUpcomingUserBookings)
}

// MyPastBookings handles GET /api/v1/bookings/my-bookings/history.
func (h *BookingHandler) MyPastBookings(c *gin.Context) {
	h.userList(c, h.service.ListPastUserBookings)
}

func (h *BookingHandler) userList(c *gin.Context, list func(ctx context.Context, userID uuid.UUID) ([]application.BookingDTO, error)) {
	userID, _ := middleware.GetUserID(c)

	result, err := list(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// bookingIDParam parses :id and writes 400 when it is not a uuid.
func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}
