package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ghseeli/service-booking/pkg/auth"
	"github.com/ghseeli/service-booking/pkg/middleware"
	"github.com/ghseeli/service-booking/pkg/response"
)

// CompanyBookingHandler serves the booking views of a company's staff.
type CompanyBookingHandler struct {
	service BookingService
}

// NewCompanyBookingHandler creates a new CompanyBookingHandler.
func NewCompanyBookingHandler(service BookingService) *CompanyBookingHandler {
	return &CompanyBookingHandler{service: service}
}

// RegisterRoutes registers company booking routes.
func (h *CompanyBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	companies := r.Group("/api/v1/companies/:companyId")
	companies.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireCompany())
	{
		companies.GET("/bookings", h.ListBookings)
		companies.GET("/bookings/stats", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/companies/:companyId/bookings[?date=YYYY-MM-DD].
func (h *CompanyBookingHandler) ListBookings(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	var day *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			response.BadRequest(c, "invalid date, expected YYYY-MM-DD")
			return
		}
		day = &d
	}

	bookings, err := h.service.ListCompanyBookings(c.Request.Context(), companyID, day)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, bookings)
}

// BookingStats handles GET /api/v1/companies/:companyId/bookings/stats.
func (h *CompanyBookingHandler) BookingStats(c *gin.Context) {
	companyID, ok := ownCompany(c)
	if !ok {
		return
	}

	stats, err := h.service.CompanyBookingStats(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ownCompany returns :companyId when the caller acts for it. Any other company answers 404.
func ownCompany(c *gin.Context) (uuid.UUID, bool) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.BadRequest(c, "invalid company ID")
		return uuid.Nil, false
	}
	if own, _ := middleware.GetCompanyID(c); own != companyID {
		response.NotFound(c)
		return uuid.Nil, false
	}
	return companyID, true
}
