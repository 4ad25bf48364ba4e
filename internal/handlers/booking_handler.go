package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/middleware"
	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// BookingHandler serves the passenger booking endpoints.
type BookingHandler struct {
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

type createBookingRequest struct {
	TripID string `json:"tripId" binding:"required"`
}

// Create handles POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	passengerID := c.GetString(middleware.ContextPassengerID)
	result, err := h.bookings.Book(c.Request.Context(), passengerID, req.TripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Cancel handles DELETE /bookings/:id. Cancelling an already-cancelled
// booking is idempotent and reported as an advisory, not an error.
func (h *BookingHandler) Cancel(c *gin.Context) {
	passengerID := c.GetString(middleware.ContextPassengerID)
	bookingID := c.Param("id")

	_, err := h.bookings.Cancel(c.Request.Context(), passengerID, bookingID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyCancelled) {
			c.JSON(http.StatusOK, gin.H{"message": "ALREADY_CANCELLED"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
}
