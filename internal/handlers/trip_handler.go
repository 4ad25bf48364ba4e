package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/models"
	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// TripHandler serves trip availability and administrative trip creation.
type TripHandler struct {
	trips  *services.TripService
	logger *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(trips *services.TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{trips: trips, logger: logger}
}

// Available handles GET /trips/available?route=...&date=YYYY-MM-DD
func (h *TripHandler) Available(c *gin.Context) {
	route := c.Query("route")
	if !models.ValidDirection(route) {
		respondMalformed(c)
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondMalformed(c)
		return
	}

	trips, err := h.trips.AvailableTrips(c.Request.Context(), models.Direction(route), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

// Create handles POST /trips (admin key guarded)
func (h *TripHandler) Create(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	trip, err := h.trips.CreateTrip(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tripId": trip.TripID})
}
