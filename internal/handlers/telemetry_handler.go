package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// TelemetryHandler serves GPS position intake from operator devices.
type TelemetryHandler struct {
	telemetry *services.TelemetryService
	logger    *logrus.Logger
}

// NewTelemetryHandler creates a new TelemetryHandler
func NewTelemetryHandler(telemetry *services.TelemetryService, logger *logrus.Logger) *TelemetryHandler {
	return &TelemetryHandler{telemetry: telemetry, logger: logger}
}

type publishPositionRequest struct {
	TripID string     `json:"tripId" binding:"required"`
	Lat    *float64   `json:"lat" binding:"required"`
	Lon    *float64   `json:"lon" binding:"required"`
	Speed  *float64   `json:"speed"`
	Ts     *time.Time `json:"ts"`
}

// Publish handles POST /operator/gps
func (h *TelemetryHandler) Publish(c *gin.Context) {
	var req publishPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	ts, err := h.telemetry.PublishPosition(c.Request.Context(), req.TripID, *req.Lat, *req.Lon, req.Speed, req.Ts)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": true, "ts": ts})
}
