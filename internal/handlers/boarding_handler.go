package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// BoardingHandler serves boarding token validation.
type BoardingHandler struct {
	boarding *services.BoardingService
	logger   *logrus.Logger
}

// NewBoardingHandler creates a new BoardingHandler
func NewBoardingHandler(boarding *services.BoardingService, logger *logrus.Logger) *BoardingHandler {
	return &BoardingHandler{boarding: boarding, logger: logger}
}

type validateBoardingRequest struct {
	BoardingToken string `json:"boardingToken" binding:"required"`
	TripID        string `json:"tripId" binding:"required"`
}

// Validate handles POST /boarding/validate. A replayed scan returns 200
// with status ALREADY_BOARDED rather than an error.
func (h *BoardingHandler) Validate(c *gin.Context) {
	var req validateBoardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	result, err := h.boarding.ValidateBoarding(c.Request.Context(), req.BoardingToken, req.TripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
