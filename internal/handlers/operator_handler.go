package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/middleware"
	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// OperatorHandler serves operator login and the assignment lifecycle.
type OperatorHandler struct {
	operators *services.OperatorService
	logger    *logrus.Logger
}

// NewOperatorHandler creates a new OperatorHandler
func NewOperatorHandler(operators *services.OperatorService, logger *logrus.Logger) *OperatorHandler {
	return &OperatorHandler{operators: operators, logger: logger}
}

type operatorLoginRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login handles POST /operator/login
func (h *OperatorHandler) Login(c *gin.Context) {
	var req operatorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	result, err := h.operators.Login(c.Request.Context(), req.EmployeeID, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Trips handles GET /operator/trips, listing today's trips with the
// operator's derived status per trip.
func (h *OperatorHandler) Trips(c *gin.Context) {
	operatorID := c.GetString(middleware.ContextOperatorID)

	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondMalformed(c)
		return
	}

	trips, err := h.operators.ListTrips(c.Request.Context(), operatorID, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "date": dateStr})
}

type startAssignmentRequest struct {
	TripID   string `json:"tripId" binding:"required"`
	BusLabel string `json:"busLabel"`
}

// StartTrip handles POST /operator/trips/start
func (h *OperatorHandler) StartTrip(c *gin.Context) {
	var req startAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	operatorID := c.GetString(middleware.ContextOperatorID)
	assignment, err := h.operators.StartAssignment(c.Request.Context(), operatorID, req.TripID, req.BusLabel)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"assignmentId": assignment.AssignmentID,
		"status":       assignment.Status,
	})
}

type completeAssignmentRequest struct {
	TripID string `json:"tripId" binding:"required"`
}

// CompleteTrip handles POST /operator/trips/complete
func (h *OperatorHandler) CompleteTrip(c *gin.Context) {
	var req completeAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	operatorID := c.GetString(middleware.ContextOperatorID)
	assignment, err := h.operators.CompleteAssignment(c.Request.Context(), operatorID, req.TripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignmentId": assignment.AssignmentID,
		"status":       assignment.Status,
	})
}

// Passengers handles GET /operator/trips/:tripId/passengers
func (h *OperatorHandler) Passengers(c *gin.Context) {
	manifest, err := h.operators.PassengerList(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}
