package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/middleware"
	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// AuthHandler serves the passenger identity endpoints.
type AuthHandler struct {
	auth   *services.AuthService
	logger *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type federatedLoginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName" binding:"required"`
}

// FederatedLogin handles POST /auth/federated. The upstream identity
// provider has already verified the email claim.
func (h *AuthHandler) FederatedLogin(c *gin.Context) {
	var req federatedLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	result, err := h.auth.FederatedLogin(c.Request.Context(), req.Email, req.DisplayName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type completeProfileRequest struct {
	Room  string `json:"room" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// CompleteProfile handles PUT /auth/complete-profile
func (h *AuthHandler) CompleteProfile(c *gin.Context) {
	var req completeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	passengerID := c.GetString(middleware.ContextPassengerID)
	if err := h.auth.CompleteProfile(c.Request.Context(), passengerID, req.Room, req.Phone); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profileComplete": true})
}

// Profile handles GET /profile
func (h *AuthHandler) Profile(c *gin.Context) {
	passengerID := c.GetString(middleware.ContextPassengerID)
	profile, err := h.auth.Profile(c.Request.Context(), passengerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// BookingHistory handles GET /bookings/history
func (h *AuthHandler) BookingHistory(c *gin.Context) {
	passengerID := c.GetString(middleware.ContextPassengerID)
	history, err := h.auth.BookingHistory(c.Request.Context(), passengerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
