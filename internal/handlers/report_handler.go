package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/middleware"
	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// ReportHandler serves misconduct report intake.
type ReportHandler struct {
	reports *services.ReportService
	logger  *logrus.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *services.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

type submitReportRequest struct {
	PassengerID string `json:"passengerId" binding:"required"`
	TripID      string `json:"tripId" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Comments    string `json:"comments"`
	ImageBase64 string `json:"imageBase64"`
}

// Submit handles POST /operator/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}

	operatorID := c.GetString(middleware.ContextOperatorID)
	report, err := h.reports.SubmitReport(
		c.Request.Context(),
		operatorID, req.PassengerID, req.TripID,
		req.Reason, req.Comments, req.ImageBase64,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reportId": report.ReportID})
}
