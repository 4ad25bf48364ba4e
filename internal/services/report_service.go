package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// ReportStore is the persistence surface misconduct reports depend on.
type ReportStore interface {
	GetPassenger(passengerID string) (*models.Passenger, error)
	CreateReport(report *models.MisconductReport) error
}

// EvidenceUploader stores an evidence photo and returns its locator.
type EvidenceUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// ReportService handles misconduct report intake. Evidence photos arrive
// inline base64-encoded and are decoded server-side, so clients can never
// forge a blob-store locator.
type ReportService struct {
	store    ReportStore
	uploader EvidenceUploader
	logger   *logrus.Logger
}

// NewReportService creates a new ReportService
func NewReportService(store ReportStore, uploader EvidenceUploader, logger *logrus.Logger) *ReportService {
	return &ReportService{
		store:    store,
		uploader: uploader,
		logger:   logger,
	}
}

// SubmitReport validates and persists a misconduct report. An evidence
// upload failure is logged and the report proceeds without evidence;
// evidence is optional, the report is not.
func (s *ReportService) SubmitReport(ctx context.Context, operatorID, passengerID, tripID, reason, comments, imageBase64 string) (*models.MisconductReport, error) {
	if !models.ValidReportReason(reason) {
		return nil, ErrInvalidReason
	}
	comments = strings.TrimSpace(comments)
	if models.ReportReason(reason) == models.ReportReasonOther && comments == "" {
		return nil, ErrCommentsRequired
	}

	passenger, err := s.store.GetPassenger(passengerID)
	if err != nil {
		return nil, fmt.Errorf("load passenger: %w", err)
	}
	if passenger == nil {
		return nil, ErrNotFound
	}

	var evidenceLocator *string
	if imageBase64 != "" {
		imageBytes, err := base64.StdEncoding.DecodeString(imageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: image is not valid base64", ErrValidation)
		}
		key := fmt.Sprintf("misconduct/%s/%s.jpg", passengerID, uuid.New().String())
		locator, err := s.uploader.Upload(ctx, key, imageBytes, "image/jpeg")
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"passenger_id": passengerID,
				"key":          key,
			}).Error("evidence upload failed, filing report without evidence")
		} else {
			evidenceLocator = &locator
		}
	}

	report := &models.MisconductReport{
		ReportID:        models.NewReportID(),
		PassengerID:     passengerID,
		TripID:          tripID,
		OperatorID:      operatorID,
		Reason:          models.ReportReason(reason),
		EvidenceLocator: evidenceLocator,
		Status:          models.ReportStatusPending,
	}
	if comments != "" {
		report.Comments = &comments
	}
	if err := s.store.CreateReport(report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":    report.ReportID,
		"passenger_id": passengerID,
		"trip_id":      tripID,
		"reason":       reason,
		"has_evidence": report.HasEvidence(),
	}).Info("misconduct report filed")
	return report, nil
}
