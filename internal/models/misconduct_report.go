package models

import "time"

// ReportReason classifies a misconduct report
type ReportReason string

const (
	ReportReasonBehavior        ReportReason = "BEHAVIOR"
	ReportReasonInvalidBoarding ReportReason = "INVALID_BOARDING_ATTEMPT"
	ReportReasonOther           ReportReason = "OTHER"
)

// ValidReportReason reports whether s is a recognised report reason.
func ValidReportReason(s string) bool {
	switch ReportReason(s) {
	case ReportReasonBehavior, ReportReasonInvalidBoarding, ReportReasonOther:
		return true
	}
	return false
}

// ReportStatus represents the review state of a misconduct report
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "PENDING"
	ReportStatusReviewed ReportStatus = "REVIEWED"
	ReportStatusResolved ReportStatus = "RESOLVED"
)

// MisconductReport records an operator-filed incident against a passenger.
// Immutable after creation except for status transitions.
type MisconductReport struct {
	ReportID        string       `json:"report_id" db:"report_id"`
	PassengerID     string       `json:"passenger_id" db:"passenger_id"`
	TripID          string       `json:"trip_id" db:"trip_id"`
	OperatorID      string       `json:"operator_id" db:"operator_id"`
	Reason          ReportReason `json:"reason" db:"reason"`
	Comments        *string      `json:"comments,omitempty" db:"comments"`
	EvidenceLocator *string      `json:"evidence_locator,omitempty" db:"evidence_locator"`
	ReportedAt      time.Time    `json:"reported_at" db:"reported_at"`
	Status          ReportStatus `json:"status" db:"status"`
}

// HasEvidence reports whether a blob-store photo is attached.
func (r *MisconductReport) HasEvidence() bool {
	return r.EvidenceLocator != nil && *r.EvidenceLocator != ""
}
