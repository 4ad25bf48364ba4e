package database

import (
	"database/sql"
	"errors"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// ReportRepository handles database operations for misconduct_reports.
// Reports are immutable after creation except for status transitions.
type ReportRepository struct {
	q Queryer
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(q Queryer) *ReportRepository {
	return &ReportRepository{q: q}
}

const reportColumns = `report_id, passenger_id, trip_id, operator_id, reason,
	comments, evidence_locator, reported_at, status`

// Create inserts a new misconduct report
func (r *ReportRepository) Create(report *models.MisconductReport) error {
	query := `
		INSERT INTO misconduct_reports (
			report_id, passenger_id, trip_id, operator_id, reason,
			comments, evidence_locator, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING reported_at
	`
	return r.q.QueryRow(
		query,
		report.ReportID, report.PassengerID, report.TripID, report.OperatorID,
		report.Reason, report.Comments, report.EvidenceLocator, report.Status,
	).Scan(&report.ReportedAt)
}

// GetByID retrieves a report by ID, (nil, nil) when absent
func (r *ReportRepository) GetByID(reportID string) (*models.MisconductReport, error) {
	var report models.MisconductReport
	err := r.q.Get(&report, `SELECT `+reportColumns+` FROM misconduct_reports WHERE report_id = $1`, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateStatus moves a report through its review lifecycle
func (r *ReportRepository) UpdateStatus(reportID string, status models.ReportStatus) error {
	result, err := r.q.Exec(`
		UPDATE misconduct_reports SET status = $2 WHERE report_id = $1
	`, reportID, status)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
