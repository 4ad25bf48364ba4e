package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// AssignmentRepository handles database operations for trip_assignments.
// Find/Get methods return (nil, nil) when no row matches.
type AssignmentRepository struct {
	q Queryer
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(q Queryer) *AssignmentRepository {
	return &AssignmentRepository{q: q}
}

const assignmentColumns = `assignment_id, trip_id, operator_id, bus_label,
	assigned_at, started_at, completed_at, status`

// Create inserts a new assignment
func (r *AssignmentRepository) Create(a *models.TripAssignment) error {
	query := `
		INSERT INTO trip_assignments (
			assignment_id, trip_id, operator_id, bus_label, started_at, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING assigned_at
	`
	return r.q.QueryRow(
		query,
		a.AssignmentID, a.TripID, a.OperatorID, a.BusLabel, a.StartedAt, a.Status,
	).Scan(&a.AssignedAt)
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(assignmentID string) (*models.TripAssignment, error) {
	var a models.TripAssignment
	err := r.q.Get(&a, `SELECT `+assignmentColumns+` FROM trip_assignments WHERE assignment_id = $1`, assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindInProgressByTrip returns the trip's live assignment, if any.
// The partial unique index guarantees at most one.
func (r *AssignmentRepository) FindInProgressByTrip(tripID string) (*models.TripAssignment, error) {
	var a models.TripAssignment
	err := r.q.Get(&a, `
		SELECT `+assignmentColumns+`
		FROM trip_assignments
		WHERE trip_id = $1 AND status = 'IN_PROGRESS'
	`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindLatestByTripAndOperator returns the operator's most recent assignment
// for the trip, if any. Used to derive the operator's daily trip status.
func (r *AssignmentRepository) FindLatestByTripAndOperator(tripID, operatorID string) (*models.TripAssignment, error) {
	var a models.TripAssignment
	err := r.q.Get(&a, `
		SELECT `+assignmentColumns+`
		FROM trip_assignments
		WHERE trip_id = $1 AND operator_id = $2
		ORDER BY assigned_at DESC
		LIMIT 1
	`, tripID, operatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Complete transitions a live assignment to COMPLETED
func (r *AssignmentRepository) Complete(assignmentID string, at time.Time) error {
	result, err := r.q.Exec(`
		UPDATE trip_assignments
		SET status = 'COMPLETED', completed_at = $2
		WHERE assignment_id = $1 AND status = 'IN_PROGRESS'
	`, assignmentID, at)
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
