package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// TripRepository handles database operations for the trips table.
// Find/Get methods return (nil, nil) when no row matches.
type TripRepository struct {
	q Queryer
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(q Queryer) *TripRepository {
	return &TripRepository{q: q}
}

const tripColumns = `trip_id, direction, destination, bus_label, trip_date,
	departure_time, capacity, faculty_reserved, status, day_class, created_at`

// Create inserts a new trip
func (r *TripRepository) Create(t *models.Trip) error {
	query := `
		INSERT INTO trips (
			trip_id, direction, destination, bus_label, trip_date,
			departure_time, capacity, faculty_reserved, status, day_class
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	return r.q.QueryRow(
		query,
		t.TripID, t.Direction, t.Destination, t.BusLabel, t.TripDate,
		t.DepartureTime, t.Capacity, t.FacultyReserved, t.Status, t.DayClass,
	).Scan(&t.CreatedAt)
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(tripID string) (*models.Trip, error) {
	var t models.Trip
	err := r.q.Get(&t, `SELECT `+tripColumns+` FROM trips WHERE trip_id = $1`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListActiveByDirectionAndDate returns the active trips for a direction on a
// date, ordered by departure time.
func (r *TripRepository) ListActiveByDirectionAndDate(direction models.Direction, date time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.q.Select(&trips, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE direction = $1 AND trip_date = $2 AND status = 'ACTIVE'
		ORDER BY departure_time ASC
	`, direction, date)
	return trips, err
}

// ListActiveByDate returns every active trip on a date, both directions,
// ordered by departure time.
func (r *TripRepository) ListActiveByDate(date time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.q.Select(&trips, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE trip_date = $1 AND status = 'ACTIVE'
		ORDER BY departure_time ASC
	`, date)
	return trips, err
}

// UpdateStatus moves a trip through its lifecycle. Trips are immutable after
// first booking except for this column.
func (r *TripRepository) UpdateStatus(tripID string, status models.TripStatus) error {
	result, err := r.q.Exec(`UPDATE trips SET status = $2 WHERE trip_id = $1`, tripID, status)
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
