package database

import (
	"database/sql"
	"errors"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// PassengerRepository handles database operations for the passengers table.
// Find/Get methods return (nil, nil) when no row matches.
type PassengerRepository struct {
	q Queryer
}

// NewPassengerRepository creates a new PassengerRepository
func NewPassengerRepository(q Queryer) *PassengerRepository {
	return &PassengerRepository{q: q}
}

const passengerColumns = `passenger_id, email, display_name, room, phone,
	penalty_count, blocked_until, created_at`

// Create inserts a new passenger record
func (r *PassengerRepository) Create(p *models.Passenger) error {
	query := `
		INSERT INTO passengers (passenger_id, email, display_name, room, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return r.q.QueryRow(query, p.PassengerID, p.Email, p.DisplayName, p.Room, p.Phone).
		Scan(&p.CreatedAt)
}

// GetByID retrieves a passenger by ID
func (r *PassengerRepository) GetByID(passengerID string) (*models.Passenger, error) {
	var p models.Passenger
	err := r.q.Get(&p, `SELECT `+passengerColumns+` FROM passengers WHERE passenger_id = $1`, passengerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail retrieves a passenger by their verified email
func (r *PassengerRepository) GetByEmail(email string) (*models.Passenger, error) {
	var p models.Passenger
	err := r.q.Get(&p, `SELECT `+passengerColumns+` FROM passengers WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile sets the room and phone collected during profile completion
func (r *PassengerRepository) UpdateProfile(passengerID, room, phone string) error {
	result, err := r.q.Exec(`
		UPDATE passengers SET room = $2, phone = $3 WHERE passenger_id = $1
	`, passengerID, room, phone)
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
