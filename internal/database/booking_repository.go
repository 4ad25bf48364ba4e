package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// BookingRepository handles database operations for the bookings table.
// Find/Get methods return (nil, nil) when no row matches.
type BookingRepository struct {
	q Queryer
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(q Queryer) *BookingRepository {
	return &BookingRepository{q: q}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *BookingRepository) WithTx(tx Queryer) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `booking_id, passenger_id, trip_id, direction, status,
	boarding_token, waitlist_position, created_at, boarded_at`

// Create inserts a new booking row
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			booking_id, passenger_id, trip_id, direction, status,
			boarding_token, waitlist_position
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.q.QueryRow(
		query,
		booking.BookingID, booking.PassengerID, booking.TripID, booking.Direction,
		booking.Status, booking.BoardingToken, booking.WaitlistPosition,
	).Scan(&booking.CreatedAt)
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.q.Get(&booking, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDAndTrip retrieves a booking by ID scoped to a trip.
// Used by boarding validation so a token replayed against another trip's
// booking id cannot match.
func (r *BookingRepository) GetByIDAndTrip(bookingID, tripID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.q.Get(&booking,
		`SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1 AND trip_id = $2`,
		bookingID, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindLiveByPassengerAndTrip returns the passenger's non-cancelled booking
// for the trip, if any.
func (r *BookingRepository) FindLiveByPassengerAndTrip(passengerID, tripID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.q.Get(&booking, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE passenger_id = $1 AND trip_id = $2 AND status <> 'CANCELLED'
	`, passengerID, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindLiveByPassengerAndDirection returns the passenger's non-cancelled
// booking for any trip of the given direction, if any.
func (r *BookingRepository) FindLiveByPassengerAndDirection(passengerID string, direction models.Direction) (*models.Booking, error) {
	var booking models.Booking
	err := r.q.Get(&booking, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE passenger_id = $1 AND direction = $2 AND status <> 'CANCELLED'
	`, passengerID, direction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CountSeated counts the bookings occupying a student seat on the trip.
func (r *BookingRepository) CountSeated(tripID string) (int, error) {
	var count int
	err := r.q.Get(&count, `
		SELECT COUNT(*) FROM bookings
		WHERE trip_id = $1 AND status IN ('CONFIRMED', 'BOARDED')
	`, tripID)
	return count, err
}

// CountWaitlisted counts the waitlisted bookings on the trip.
func (r *BookingRepository) CountWaitlisted(tripID string) (int, error) {
	var count int
	err := r.q.Get(&count, `
		SELECT COUNT(*) FROM bookings
		WHERE trip_id = $1 AND status = 'WAITLIST'
	`, tripID)
	return count, err
}

// MaxWaitlistPosition returns the highest waitlist position on the trip,
// or 0 when the waitlist is empty.
func (r *BookingRepository) MaxWaitlistPosition(tripID string) (int, error) {
	var max int
	err := r.q.Get(&max, `
		SELECT COALESCE(MAX(waitlist_position), 0) FROM bookings
		WHERE trip_id = $1 AND status = 'WAITLIST'
	`, tripID)
	return max, err
}

// FirstWaitlisted returns the head of the trip's waitlist: the booking with
// the minimum position, ties broken by creation time.
func (r *BookingRepository) FirstWaitlisted(tripID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.q.Get(&booking, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trip_id = $1 AND status = 'WAITLIST'
		ORDER BY waitlist_position ASC, created_at ASC
		LIMIT 1
	`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Cancel marks a booking cancelled and clears its waitlist position.
func (r *BookingRepository) Cancel(bookingID string) error {
	_, err := r.q.Exec(`
		UPDATE bookings
		SET status = 'CANCELLED', waitlist_position = NULL
		WHERE booking_id = $1
	`, bookingID)
	return err
}

// Promote confirms a waitlisted booking, attaching its freshly minted
// boarding token and clearing the position.
func (r *BookingRepository) Promote(bookingID, boardingToken string) error {
	_, err := r.q.Exec(`
		UPDATE bookings
		SET status = 'CONFIRMED', boarding_token = $2, waitlist_position = NULL
		WHERE booking_id = $1 AND status = 'WAITLIST'
	`, bookingID, boardingToken)
	return err
}

// ShiftWaitlist decrements the position of every waitlisted booking on the
// trip whose position is greater than the given one, closing the gap left by
// a promotion or waitlist cancellation.
func (r *BookingRepository) ShiftWaitlist(tripID string, abovePosition int) error {
	_, err := r.q.Exec(`
		UPDATE bookings
		SET waitlist_position = waitlist_position - 1
		WHERE trip_id = $1 AND status = 'WAITLIST' AND waitlist_position > $2
	`, tripID, abovePosition)
	return err
}

// MarkBoarded transitions a confirmed booking to BOARDED, setting boarded_at
// exactly once.
func (r *BookingRepository) MarkBoarded(bookingID string, at time.Time) error {
	_, err := r.q.Exec(`
		UPDATE bookings
		SET status = 'BOARDED', boarded_at = $2
		WHERE booking_id = $1 AND status = 'CONFIRMED'
	`, bookingID, at)
	return err
}

// HistoryByPassenger returns all of a passenger's bookings joined with their
// trips, newest first.
func (r *BookingRepository) HistoryByPassenger(passengerID string) ([]models.BookingSummary, error) {
	var summaries []models.BookingSummary
	err := r.q.Select(&summaries, `
		SELECT b.booking_id, b.trip_id, b.status, b.waitlist_position,
		       b.boarding_token, b.direction, t.destination, t.trip_date,
		       t.departure_time, b.created_at, b.boarded_at
		FROM bookings b
		JOIN trips t ON t.trip_id = b.trip_id
		WHERE b.passenger_id = $1
		ORDER BY b.created_at DESC
	`, passengerID)
	return summaries, err
}

// ActiveByPassenger returns the passenger's live bookings joined with their
// trips, soonest departure first.
func (r *BookingRepository) ActiveByPassenger(passengerID string) ([]models.BookingSummary, error) {
	var summaries []models.BookingSummary
	err := r.q.Select(&summaries, `
		SELECT b.booking_id, b.trip_id, b.status, b.waitlist_position,
		       b.boarding_token, b.direction, t.destination, t.trip_date,
		       t.departure_time, b.created_at, b.boarded_at
		FROM bookings b
		JOIN trips t ON t.trip_id = b.trip_id
		WHERE b.passenger_id = $1 AND b.status <> 'CANCELLED'
		ORDER BY t.trip_date ASC, t.departure_time ASC
	`, passengerID)
	return summaries, err
}

// PassengersByTrip returns the boarding manifest for a trip: every seated
// passenger with their boarded state.
func (r *BookingRepository) PassengersByTrip(tripID string) ([]models.TripPassenger, error) {
	var passengers []models.TripPassenger
	err := r.q.Select(&passengers, `
		SELECT b.booking_id, b.passenger_id, p.display_name, p.email,
		       b.status, b.boarded_at
		FROM bookings b
		JOIN passengers p ON p.passenger_id = b.passenger_id
		WHERE b.trip_id = $1 AND b.status IN ('CONFIRMED', 'BOARDED')
		ORDER BY p.display_name ASC
	`, tripID)
	return passengers, err
}
