package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// Tx is the write surface handed to a function running inside Store.InTx.
// Every call sees the transaction's snapshot; the seat-allocation and
// boarding state machines run entirely against a Tx so their read-check-write
// sequences commit atomically.
type Tx interface {
	GetTrip(tripID string) (*models.Trip, error)
	UpdateTripStatus(tripID string, status models.TripStatus) error

	GetBooking(bookingID string) (*models.Booking, error)
	GetBookingForTrip(bookingID, tripID string) (*models.Booking, error)
	FindLiveBooking(passengerID, tripID string) (*models.Booking, error)
	FindLiveBookingByDirection(passengerID string, direction models.Direction) (*models.Booking, error)
	CountSeated(tripID string) (int, error)
	MaxWaitlistPosition(tripID string) (int, error)
	InsertBooking(booking *models.Booking) error
	CancelBooking(bookingID string) error
	FirstWaitlisted(tripID string) (*models.Booking, error)
	PromoteBooking(bookingID, boardingToken string) error
	ShiftWaitlist(tripID string, abovePosition int) error
	MarkBoarded(bookingID string, at time.Time) error

	FindInProgressAssignment(tripID string) (*models.TripAssignment, error)
	InsertAssignment(a *models.TripAssignment) error
	CompleteAssignment(assignmentID string, at time.Time) error
}

// Store aggregates the repositories behind a single dependency the services
// take. Reads outside a transaction go through the embedded repositories;
// multi-statement writes go through InTx.
type Store struct {
	db DB

	passengers  *PassengerRepository
	trips       *TripRepository
	bookings    *BookingRepository
	operators   *OperatorRepository
	assignments *AssignmentRepository
	reports     *ReportRepository
}

// NewStore creates a Store over an open connection pool
func NewStore(db DB) *Store {
	return &Store{
		db:          db,
		passengers:  NewPassengerRepository(db),
		trips:       NewTripRepository(db),
		bookings:    NewBookingRepository(db),
		operators:   NewOperatorRepository(db),
		assignments: NewAssignmentRepository(db),
		reports:     NewReportRepository(db),
	}
}

// InTx runs fn inside a serializable transaction, committing when fn returns
// nil and rolling back otherwise. Serialization conflicts surface as the
// driver error; callers decide whether to retry.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txs := &txStore{
		trips:       NewTripRepository(sqlTx),
		bookings:    NewBookingRepository(sqlTx),
		assignments: NewAssignmentRepository(sqlTx),
	}

	if err := fn(txs); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements Tx over repositories bound to one open transaction.
type txStore struct {
	trips       *TripRepository
	bookings    *BookingRepository
	assignments *AssignmentRepository
}

func (t *txStore) GetTrip(tripID string) (*models.Trip, error) {
	return t.trips.GetByID(tripID)
}

func (t *txStore) UpdateTripStatus(tripID string, status models.TripStatus) error {
	return t.trips.UpdateStatus(tripID, status)
}

func (t *txStore) GetBooking(bookingID string) (*models.Booking, error) {
	return t.bookings.GetByID(bookingID)
}

func (t *txStore) GetBookingForTrip(bookingID, tripID string) (*models.Booking, error) {
	return t.bookings.GetByIDAndTrip(bookingID, tripID)
}

func (t *txStore) FindLiveBooking(passengerID, tripID string) (*models.Booking, error) {
	return t.bookings.FindLiveByPassengerAndTrip(passengerID, tripID)
}

func (t *txStore) FindLiveBookingByDirection(passengerID string, direction models.Direction) (*models.Booking, error) {
	return t.bookings.FindLiveByPassengerAndDirection(passengerID, direction)
}

func (t *txStore) CountSeated(tripID string) (int, error) {
	return t.bookings.CountSeated(tripID)
}

func (t *txStore) MaxWaitlistPosition(tripID string) (int, error) {
	return t.bookings.MaxWaitlistPosition(tripID)
}

func (t *txStore) InsertBooking(booking *models.Booking) error {
	return t.bookings.Create(booking)
}

func (t *txStore) CancelBooking(bookingID string) error {
	return t.bookings.Cancel(bookingID)
}

func (t *txStore) FirstWaitlisted(tripID string) (*models.Booking, error) {
	return t.bookings.FirstWaitlisted(tripID)
}

func (t *txStore) PromoteBooking(bookingID, boardingToken string) error {
	return t.bookings.Promote(bookingID, boardingToken)
}

func (t *txStore) ShiftWaitlist(tripID string, abovePosition int) error {
	return t.bookings.ShiftWaitlist(tripID, abovePosition)
}

func (t *txStore) MarkBoarded(bookingID string, at time.Time) error {
	return t.bookings.MarkBoarded(bookingID, at)
}

func (t *txStore) FindInProgressAssignment(tripID string) (*models.TripAssignment, error) {
	return t.assignments.FindInProgressByTrip(tripID)
}

func (t *txStore) InsertAssignment(a *models.TripAssignment) error {
	return t.assignments.Create(a)
}

func (t *txStore) CompleteAssignment(assignmentID string, at time.Time) error {
	return t.assignments.Complete(assignmentID, at)
}

// Pool-level reads and writes used outside the transactional engines.

func (s *Store) GetPassenger(passengerID string) (*models.Passenger, error) {
	return s.passengers.GetByID(passengerID)
}

func (s *Store) GetPassengerByEmail(email string) (*models.Passenger, error) {
	return s.passengers.GetByEmail(email)
}

func (s *Store) CreatePassenger(p *models.Passenger) error {
	return s.passengers.Create(p)
}

func (s *Store) UpdatePassengerProfile(passengerID, room, phone string) error {
	return s.passengers.UpdateProfile(passengerID, room, phone)
}

func (s *Store) GetTrip(tripID string) (*models.Trip, error) {
	return s.trips.GetByID(tripID)
}

func (s *Store) CreateTrip(t *models.Trip) error {
	return s.trips.Create(t)
}

func (s *Store) ListActiveTrips(direction models.Direction, date time.Time) ([]models.Trip, error) {
	return s.trips.ListActiveByDirectionAndDate(direction, date)
}

func (s *Store) ListActiveTripsForDate(date time.Time) ([]models.Trip, error) {
	return s.trips.ListActiveByDate(date)
}

func (s *Store) GetBooking(bookingID string) (*models.Booking, error) {
	return s.bookings.GetByID(bookingID)
}

func (s *Store) FindLiveBooking(passengerID, tripID string) (*models.Booking, error) {
	return s.bookings.FindLiveByPassengerAndTrip(passengerID, tripID)
}

func (s *Store) FindLiveBookingByDirection(passengerID string, direction models.Direction) (*models.Booking, error) {
	return s.bookings.FindLiveByPassengerAndDirection(passengerID, direction)
}

func (s *Store) CountSeated(tripID string) (int, error) {
	return s.bookings.CountSeated(tripID)
}

func (s *Store) CountWaitlisted(tripID string) (int, error) {
	return s.bookings.CountWaitlisted(tripID)
}

func (s *Store) BookingHistory(passengerID string) ([]models.BookingSummary, error) {
	return s.bookings.HistoryByPassenger(passengerID)
}

func (s *Store) ActiveBookings(passengerID string) ([]models.BookingSummary, error) {
	return s.bookings.ActiveByPassenger(passengerID)
}

func (s *Store) TripPassengers(tripID string) ([]models.TripPassenger, error) {
	return s.bookings.PassengersByTrip(tripID)
}

func (s *Store) GetOperator(operatorID string) (*models.Operator, error) {
	return s.operators.GetByID(operatorID)
}

func (s *Store) GetOperatorByEmployeeID(employeeID string) (*models.Operator, error) {
	return s.operators.GetByEmployeeID(employeeID)
}

func (s *Store) UpdateOperatorLastLogin(operatorID string, at time.Time) error {
	return s.operators.UpdateLastLogin(operatorID, at)
}

func (s *Store) FindInProgressAssignment(tripID string) (*models.TripAssignment, error) {
	return s.assignments.FindInProgressByTrip(tripID)
}

func (s *Store) FindLatestAssignment(tripID, operatorID string) (*models.TripAssignment, error) {
	return s.assignments.FindLatestByTripAndOperator(tripID, operatorID)
}

func (s *Store) CreateReport(report *models.MisconductReport) error {
	return s.reports.Create(report)
}
