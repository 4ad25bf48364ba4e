package services

import (
	"context"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/campustransit/bus-reservation-backend/internal/database"
	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// fakeStore is an in-memory stand-in for database.Store. Transactions are
// simulated by handing out a view over the same maps; the partial unique
// indexes and the at-most-one-live-assignment rule are emulated so the
// engines' violation handling can be exercised.
type fakeStore struct {
	passengers  map[string]*models.Passenger
	trips       map[string]*models.Trip
	bookings    map[string]*models.Booking
	operators   map[string]*models.Operator
	assignments map[string]*models.TripAssignment
	reports     map[string]*models.MisconductReport

	// txErrs are returned by successive InTx calls before fn runs,
	// simulating serialization conflicts.
	txErrs []error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		passengers:  make(map[string]*models.Passenger),
		trips:       make(map[string]*models.Trip),
		bookings:    make(map[string]*models.Booking),
		operators:   make(map[string]*models.Operator),
		assignments: make(map[string]*models.TripAssignment),
		reports:     make(map[string]*models.MisconductReport),
	}
}

func serializationFailure() error {
	return &pq.Error{Code: "40001"}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx database.Tx) error) error {
	if len(f.txErrs) > 0 {
		err := f.txErrs[0]
		f.txErrs = f.txErrs[1:]
		if err != nil {
			return err
		}
	}
	return fn(&fakeTx{f})
}

func (f *fakeStore) GetPassenger(passengerID string) (*models.Passenger, error) {
	return f.passengers[passengerID], nil
}

func (f *fakeStore) GetPassengerByEmail(email string) (*models.Passenger, error) {
	for _, p := range f.passengers {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreatePassenger(p *models.Passenger) error {
	p.CreatedAt = time.Now()
	f.passengers[p.PassengerID] = p
	return nil
}

func (f *fakeStore) UpdatePassengerProfile(passengerID, room, phone string) error {
	p, ok := f.passengers[passengerID]
	if !ok {
		return ErrNotFound
	}
	p.Room = &room
	p.Phone = &phone
	return nil
}

func (f *fakeStore) GetTrip(tripID string) (*models.Trip, error) {
	return f.trips[tripID], nil
}

func (f *fakeStore) CreateTrip(t *models.Trip) error {
	t.CreatedAt = time.Now()
	f.trips[t.TripID] = t
	return nil
}

func (f *fakeStore) ListActiveTrips(direction models.Direction, date time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	for _, t := range f.trips {
		if t.Direction == direction && t.Status == models.TripStatusActive && t.TripDate.Equal(date) {
			trips = append(trips, *t)
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].DepartureTime < trips[j].DepartureTime })
	return trips, nil
}

func (f *fakeStore) ListActiveTripsForDate(date time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	for _, t := range f.trips {
		if t.Status == models.TripStatusActive && t.TripDate.Equal(date) {
			trips = append(trips, *t)
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].DepartureTime < trips[j].DepartureTime })
	return trips, nil
}

func (f *fakeStore) GetBooking(bookingID string) (*models.Booking, error) {
	return f.bookings[bookingID], nil
}

func (f *fakeStore) FindLiveBooking(passengerID, tripID string) (*models.Booking, error) {
	return (&fakeTx{f}).FindLiveBooking(passengerID, tripID)
}

func (f *fakeStore) FindLiveBookingByDirection(passengerID string, direction models.Direction) (*models.Booking, error) {
	return (&fakeTx{f}).FindLiveBookingByDirection(passengerID, direction)
}

func (f *fakeStore) CountSeated(tripID string) (int, error) {
	return (&fakeTx{f}).CountSeated(tripID)
}

func (f *fakeStore) CountWaitlisted(tripID string) (int, error) {
	count := 0
	for _, b := range f.bookings {
		if b.TripID == tripID && b.Status == models.BookingStatusWaitlist {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) BookingHistory(passengerID string) ([]models.BookingSummary, error) {
	return f.summaries(passengerID, true), nil
}

func (f *fakeStore) ActiveBookings(passengerID string) ([]models.BookingSummary, error) {
	return f.summaries(passengerID, false), nil
}

func (f *fakeStore) summaries(passengerID string, includeCancelled bool) []models.BookingSummary {
	var result []models.BookingSummary
	for _, b := range f.bookings {
		if b.PassengerID != passengerID {
			continue
		}
		if !includeCancelled && b.Status == models.BookingStatusCancelled {
			continue
		}
		summary := models.BookingSummary{
			BookingID:        b.BookingID,
			TripID:           b.TripID,
			Status:           b.Status,
			WaitlistPosition: b.WaitlistPosition,
			BoardingToken:    b.BoardingToken,
			Direction:        b.Direction,
			CreatedAt:        b.CreatedAt,
			BoardedAt:        b.BoardedAt,
		}
		if trip := f.trips[b.TripID]; trip != nil {
			summary.Destination = trip.Destination
			summary.TripDate = trip.TripDate
			summary.DepartureTime = trip.DepartureTime
		}
		result = append(result, summary)
	}
	return result
}

func (f *fakeStore) TripPassengers(tripID string) ([]models.TripPassenger, error) {
	var result []models.TripPassenger
	for _, b := range f.bookings {
		if b.TripID != tripID || !b.OccupiesSeat() {
			continue
		}
		row := models.TripPassenger{
			BookingID:   b.BookingID,
			PassengerID: b.PassengerID,
			Status:      b.Status,
			BoardedAt:   b.BoardedAt,
		}
		if p := f.passengers[b.PassengerID]; p != nil {
			row.DisplayName = p.DisplayName
			row.Email = p.Email
		}
		result = append(result, row)
	}
	return result, nil
}

func (f *fakeStore) GetOperator(operatorID string) (*models.Operator, error) {
	return f.operators[operatorID], nil
}

func (f *fakeStore) GetOperatorByEmployeeID(employeeID string) (*models.Operator, error) {
	for _, o := range f.operators {
		if o.EmployeeID == employeeID {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateOperatorLastLogin(operatorID string, at time.Time) error {
	if o, ok := f.operators[operatorID]; ok {
		o.LastLoginAt = &at
	}
	return nil
}

func (f *fakeStore) FindInProgressAssignment(tripID string) (*models.TripAssignment, error) {
	return (&fakeTx{f}).FindInProgressAssignment(tripID)
}

func (f *fakeStore) FindLatestAssignment(tripID, operatorID string) (*models.TripAssignment, error) {
	var latest *models.TripAssignment
	for _, a := range f.assignments {
		if a.TripID != tripID || a.OperatorID != operatorID {
			continue
		}
		if latest == nil || a.AssignedAt.After(latest.AssignedAt) {
			latest = a
		}
	}
	return latest, nil
}

func (f *fakeStore) CreateReport(report *models.MisconductReport) error {
	report.ReportedAt = time.Now()
	f.reports[report.ReportID] = report
	return nil
}

// fakeTx implements database.Tx over the fakeStore maps.
type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) GetTrip(tripID string) (*models.Trip, error) {
	return t.s.trips[tripID], nil
}

func (t *fakeTx) UpdateTripStatus(tripID string, status models.TripStatus) error {
	trip, ok := t.s.trips[tripID]
	if !ok {
		return ErrNotFound
	}
	trip.Status = status
	return nil
}

func (t *fakeTx) GetBooking(bookingID string) (*models.Booking, error) {
	// Return a snapshot, as a real row scan would: later writes in the same
	// tx must not mutate a previously read booking.
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	snapshot := *b
	return &snapshot, nil
}

func (t *fakeTx) GetBookingForTrip(bookingID, tripID string) (*models.Booking, error) {
	b, ok := t.s.bookings[bookingID]
	if !ok || b.TripID != tripID {
		return nil, nil
	}
	return b, nil
}

func (t *fakeTx) FindLiveBooking(passengerID, tripID string) (*models.Booking, error) {
	for _, b := range t.s.bookings {
		if b.PassengerID == passengerID && b.TripID == tripID && b.IsLive() {
			return b, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) FindLiveBookingByDirection(passengerID string, direction models.Direction) (*models.Booking, error) {
	for _, b := range t.s.bookings {
		if b.PassengerID == passengerID && b.Direction == direction && b.IsLive() {
			return b, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) CountSeated(tripID string) (int, error) {
	count := 0
	for _, b := range t.s.bookings {
		if b.TripID == tripID && b.OccupiesSeat() {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) MaxWaitlistPosition(tripID string) (int, error) {
	max := 0
	for _, b := range t.s.bookings {
		if b.TripID == tripID && b.Status == models.BookingStatusWaitlist &&
			b.WaitlistPosition != nil && *b.WaitlistPosition > max {
			max = *b.WaitlistPosition
		}
	}
	return max, nil
}

func (t *fakeTx) InsertBooking(booking *models.Booking) error {
	if existing, _ := t.FindLiveBooking(booking.PassengerID, booking.TripID); existing != nil {
		return &pq.Error{Code: "23505", Constraint: "uq_bookings_passenger_trip"}
	}
	if existing, _ := t.FindLiveBookingByDirection(booking.PassengerID, booking.Direction); existing != nil {
		return &pq.Error{Code: "23505", Constraint: "uq_bookings_passenger_direction"}
	}
	booking.CreatedAt = time.Now()
	t.s.bookings[booking.BookingID] = booking
	return nil
}

func (t *fakeTx) CancelBooking(bookingID string) error {
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	b.Status = models.BookingStatusCancelled
	b.WaitlistPosition = nil
	return nil
}

func (t *fakeTx) FirstWaitlisted(tripID string) (*models.Booking, error) {
	var head *models.Booking
	for _, b := range t.s.bookings {
		if b.TripID != tripID || b.Status != models.BookingStatusWaitlist || b.WaitlistPosition == nil {
			continue
		}
		if head == nil ||
			*b.WaitlistPosition < *head.WaitlistPosition ||
			(*b.WaitlistPosition == *head.WaitlistPosition && b.CreatedAt.Before(head.CreatedAt)) {
			head = b
		}
	}
	return head, nil
}

func (t *fakeTx) PromoteBooking(bookingID, boardingToken string) error {
	b, ok := t.s.bookings[bookingID]
	if !ok || b.Status != models.BookingStatusWaitlist {
		return ErrNotFound
	}
	b.Status = models.BookingStatusConfirmed
	b.BoardingToken = &boardingToken
	b.WaitlistPosition = nil
	return nil
}

func (t *fakeTx) ShiftWaitlist(tripID string, abovePosition int) error {
	for _, b := range t.s.bookings {
		if b.TripID == tripID && b.Status == models.BookingStatusWaitlist &&
			b.WaitlistPosition != nil && *b.WaitlistPosition > abovePosition {
			next := *b.WaitlistPosition - 1
			b.WaitlistPosition = &next
		}
	}
	return nil
}

func (t *fakeTx) MarkBoarded(bookingID string, at time.Time) error {
	b, ok := t.s.bookings[bookingID]
	if !ok || b.Status != models.BookingStatusConfirmed {
		return ErrNotFound
	}
	b.Status = models.BookingStatusBoarded
	b.BoardedAt = &at
	return nil
}

func (t *fakeTx) FindInProgressAssignment(tripID string) (*models.TripAssignment, error) {
	for _, a := range t.s.assignments {
		if a.TripID == tripID && a.Status == models.AssignmentStatusInProgress {
			return a, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) InsertAssignment(a *models.TripAssignment) error {
	if live, _ := t.FindInProgressAssignment(a.TripID); live != nil {
		return &pq.Error{Code: "23505", Constraint: "uq_assignments_trip_in_progress"}
	}
	a.AssignedAt = time.Now()
	t.s.assignments[a.AssignmentID] = a
	return nil
}

func (t *fakeTx) CompleteAssignment(assignmentID string, at time.Time) error {
	a, ok := t.s.assignments[assignmentID]
	if !ok || a.Status != models.AssignmentStatusInProgress {
		return ErrNotFound
	}
	a.Status = models.AssignmentStatusCompleted
	a.CompletedAt = &at
	return nil
}

// fakeLocker implements coord.Locker in memory. Pre-populating held makes a
// key look taken by someone else.
type fakeLocker struct {
	held     map[string]bool
	acquired []string
	released []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *fakeLocker) Release(ctx context.Context, key string) error {
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

// fakePublisher records telemetry payloads.
type fakePublisher struct {
	published map[string][][]byte
	err       error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][][]byte)}
}

func (p *fakePublisher) Publish(ctx context.Context, tripID string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published[tripID] = append(p.published[tripID], payload)
	return nil
}

// fakeUploader records evidence uploads.
type fakeUploader struct {
	keys []string
	body [][]byte
	err  error
}

func (u *fakeUploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	u.body = append(u.body, body)
	return "https://evidence.test/" + key, nil
}
