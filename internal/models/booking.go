package models

import "time"

// BookingStatus represents the state of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusWaitlist  BookingStatus = "WAITLIST"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusBoarded   BookingStatus = "BOARDED"
)

// Booking represents a passenger's claim on a seat of a trip.
//
// Direction is denormalized from the trip row so the partial unique index
// enforcing one live booking per passenger per direction can live on this
// table alone.
type Booking struct {
	BookingID        string        `json:"booking_id" db:"booking_id"`
	PassengerID      string        `json:"passenger_id" db:"passenger_id"`
	TripID           string        `json:"trip_id" db:"trip_id"`
	Direction        Direction     `json:"direction" db:"direction"`
	Status           BookingStatus `json:"status" db:"status"`
	BoardingToken    *string       `json:"boarding_token,omitempty" db:"boarding_token"`
	WaitlistPosition *int          `json:"waitlist_position,omitempty" db:"waitlist_position"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	BoardedAt        *time.Time    `json:"boarded_at,omitempty" db:"boarded_at"`
}

// IsTerminal reports whether the booking can no longer change seats.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled
}

// IsLive reports whether the booking counts against uniqueness constraints.
func (b *Booking) IsLive() bool {
	return b.Status != BookingStatusCancelled
}

// OccupiesSeat reports whether the booking consumes a student seat.
func (b *Booking) OccupiesSeat() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusBoarded
}

// BookingSummary joins a booking with the trip it belongs to for history views
type BookingSummary struct {
	BookingID        string        `json:"bookingId" db:"booking_id"`
	TripID           string        `json:"tripId" db:"trip_id"`
	Status           BookingStatus `json:"status" db:"status"`
	WaitlistPosition *int          `json:"waitlistPosition,omitempty" db:"waitlist_position"`
	BoardingToken    *string       `json:"boardingToken,omitempty" db:"boarding_token"`
	Direction        Direction     `json:"direction" db:"direction"`
	Destination      *string       `json:"destination,omitempty" db:"destination"`
	TripDate         time.Time     `json:"date" db:"trip_date"`
	DepartureTime    string        `json:"departureTime" db:"departure_time"`
	CreatedAt        time.Time     `json:"bookedAt" db:"created_at"`
	BoardedAt        *time.Time    `json:"boardedAt,omitempty" db:"boarded_at"`
}

// TripPassenger is one row of the operator's boarding manifest
type TripPassenger struct {
	BookingID   string        `json:"bookingId" db:"booking_id"`
	PassengerID string        `json:"passengerId" db:"passenger_id"`
	DisplayName string        `json:"displayName" db:"display_name"`
	Email       string        `json:"email" db:"email"`
	Status      BookingStatus `json:"status" db:"status"`
	BoardedAt   *time.Time    `json:"boardedAt,omitempty" db:"boarded_at"`
}
