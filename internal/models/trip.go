package models

import (
	"errors"
	"fmt"
	"time"
)

// Direction identifies which way a trip travels
type Direction string

const (
	DirectionCampusToCity Direction = "CAMPUS_TO_CITY"
	DirectionCityToCampus Direction = "CITY_TO_CAMPUS"
)

// ValidDirection reports whether s is a recognised trip direction.
func ValidDirection(s string) bool {
	return Direction(s) == DirectionCampusToCity || Direction(s) == DirectionCityToCampus
}

// TripStatus represents the lifecycle status of a trip
type TripStatus string

const (
	TripStatusActive    TripStatus = "ACTIVE"
	TripStatusCancelled TripStatus = "CANCELLED"
	TripStatusCompleted TripStatus = "COMPLETED"
)

// DayClass distinguishes weekday and weekend schedules
type DayClass string

const (
	DayClassWeekday DayClass = "WEEKDAY"
	DayClassWeekend DayClass = "WEEKEND"
)

const (
	// MaxCapacity is the hard limit on seats per bus.
	MaxCapacity = 50
	// DefaultCapacity is used when a trip is created without an explicit capacity.
	DefaultCapacity = 35
	// DefaultFacultyReserved seats are deducted from student availability.
	DefaultFacultyReserved = 5
)

// Trip represents a scheduled bus run on a given date and direction
type Trip struct {
	TripID          string     `json:"trip_id" db:"trip_id"`
	Direction       Direction  `json:"direction" db:"direction"`
	Destination     *string    `json:"destination,omitempty" db:"destination"`
	BusLabel        *string    `json:"bus_label,omitempty" db:"bus_label"`
	TripDate        time.Time  `json:"trip_date" db:"trip_date"`
	DepartureTime   string     `json:"departure_time" db:"departure_time"`
	Capacity        int        `json:"capacity" db:"capacity"`
	FacultyReserved int        `json:"faculty_reserved" db:"faculty_reserved"`
	Status          TripStatus `json:"status" db:"status"`
	DayClass        DayClass   `json:"day_class" db:"day_class"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// StudentSeats returns the number of seats bookable by passengers after the
// faculty reservation is deducted.
func (t *Trip) StudentSeats() int {
	return t.Capacity - t.FacultyReserved
}

// DepartsAt combines the trip date and departure time into a single instant.
// DepartureTime is stored as "HH:MM:SS" (postgres time column).
func (t *Trip) DepartsAt() time.Time {
	parsed, err := time.Parse("15:04:05", t.DepartureTime)
	if err != nil {
		// Some drivers return HH:MM for time columns
		parsed, err = time.Parse("15:04", t.DepartureTime)
		if err != nil {
			return t.TripDate
		}
	}
	return time.Date(
		t.TripDate.Year(), t.TripDate.Month(), t.TripDate.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, t.TripDate.Location(),
	)
}

// IsPastDeparture reports whether the trip has already departed.
func (t *Trip) IsPastDeparture(now time.Time) bool {
	return t.DepartsAt().Before(now)
}

// CreateTripRequest represents the admin request to create a trip
type CreateTripRequest struct {
	Direction       string  `json:"direction" binding:"required"`
	Destination     *string `json:"destination,omitempty"`
	BusLabel        *string `json:"busLabel,omitempty"`
	TripDate        string  `json:"date" binding:"required"`
	DepartureTime   string  `json:"departureTime" binding:"required"`
	Capacity        *int    `json:"capacity,omitempty"`
	FacultyReserved *int    `json:"facultyReserved,omitempty"`
	DayClass        *string `json:"dayClass,omitempty"`
}

// Validate checks the create trip request against the capacity rules.
func (r *CreateTripRequest) Validate(now time.Time) error {
	if !ValidDirection(r.Direction) {
		return fmt.Errorf("direction must be %s or %s", DirectionCampusToCity, DirectionCityToCampus)
	}
	date, err := time.Parse("2006-01-02", r.TripDate)
	if err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse("15:04", r.DepartureTime); err != nil {
		if _, err := time.Parse("15:04:05", r.DepartureTime); err != nil {
			return errors.New("departureTime must be in HH:MM format")
		}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return errors.New("cannot create trips for past dates")
	}
	capacity := DefaultCapacity
	if r.Capacity != nil {
		capacity = *r.Capacity
	}
	if capacity < 1 || capacity > MaxCapacity {
		return fmt.Errorf("capacity must be between 1 and %d", MaxCapacity)
	}
	reserved := DefaultFacultyReserved
	if r.FacultyReserved != nil {
		reserved = *r.FacultyReserved
	}
	if reserved < 0 || reserved > capacity/2 {
		return errors.New("faculty reserved seats cannot exceed half of capacity")
	}
	if r.DayClass != nil && *r.DayClass != string(DayClassWeekday) && *r.DayClass != string(DayClassWeekend) {
		return errors.New("dayClass must be WEEKDAY or WEEKEND")
	}
	return nil
}

// TripAvailability is the passenger-facing view of a bookable trip
type TripAvailability struct {
	TripID         string    `json:"tripId"`
	Direction      Direction `json:"direction"`
	Destination    *string   `json:"destination,omitempty"`
	BusLabel       *string   `json:"busLabel,omitempty"`
	DepartureTime  string    `json:"departureTime"`
	Capacity       int       `json:"capacity"`
	BookedCount    int       `json:"bookedCount"`
	WaitlistCount  int       `json:"waitlistCount"`
	AvailableSeats int       `json:"availableSeats"`
	DayClass       DayClass  `json:"dayClass"`
}
