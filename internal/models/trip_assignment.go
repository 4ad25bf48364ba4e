package models

import "time"

// AssignmentStatus represents the lifecycle of an operator-trip assignment
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "ASSIGNED"
	AssignmentStatusInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentStatusCompleted  AssignmentStatus = "COMPLETED"
	AssignmentStatusCancelled  AssignmentStatus = "CANCELLED"
)

// TripAssignment binds an operator to a trip for a single run.
// At most one IN_PROGRESS assignment may exist per trip.
type TripAssignment struct {
	AssignmentID string           `json:"assignment_id" db:"assignment_id"`
	TripID       string           `json:"trip_id" db:"trip_id"`
	OperatorID   string           `json:"operator_id" db:"operator_id"`
	BusLabel     string           `json:"bus_label" db:"bus_label"`
	AssignedAt   time.Time        `json:"assigned_at" db:"assigned_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	Status       AssignmentStatus `json:"status" db:"status"`
}

// IsInProgress reports whether the assignment is the trip's live run.
func (a *TripAssignment) IsInProgress() bool {
	return a.Status == AssignmentStatusInProgress
}

// DerivedTripStatus is the per-operator status shown in the day's trip list
type DerivedTripStatus string

const (
	DerivedTripUpcoming   DerivedTripStatus = "UPCOMING"
	DerivedTripInProgress DerivedTripStatus = "IN_PROGRESS"
	DerivedTripCompleted  DerivedTripStatus = "COMPLETED"
)

// OperatorTrip is one entry of an operator's daily trip list
type OperatorTrip struct {
	TripID        string            `json:"tripId"`
	Direction     Direction         `json:"direction"`
	Destination   *string           `json:"destination,omitempty"`
	BusLabel      *string           `json:"busLabel,omitempty"`
	DepartureTime string            `json:"departureTime"`
	Capacity      int               `json:"capacity"`
	BookedCount   int               `json:"bookedCount"`
	Status        DerivedTripStatus `json:"status"`
	AssignmentID  *string           `json:"assignmentId,omitempty"`
}
