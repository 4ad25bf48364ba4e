package models

import "time"

// Passenger represents a student account created on first federated login
type Passenger struct {
	PassengerID  string     `json:"passenger_id" db:"passenger_id"`
	Email        string     `json:"email" db:"email"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	Room         *string    `json:"room,omitempty" db:"room"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	PenaltyCount int        `json:"penalty_count" db:"penalty_count"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty" db:"blocked_until"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsBlocked reports whether the passenger is currently barred from booking.
// A passenger is blocked when they have accumulated 3 or more penalties and
// the block window has not yet expired.
func (p *Passenger) IsBlocked(now time.Time) bool {
	return p.PenaltyCount >= 3 && p.BlockedUntil != nil && p.BlockedUntil.After(now)
}

// ProfileComplete reports whether the passenger has finished onboarding.
func (p *Passenger) ProfileComplete() bool {
	return p.Room != nil && *p.Room != "" && p.Phone != nil && *p.Phone != ""
}
