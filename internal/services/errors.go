package services

import "errors"

// Sentinel errors returned by the service layer. The handler layer maps each
// one onto a stable failure kind and HTTP status; services never format HTTP
// responses themselves.
var (
	// Booking
	ErrBlocked               = errors.New("passenger is blocked from booking")
	ErrTripUnavailable       = errors.New("trip is cancelled or already departed")
	ErrDuplicateForTrip      = errors.New("passenger already holds a booking for this trip")
	ErrDuplicateForDirection = errors.New("passenger already holds a booking for this direction")
	ErrConcurrentRequest     = errors.New("another request for this trip is in flight")
	ErrAlreadyCancelled      = errors.New("booking is already cancelled")
	ErrBookingBoarded        = errors.New("booking has already been boarded")

	// Boarding
	ErrInvalidToken   = errors.New("boarding token is invalid")
	ErrWrongTrip      = errors.New("boarding token was issued for a different trip")
	ErrConcurrentScan = errors.New("another scan of this booking is in flight")
	ErrNotEligible    = errors.New("booking is not eligible for boarding")

	// Identity
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("caller does not own this resource")
	ErrBadCredentials   = errors.New("invalid credentials")
	ErrAccountSuspended = errors.New("operator account is not active")
	ErrDomainNotAllowed = errors.New("email domain is not allowed")

	// Operations
	ErrTripAlreadyActive    = errors.New("trip already has an assignment in progress")
	ErrCommentsRequired     = errors.New("comments are required for this reason")
	ErrInvalidReason        = errors.New("unknown report reason")
	ErrInvalidCoordinate    = errors.New("coordinate out of range")
	ErrTelemetryUnavailable = errors.New("telemetry channel unavailable")
	ErrValidation           = errors.New("request failed validation")
)
