package services

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/coord"
	"github.com/campustransit/bus-reservation-backend/internal/database"
	"github.com/campustransit/bus-reservation-backend/internal/models"
	"github.com/campustransit/bus-reservation-backend/pkg/token"
)

// boardingTokenGrace is how long a boarding token stays valid past departure,
// covering delayed buses and late scans.
const boardingTokenGrace = 24 * time.Hour

// conflictRetries bounds internal retries of serialization conflicts before
// they surface as a concurrency failure. Attempts = 1 initial + 2 retries.
const conflictRetries = 3

// BookingStore is the persistence surface the booking engine depends on.
type BookingStore interface {
	GetPassenger(passengerID string) (*models.Passenger, error)
	GetTrip(tripID string) (*models.Trip, error)
	GetBooking(bookingID string) (*models.Booking, error)
	FindLiveBooking(passengerID, tripID string) (*models.Booking, error)
	FindLiveBookingByDirection(passengerID string, direction models.Direction) (*models.Booking, error)
	InTx(ctx context.Context, fn func(tx database.Tx) error) error
}

// BookingResult is the outcome of a book call: either a confirmed seat with
// its boarding token, or a waitlist slot with its position.
type BookingResult struct {
	BookingID        string               `json:"bookingId"`
	Status           models.BookingStatus `json:"status"`
	BoardingToken    *string              `json:"boardingToken,omitempty"`
	WaitlistPosition *int                 `json:"waitlistPosition,omitempty"`
}

// CancelResult reports a cancellation and the waitlist entry it promoted,
// if any.
type CancelResult struct {
	BookingID         string
	PromotedBookingID *string
}

// BookingService implements seat allocation and waitlist management. All
// writes happen inside a single serializable transaction guarded by a
// short-TTL per-trip lock; the lock provides fairness, the transaction
// provides correctness.
type BookingService struct {
	store   BookingStore
	locker  coord.Locker
	tokens  *token.Service
	lockTTL time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(store BookingStore, locker coord.Locker, tokens *token.Service, lockTTL time.Duration, logger *logrus.Logger) *BookingService {
	return &BookingService{
		store:   store,
		locker:  locker,
		tokens:  tokens,
		lockTTL: lockTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// Book admits the passenger onto the trip or appends them to its waitlist.
func (s *BookingService) Book(ctx context.Context, passengerID, tripID string) (*BookingResult, error) {
	now := s.now()

	passenger, err := s.store.GetPassenger(passengerID)
	if err != nil {
		return nil, fmt.Errorf("load passenger: %w", err)
	}
	if passenger == nil {
		return nil, ErrNotFound
	}
	if passenger.IsBlocked(now) {
		return nil, ErrBlocked
	}

	trip, err := s.store.GetTrip(tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if trip == nil || trip.Status != models.TripStatusActive || trip.IsPastDeparture(now) {
		return nil, ErrTripUnavailable
	}

	// Friendly pre-checks outside the lock; the transaction re-checks
	// authoritatively.
	if existing, err := s.store.FindLiveBooking(passengerID, tripID); err != nil {
		return nil, fmt.Errorf("check trip uniqueness: %w", err)
	} else if existing != nil {
		return nil, ErrDuplicateForTrip
	}
	if existing, err := s.store.FindLiveBookingByDirection(passengerID, trip.Direction); err != nil {
		return nil, fmt.Errorf("check direction uniqueness: %w", err)
	} else if existing != nil {
		return nil, ErrDuplicateForDirection
	}

	lockKey := coord.BookKey(tripID)
	acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	if !acquired {
		return nil, ErrConcurrentRequest
	}
	defer s.release(ctx, lockKey)

	var result *BookingResult
	err = retry.Do(
		func() error {
			result = nil
			return s.store.InTx(ctx, func(tx database.Tx) error {
				r, err := s.bookInTx(tx, passenger, trip, now)
				if err != nil {
					return err
				}
				result = r
				return nil
			})
		},
		retry.Attempts(conflictRetries),
		retry.Delay(25*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(database.IsSerializationFailure),
	)
	if err != nil {
		if database.IsSerializationFailure(err) {
			return nil, ErrConcurrentRequest
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   result.BookingID,
		"passenger_id": passengerID,
		"trip_id":      tripID,
		"status":       result.Status,
	}).Info("booking created")
	return result, nil
}

func (s *BookingService) bookInTx(tx database.Tx, passenger *models.Passenger, trip *models.Trip, now time.Time) (*BookingResult, error) {
	if existing, err := tx.FindLiveBooking(passenger.PassengerID, trip.TripID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicateForTrip
	}
	if existing, err := tx.FindLiveBookingByDirection(passenger.PassengerID, trip.Direction); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicateForDirection
	}

	seated, err := tx.CountSeated(trip.TripID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		BookingID:   models.NewBookingID(),
		PassengerID: passenger.PassengerID,
		TripID:      trip.TripID,
		Direction:   trip.Direction,
	}

	if seated < trip.StudentSeats() {
		boardingToken, err := s.tokens.GenerateBoardingToken(
			booking.BookingID, trip.TripID, passenger.PassengerID,
			trip.DepartsAt().Add(boardingTokenGrace),
		)
		if err != nil {
			return nil, fmt.Errorf("mint boarding token: %w", err)
		}
		booking.Status = models.BookingStatusConfirmed
		booking.BoardingToken = &boardingToken
	} else {
		maxPos, err := tx.MaxWaitlistPosition(trip.TripID)
		if err != nil {
			return nil, err
		}
		position := maxPos + 1
		booking.Status = models.BookingStatusWaitlist
		booking.WaitlistPosition = &position
	}

	if err := tx.InsertBooking(booking); err != nil {
		// A racing writer that slipped past the pre-checks trips one of the
		// partial unique indexes here.
		switch {
		case database.IsUniqueViolation(err, "uq_bookings_passenger_trip"):
			return nil, ErrDuplicateForTrip
		case database.IsUniqueViolation(err, "uq_bookings_passenger_direction"):
			return nil, ErrDuplicateForDirection
		}
		return nil, err
	}

	return &BookingResult{
		BookingID:        booking.BookingID,
		Status:           booking.Status,
		BoardingToken:    booking.BoardingToken,
		WaitlistPosition: booking.WaitlistPosition,
	}, nil
}

// Cancel voids the passenger's booking. Cancelling a confirmed seat promotes
// the head of the waitlist in the same transaction, so the freed seat can
// never be observed empty while someone is queued.
func (s *BookingService) Cancel(ctx context.Context, passengerID, bookingID string) (*CancelResult, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.PassengerID != passengerID {
		return nil, ErrForbidden
	}
	switch booking.Status {
	case models.BookingStatusCancelled:
		return nil, ErrAlreadyCancelled
	case models.BookingStatusBoarded:
		return nil, ErrBookingBoarded
	}

	lockKey := coord.CancelKey(booking.TripID)
	acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire cancel lock: %w", err)
	}
	if !acquired {
		return nil, ErrConcurrentRequest
	}
	defer s.release(ctx, lockKey)

	var result *CancelResult
	err = retry.Do(
		func() error {
			result = nil
			return s.store.InTx(ctx, func(tx database.Tx) error {
				r, err := s.cancelInTx(tx, passengerID, bookingID)
				if err != nil {
					return err
				}
				result = r
				return nil
			})
		},
		retry.Attempts(conflictRetries),
		retry.Delay(25*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(database.IsSerializationFailure),
	)
	if err != nil {
		if database.IsSerializationFailure(err) {
			return nil, ErrConcurrentRequest
		}
		return nil, err
	}

	fields := logrus.Fields{
		"booking_id":   bookingID,
		"passenger_id": passengerID,
		"trip_id":      booking.TripID,
	}
	if result.PromotedBookingID != nil {
		fields["promoted_booking_id"] = *result.PromotedBookingID
	}
	s.logger.WithFields(fields).Info("booking cancelled")
	return result, nil
}

func (s *BookingService) cancelInTx(tx database.Tx, passengerID, bookingID string) (*CancelResult, error) {
	booking, err := tx.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.PassengerID != passengerID {
		return nil, ErrForbidden
	}
	switch booking.Status {
	case models.BookingStatusCancelled:
		return nil, ErrAlreadyCancelled
	case models.BookingStatusBoarded:
		return nil, ErrBookingBoarded
	}

	if err := tx.CancelBooking(bookingID); err != nil {
		return nil, err
	}

	result := &CancelResult{BookingID: bookingID}

	// freedPosition is the slot vacated on the waitlist; every entry behind
	// it moves up one, keeping positions contiguous from 1.
	freedPosition := 0
	switch booking.Status {
	case models.BookingStatusConfirmed:
		head, err := tx.FirstWaitlisted(booking.TripID)
		if err != nil {
			return nil, err
		}
		if head == nil {
			return result, nil
		}
		trip, err := tx.GetTrip(booking.TripID)
		if err != nil {
			return nil, err
		}
		if trip == nil {
			return nil, fmt.Errorf("trip %s missing for booking %s", booking.TripID, bookingID)
		}
		boardingToken, err := s.tokens.GenerateBoardingToken(
			head.BookingID, trip.TripID, head.PassengerID,
			trip.DepartsAt().Add(boardingTokenGrace),
		)
		if err != nil {
			return nil, fmt.Errorf("mint boarding token: %w", err)
		}
		if err := tx.PromoteBooking(head.BookingID, boardingToken); err != nil {
			return nil, err
		}
		if head.WaitlistPosition != nil {
			freedPosition = *head.WaitlistPosition
		}
		result.PromotedBookingID = &head.BookingID
	case models.BookingStatusWaitlist:
		if booking.WaitlistPosition != nil {
			freedPosition = *booking.WaitlistPosition
		}
	}

	if freedPosition > 0 {
		if err := tx.ShiftWaitlist(booking.TripID, freedPosition); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *BookingService) release(ctx context.Context, key string) {
	if err := s.locker.Release(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to release lock")
	}
}
