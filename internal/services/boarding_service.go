package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/coord"
	"github.com/campustransit/bus-reservation-backend/internal/database"
	"github.com/campustransit/bus-reservation-backend/internal/models"
	"github.com/campustransit/bus-reservation-backend/pkg/token"
)

// BoardingStore is the persistence surface boarding validation depends on.
type BoardingStore interface {
	InTx(ctx context.Context, fn func(tx database.Tx) error) error
}

// BoardingResult reports a scan outcome. Status is BOARDED on the first
// scan and ALREADY_BOARDED on replays; both are successes.
type BoardingResult struct {
	Valid       bool   `json:"valid"`
	Status      string `json:"status"`
	BookingID   string `json:"bookingId"`
	PassengerID string `json:"passengerId"`
}

const (
	boardingStatusBoarded        = "BOARDED"
	boardingStatusAlreadyBoarded = "ALREADY_BOARDED"
)

// BoardingService validates presented boarding tokens and transitions
// bookings to BOARDED exactly once.
type BoardingService struct {
	store   BoardingStore
	locker  coord.Locker
	tokens  *token.Service
	lockTTL time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

// NewBoardingService creates a new BoardingService
func NewBoardingService(store BoardingStore, locker coord.Locker, tokens *token.Service, lockTTL time.Duration, logger *logrus.Logger) *BoardingService {
	return &BoardingService{
		store:   store,
		locker:  locker,
		tokens:  tokens,
		lockTTL: lockTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// ValidateBoarding checks a presented token against the trip being boarded.
// Duplicate scans are suppressed by the per-booking lock and reported back
// as an advisory, never as a double count.
func (s *BoardingService) ValidateBoarding(ctx context.Context, presentedToken, tripID string) (*BoardingResult, error) {
	claims, err := s.tokens.VerifyBoardingToken(presentedToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TripID != tripID {
		return nil, ErrWrongTrip
	}
	bookingID := claims.Subject

	lockKey := coord.ScanKey(bookingID)
	acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !acquired {
		return nil, ErrConcurrentScan
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey); err != nil {
			s.logger.WithError(err).WithField("key", lockKey).Warn("failed to release scan lock")
		}
	}()

	var result *BoardingResult
	err = s.store.InTx(ctx, func(tx database.Tx) error {
		booking, err := tx.GetBookingForTrip(bookingID, tripID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrNotFound
		}
		switch booking.Status {
		case models.BookingStatusBoarded:
			result = &BoardingResult{
				Valid:       true,
				Status:      boardingStatusAlreadyBoarded,
				BookingID:   booking.BookingID,
				PassengerID: booking.PassengerID,
			}
			return nil
		case models.BookingStatusConfirmed:
			if err := tx.MarkBoarded(bookingID, s.now()); err != nil {
				return err
			}
			result = &BoardingResult{
				Valid:       true,
				Status:      boardingStatusBoarded,
				BookingID:   booking.BookingID,
				PassengerID: booking.PassengerID,
			}
			return nil
		default:
			return ErrNotEligible
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": result.BookingID,
		"trip_id":    tripID,
		"status":     result.Status,
	}).Info("boarding validated")
	return result, nil
}
