package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustransit/bus-reservation-backend/internal/coord"
	"github.com/campustransit/bus-reservation-backend/internal/models"
)

func newTestBoardingService(store *fakeStore, locker coord.Locker) *BoardingService {
	return NewBoardingService(store, locker, testTokenService(), 30*time.Second, testLogger())
}

// seedConfirmedBooking places a confirmed booking with a real boarding token
// and returns the token.
func seedConfirmedBooking(t *testing.T, store *fakeStore, bookingID, passengerID, tripID string) string {
	t.Helper()
	boardingToken, err := testTokenService().GenerateBoardingToken(
		bookingID, tripID, passengerID, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	store.bookings[bookingID] = &models.Booking{
		BookingID:     bookingID,
		PassengerID:   passengerID,
		TripID:        tripID,
		Direction:     models.DirectionCampusToCity,
		Status:        models.BookingStatusConfirmed,
		BoardingToken: &boardingToken,
		CreatedAt:     time.Now(),
	}
	return boardingToken
}

func TestValidateBoarding_IsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestBoardingService(store, newFakeLocker())
	ctx := context.Background()

	boardingToken := seedConfirmedBooking(t, store, "B1", "P3", "T_A")

	first, err := svc.ValidateBoarding(ctx, boardingToken, "T_A")
	require.NoError(t, err)
	assert.True(t, first.Valid)
	assert.Equal(t, "BOARDED", first.Status)
	assert.Equal(t, "B1", first.BookingID)
	assert.Equal(t, "P3", first.PassengerID)

	require.NotNil(t, store.bookings["B1"].BoardedAt)
	boardedAt := *store.bookings["B1"].BoardedAt

	second, err := svc.ValidateBoarding(ctx, boardingToken, "T_A")
	require.NoError(t, err)
	assert.True(t, second.Valid)
	assert.Equal(t, "ALREADY_BOARDED", second.Status)

	// boardedAt is set exactly once
	assert.Equal(t, boardedAt, *store.bookings["B1"].BoardedAt)
}

func TestValidateBoarding_WrongTrip(t *testing.T) {
	store := newFakeStore()
	svc := newTestBoardingService(store, newFakeLocker())

	boardingToken := seedConfirmedBooking(t, store, "B1", "P1", "T_A")

	_, err := svc.ValidateBoarding(context.Background(), boardingToken, "T_B")
	assert.ErrorIs(t, err, ErrWrongTrip)

	// Booking unchanged
	assert.Equal(t, models.BookingStatusConfirmed, store.bookings["B1"].Status)
	assert.Nil(t, store.bookings["B1"].BoardedAt)
}

func TestValidateBoarding_RejectsBadTokens(t *testing.T) {
	store := newFakeStore()
	svc := newTestBoardingService(store, newFakeLocker())
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateBoarding(ctx, "not-a-token", "T_A")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong kind", func(t *testing.T) {
		sessionToken, err := testTokenService().GeneratePassengerToken("P1", "p1@campus.edu")
		require.NoError(t, err)
		_, err = svc.ValidateBoarding(ctx, sessionToken, "T_A")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := testTokenService().GenerateBoardingToken("B1", "T_A", "P1", time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = svc.ValidateBoarding(ctx, expired, "T_A")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateBoarding_UnknownBooking(t *testing.T) {
	store := newFakeStore()
	svc := newTestBoardingService(store, newFakeLocker())

	orphan, err := testTokenService().GenerateBoardingToken("B_GONE", "T_A", "P1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateBoarding(context.Background(), orphan, "T_A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateBoarding_NotEligible(t *testing.T) {
	store := newFakeStore()
	svc := newTestBoardingService(store, newFakeLocker())

	boardingToken := seedConfirmedBooking(t, store, "B1", "P1", "T_A")
	store.bookings["B1"].Status = models.BookingStatusWaitlist

	_, err := svc.ValidateBoarding(context.Background(), boardingToken, "T_A")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestValidateBoarding_ConcurrentScan(t *testing.T) {
	store := newFakeStore()
	locker := newFakeLocker()
	svc := newTestBoardingService(store, locker)

	boardingToken := seedConfirmedBooking(t, store, "B1", "P1", "T_A")
	locker.held[coord.ScanKey("B1")] = true

	_, err := svc.ValidateBoarding(context.Background(), boardingToken, "T_A")
	assert.ErrorIs(t, err, ErrConcurrentScan)
	assert.Equal(t, models.BookingStatusConfirmed, store.bookings["B1"].Status)
}
