package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

func newMockRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewBookingRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() }
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"booking_id", "passenger_id", "trip_id", "direction", "status",
		"boarding_token", "waitlist_position", "created_at", "boarded_at",
	})
}

func TestBookingRepositoryCreate(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		booking := &models.Booking{
			BookingID:   "B12345678",
			PassengerID: "S12345678",
			TripID:      "T12345678",
			Direction:   models.DirectionCampusToCity,
			Status:      models.BookingStatusConfirmed,
		}

		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(booking.BookingID, booking.PassengerID, booking.TripID,
				booking.Direction, booking.Status, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		err := repo.Create(booking)
		require.NoError(t, err)
		assert.Equal(t, now, booking.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique Violation", func(t *testing.T) {
		booking := &models.Booking{
			BookingID:   "B12345678",
			PassengerID: "S12345678",
			TripID:      "T12345678",
			Direction:   models.DirectionCampusToCity,
			Status:      models.BookingStatusConfirmed,
		}

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		err := repo.Create(booking)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepositoryFindLive(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM bookings\s+WHERE passenger_id = \$1 AND trip_id = \$2 AND status <> 'CANCELLED'`).
			WithArgs("S12345678", "T12345678").
			WillReturnRows(bookingRows().AddRow(
				"B12345678", "S12345678", "T12345678", "CAMPUS_TO_CITY", "CONFIRMED",
				"signed-token", nil, time.Now(), nil,
			))

		booking, err := repo.FindLiveByPassengerAndTrip("S12345678", "T12345678")
		require.NoError(t, err)
		require.NotNil(t, booking)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		require.NotNil(t, booking.BoardingToken)
		assert.Equal(t, "signed-token", *booking.BoardingToken)
	})

	t.Run("No Rows Means Nil Not Error", func(t *testing.T) {
		mock.ExpectQuery(`FROM bookings`).
			WithArgs("S12345678", "T99999999").
			WillReturnRows(bookingRows())

		booking, err := repo.FindLiveByPassengerAndTrip("S12345678", "T99999999")
		require.NoError(t, err)
		assert.Nil(t, booking)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCounts(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	t.Run("CountSeated", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings\s+WHERE trip_id = \$1 AND status IN \('CONFIRMED', 'BOARDED'\)`).
			WithArgs("T12345678").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

		count, err := repo.CountSeated("T12345678")
		require.NoError(t, err)
		assert.Equal(t, 17, count)
	})

	t.Run("MaxWaitlistPosition Empty Waitlist", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(waitlist_position\), 0\) FROM bookings`).
			WithArgs("T12345678").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		max, err := repo.MaxWaitlistPosition("T12345678")
		require.NoError(t, err)
		assert.Zero(t, max)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryWaitlistOps(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	t.Run("FirstWaitlisted Orders By Position Then Age", func(t *testing.T) {
		mock.ExpectQuery(`ORDER BY waitlist_position ASC, created_at ASC\s+LIMIT 1`).
			WithArgs("T12345678").
			WillReturnRows(bookingRows().AddRow(
				"B00000001", "S00000001", "T12345678", "CAMPUS_TO_CITY", "WAITLIST",
				nil, 1, time.Now(), nil,
			))

		head, err := repo.FirstWaitlisted("T12345678")
		require.NoError(t, err)
		require.NotNil(t, head)
		require.NotNil(t, head.WaitlistPosition)
		assert.Equal(t, 1, *head.WaitlistPosition)
	})

	t.Run("Promote", func(t *testing.T) {
		mock.ExpectExec(`SET status = 'CONFIRMED', boarding_token = \$2, waitlist_position = NULL`).
			WithArgs("B00000001", "fresh-token").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Promote("B00000001", "fresh-token")
		assert.NoError(t, err)
	})

	t.Run("ShiftWaitlist", func(t *testing.T) {
		mock.ExpectExec(`SET waitlist_position = waitlist_position - 1`).
			WithArgs("T12345678", 1).
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := repo.ShiftWaitlist("T12345678", 1)
		assert.NoError(t, err)
	})

	t.Run("MarkBoarded Only Touches Confirmed", func(t *testing.T) {
		at := time.Now()
		mock.ExpectExec(`SET status = 'BOARDED', boarded_at = \$2\s+WHERE booking_id = \$1 AND status = 'CONFIRMED'`).
			WithArgs("B00000001", at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkBoarded("B00000001", at)
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
