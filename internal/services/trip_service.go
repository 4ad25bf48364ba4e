package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/models"
)

// TripStore is the persistence surface trip listing and creation depend on.
type TripStore interface {
	GetTrip(tripID string) (*models.Trip, error)
	CreateTrip(t *models.Trip) error
	ListActiveTrips(direction models.Direction, date time.Time) ([]models.Trip, error)
	CountSeated(tripID string) (int, error)
	CountWaitlisted(tripID string) (int, error)
}

// TripService serves the passenger-facing availability view and the
// administrative trip creation path.
type TripService struct {
	store  TripStore
	logger *logrus.Logger
	now    func() time.Time
}

// NewTripService creates a new TripService
func NewTripService(store TripStore, logger *logrus.Logger) *TripService {
	return &TripService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// AvailableTrips lists the active trips for a direction and date with live
// seat counts. AvailableSeats never goes negative even while the waitlist
// grows.
func (s *TripService) AvailableTrips(ctx context.Context, direction models.Direction, date time.Time) ([]models.TripAvailability, error) {
	trips, err := s.store.ListActiveTrips(direction, date)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	result := make([]models.TripAvailability, 0, len(trips))
	for i := range trips {
		trip := &trips[i]

		booked, err := s.store.CountSeated(trip.TripID)
		if err != nil {
			return nil, fmt.Errorf("count booked for trip %s: %w", trip.TripID, err)
		}
		waitlisted, err := s.store.CountWaitlisted(trip.TripID)
		if err != nil {
			return nil, fmt.Errorf("count waitlist for trip %s: %w", trip.TripID, err)
		}

		available := trip.StudentSeats() - booked
		if available < 0 {
			available = 0
		}
		result = append(result, models.TripAvailability{
			TripID:         trip.TripID,
			Direction:      trip.Direction,
			Destination:    trip.Destination,
			BusLabel:       trip.BusLabel,
			DepartureTime:  trip.DepartureTime,
			Capacity:       trip.Capacity,
			BookedCount:    booked,
			WaitlistCount:  waitlisted,
			AvailableSeats: available,
			DayClass:       trip.DayClass,
		})
	}
	return result, nil
}

// CreateTrip validates and persists a new scheduled trip.
func (s *TripService) CreateTrip(ctx context.Context, req *models.CreateTripRequest) (*models.Trip, error) {
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	date, err := time.Parse("2006-01-02", req.TripDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	capacity := models.DefaultCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	reserved := models.DefaultFacultyReserved
	if req.FacultyReserved != nil {
		reserved = *req.FacultyReserved
	}
	dayClass := dayClassFor(date)
	if req.DayClass != nil {
		dayClass = models.DayClass(*req.DayClass)
	}

	trip := &models.Trip{
		TripID:          models.NewTripID(),
		Direction:       models.Direction(req.Direction),
		Destination:     req.Destination,
		BusLabel:        req.BusLabel,
		TripDate:        date,
		DepartureTime:   req.DepartureTime,
		Capacity:        capacity,
		FacultyReserved: reserved,
		Status:          models.TripStatusActive,
		DayClass:        dayClass,
	}
	if err := s.store.CreateTrip(trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":   trip.TripID,
		"direction": trip.Direction,
		"date":      req.TripDate,
	}).Info("trip created")
	return trip, nil
}

func dayClassFor(date time.Time) models.DayClass {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return models.DayClassWeekend
	}
	return models.DayClassWeekday
}
