package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/campustransit/bus-reservation-backend/internal/database"
	"github.com/campustransit/bus-reservation-backend/internal/models"
	"github.com/campustransit/bus-reservation-backend/pkg/token"
)

// OperatorStore is the persistence surface operator sessions and assignments
// depend on.
type OperatorStore interface {
	GetOperatorByEmployeeID(employeeID string) (*models.Operator, error)
	UpdateOperatorLastLogin(operatorID string, at time.Time) error
	GetTrip(tripID string) (*models.Trip, error)
	ListActiveTripsForDate(date time.Time) ([]models.Trip, error)
	CountSeated(tripID string) (int, error)
	TripPassengers(tripID string) ([]models.TripPassenger, error)
	FindLatestAssignment(tripID, operatorID string) (*models.TripAssignment, error)
	InTx(ctx context.Context, fn func(tx database.Tx) error) error
}

// OperatorLoginResult is the response to a successful operator login
type OperatorLoginResult struct {
	Token       string `json:"token"`
	OperatorID  string `json:"operatorId"`
	DisplayName string `json:"displayName"`
}

// PassengerManifest is the boarding list an operator sees for a trip
type PassengerManifest struct {
	TripID     string                 `json:"tripId"`
	Passengers []models.TripPassenger `json:"passengers"`
	TotalCount int                    `json:"totalCount"`
}

// OperatorService handles operator authentication and the trip assignment
// lifecycle.
type OperatorService struct {
	store  OperatorStore
	tokens *token.Service
	logger *logrus.Logger
	now    func() time.Time
}

// NewOperatorService creates a new OperatorService
func NewOperatorService(store OperatorStore, tokens *token.Service, logger *logrus.Logger) *OperatorService {
	return &OperatorService{
		store:  store,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// dummyHash keeps the bcrypt comparison on the failure path for unknown
// employee IDs, so response timing does not reveal whether an account exists.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")

// Login authenticates an operator by employee ID and password. Missing
// accounts and wrong passwords produce the same error.
func (s *OperatorService) Login(ctx context.Context, employeeID, password string) (*OperatorLoginResult, error) {
	operator, err := s.store.GetOperatorByEmployeeID(employeeID)
	if err != nil {
		return nil, fmt.Errorf("load operator: %w", err)
	}
	if operator == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrBadCredentials
	}
	if !operator.IsActive() {
		return nil, ErrAccountSuspended
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	if err := s.store.UpdateOperatorLastLogin(operator.OperatorID, s.now()); err != nil {
		s.logger.WithError(err).WithField("operator_id", operator.OperatorID).
			Warn("failed to update last login")
	}

	sessionToken, err := s.tokens.GenerateOperatorToken(operator.OperatorID, operator.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("mint operator token: %w", err)
	}

	s.logger.WithField("operator_id", operator.OperatorID).Info("operator logged in")
	return &OperatorLoginResult{
		Token:       sessionToken,
		OperatorID:  operator.OperatorID,
		DisplayName: operator.DisplayName,
	}, nil
}

// ListTrips returns the day's active trips with a status derived for this
// operator: IN_PROGRESS while they are running it, COMPLETED once finished
// or departed without a live run, UPCOMING otherwise.
func (s *OperatorService) ListTrips(ctx context.Context, operatorID string, date time.Time) ([]models.OperatorTrip, error) {
	trips, err := s.store.ListActiveTripsForDate(date)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	now := s.now()
	result := make([]models.OperatorTrip, 0, len(trips))
	for i := range trips {
		trip := &trips[i]

		booked, err := s.store.CountSeated(trip.TripID)
		if err != nil {
			return nil, fmt.Errorf("count booked for trip %s: %w", trip.TripID, err)
		}

		assignment, err := s.store.FindLatestAssignment(trip.TripID, operatorID)
		if err != nil {
			return nil, fmt.Errorf("load assignment for trip %s: %w", trip.TripID, err)
		}

		entry := models.OperatorTrip{
			TripID:        trip.TripID,
			Direction:     trip.Direction,
			Destination:   trip.Destination,
			BusLabel:      trip.BusLabel,
			DepartureTime: trip.DepartureTime,
			Capacity:      trip.Capacity,
			BookedCount:   booked,
			Status:        models.DerivedTripUpcoming,
		}
		switch {
		case assignment != nil && assignment.Status == models.AssignmentStatusInProgress:
			entry.Status = models.DerivedTripInProgress
			entry.AssignmentID = &assignment.AssignmentID
		case assignment != nil && assignment.Status == models.AssignmentStatusCompleted:
			entry.Status = models.DerivedTripCompleted
			entry.AssignmentID = &assignment.AssignmentID
		case trip.IsPastDeparture(now):
			entry.Status = models.DerivedTripCompleted
		}
		result = append(result, entry)
	}
	return result, nil
}

// StartAssignment begins the operator's run of a trip. At most one run per
// trip may be in progress; a second start is rejected.
func (s *OperatorService) StartAssignment(ctx context.Context, operatorID, tripID, busLabel string) (*models.TripAssignment, error) {
	trip, err := s.store.GetTrip(tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if trip == nil {
		return nil, ErrNotFound
	}
	if trip.Status != models.TripStatusActive {
		return nil, ErrTripUnavailable
	}

	now := s.now()
	assignment := &models.TripAssignment{
		AssignmentID: models.NewAssignmentID(),
		TripID:       tripID,
		OperatorID:   operatorID,
		BusLabel:     busLabel,
		StartedAt:    &now,
		Status:       models.AssignmentStatusInProgress,
	}

	err = s.store.InTx(ctx, func(tx database.Tx) error {
		live, err := tx.FindInProgressAssignment(tripID)
		if err != nil {
			return err
		}
		if live != nil {
			return ErrTripAlreadyActive
		}
		if err := tx.InsertAssignment(assignment); err != nil {
			if database.IsUniqueViolation(err, "uq_assignments_trip_in_progress") {
				return ErrTripAlreadyActive
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignment.AssignmentID,
		"trip_id":       tripID,
		"operator_id":   operatorID,
	}).Info("assignment started")
	return assignment, nil
}

// CompleteAssignment finishes the operator's live run of a trip and marks
// the trip itself completed.
func (s *OperatorService) CompleteAssignment(ctx context.Context, operatorID, tripID string) (*models.TripAssignment, error) {
	now := s.now()
	var completed *models.TripAssignment
	err := s.store.InTx(ctx, func(tx database.Tx) error {
		live, err := tx.FindInProgressAssignment(tripID)
		if err != nil {
			return err
		}
		if live == nil {
			return ErrNotFound
		}
		if live.OperatorID != operatorID {
			return ErrForbidden
		}
		if err := tx.CompleteAssignment(live.AssignmentID, now); err != nil {
			return err
		}
		if err := tx.UpdateTripStatus(tripID, models.TripStatusCompleted); err != nil {
			return err
		}
		live.Status = models.AssignmentStatusCompleted
		live.CompletedAt = &now
		completed = live
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": completed.AssignmentID,
		"trip_id":       tripID,
		"operator_id":   operatorID,
	}).Info("assignment completed")
	return completed, nil
}

// PassengerList returns the boarding manifest for a trip.
func (s *OperatorService) PassengerList(ctx context.Context, tripID string) (*PassengerManifest, error) {
	trip, err := s.store.GetTrip(tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if trip == nil {
		return nil, ErrNotFound
	}

	passengers, err := s.store.TripPassengers(tripID)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if passengers == nil {
		passengers = []models.TripPassenger{}
	}
	return &PassengerManifest{
		TripID:     tripID,
		Passengers: passengers,
		TotalCount: len(passengers),
	}, nil
}
