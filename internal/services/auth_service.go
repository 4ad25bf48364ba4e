package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/models"
	"github.com/campustransit/bus-reservation-backend/pkg/token"
)

// AuthStore is the persistence surface passenger identity depends on.
type AuthStore interface {
	GetPassenger(passengerID string) (*models.Passenger, error)
	GetPassengerByEmail(email string) (*models.Passenger, error)
	CreatePassenger(p *models.Passenger) error
	UpdatePassengerProfile(passengerID, room, phone string) error
	ActiveBookings(passengerID string) ([]models.BookingSummary, error)
	BookingHistory(passengerID string) ([]models.BookingSummary, error)
}

// FederatedLoginResult is the response to a federated login
type FederatedLoginResult struct {
	PassengerID     string `json:"passengerId"`
	Token           string `json:"token"`
	IsNewUser       bool   `json:"isNewUser"`
	ProfileComplete bool   `json:"profileComplete"`
}

// PassengerProfile is the passenger's own view of their account
type PassengerProfile struct {
	PassengerID     string                  `json:"passengerId"`
	Email           string                  `json:"email"`
	DisplayName     string                  `json:"displayName"`
	Room            *string                 `json:"room,omitempty"`
	Phone           *string                 `json:"phone,omitempty"`
	ProfileComplete bool                    `json:"profileComplete"`
	ActiveBookings  []models.BookingSummary `json:"activeBookings"`
}

// AuthService handles the passenger identity realm. The upstream federated
// provider has already verified the email; this service only enforces the
// campus domain and maintains the local account.
//
// Blocked passengers may still log in and see their history. The block is
// enforced where it matters, at booking time.
type AuthService struct {
	store         AuthStore
	tokens        *token.Service
	allowedDomain string
	logger        *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(store AuthStore, tokens *token.Service, allowedDomain string, logger *logrus.Logger) *AuthService {
	return &AuthService{
		store:         store,
		tokens:        tokens,
		allowedDomain: strings.ToLower(allowedDomain),
		logger:        logger,
	}
}

// FederatedLogin finds or creates the passenger for a verified email and
// issues a session token.
func (s *AuthService) FederatedLogin(ctx context.Context, email, displayName string) (*FederatedLoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.HasSuffix(email, s.allowedDomain) {
		return nil, ErrDomainNotAllowed
	}

	passenger, err := s.store.GetPassengerByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("load passenger: %w", err)
	}

	isNew := passenger == nil
	if isNew {
		passenger = &models.Passenger{
			PassengerID: models.NewPassengerID(),
			Email:       email,
			DisplayName: displayName,
		}
		if err := s.store.CreatePassenger(passenger); err != nil {
			return nil, fmt.Errorf("create passenger: %w", err)
		}
		s.logger.WithField("passenger_id", passenger.PassengerID).Info("passenger registered")
	}

	sessionToken, err := s.tokens.GeneratePassengerToken(passenger.PassengerID, passenger.Email)
	if err != nil {
		return nil, fmt.Errorf("mint passenger token: %w", err)
	}

	return &FederatedLoginResult{
		PassengerID:     passenger.PassengerID,
		Token:           sessionToken,
		IsNewUser:       isNew,
		ProfileComplete: passenger.ProfileComplete(),
	}, nil
}

// CompleteProfile records the room and phone collected during onboarding.
func (s *AuthService) CompleteProfile(ctx context.Context, passengerID, room, phone string) error {
	room = strings.TrimSpace(room)
	phone = strings.TrimSpace(phone)
	if room == "" || phone == "" {
		return fmt.Errorf("%w: room and phone are required", ErrValidation)
	}
	if err := s.store.UpdatePassengerProfile(passengerID, room, phone); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// Profile returns the passenger's account fields and live bookings.
func (s *AuthService) Profile(ctx context.Context, passengerID string) (*PassengerProfile, error) {
	passenger, err := s.store.GetPassenger(passengerID)
	if err != nil {
		return nil, fmt.Errorf("load passenger: %w", err)
	}
	if passenger == nil {
		return nil, ErrNotFound
	}

	active, err := s.store.ActiveBookings(passengerID)
	if err != nil {
		return nil, fmt.Errorf("load active bookings: %w", err)
	}
	if active == nil {
		active = []models.BookingSummary{}
	}

	return &PassengerProfile{
		PassengerID:     passenger.PassengerID,
		Email:           passenger.Email,
		DisplayName:     passenger.DisplayName,
		Room:            passenger.Room,
		Phone:           passenger.Phone,
		ProfileComplete: passenger.ProfileComplete(),
		ActiveBookings:  active,
	}, nil
}

// BookingHistory returns every booking the passenger has made, newest first.
func (s *AuthService) BookingHistory(ctx context.Context, passengerID string) ([]models.BookingSummary, error) {
	history, err := s.store.BookingHistory(passengerID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if history == nil {
		history = []models.BookingSummary{}
	}
	return history, nil
}
