package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates the three token families issued by the service
type Kind string

const (
	KindPassenger Kind = "passenger"
	KindOperator  Kind = "operator"
	KindBoarding  Kind = "boarding"
)

// Verification failure kinds. Handlers map these onto the error taxonomy.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
	ErrWrongKind        = errors.New("token kind mismatch")
)

// Claims is the shared claim set for all token kinds.
// Subject carries the passengerId, operatorId or bookingId depending on Kind.
type Claims struct {
	Kind        Kind   `json:"kind"`
	Email       string `json:"email,omitempty"`
	EmployeeID  string `json:"employee_id,omitempty"`
	Role        string `json:"role,omitempty"`
	TripID      string `json:"trip_id,omitempty"`
	PassengerID string `json:"passenger_id,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies the three token kinds with per-kind HMAC secrets.
// It is pure: verification never touches storage.
type Service struct {
	passengerSecret []byte
	operatorSecret  []byte
	boardingSecret  []byte
	passengerExpiry time.Duration
	operatorExpiry  time.Duration
	issuer          string
}

// NewService creates a token service. Distinct secrets per kind are permitted;
// passing the same value for all three is also valid.
func NewService(passengerSecret, operatorSecret, boardingSecret string, passengerExpiry, operatorExpiry time.Duration) *Service {
	return &Service{
		passengerSecret: []byte(passengerSecret),
		operatorSecret:  []byte(operatorSecret),
		boardingSecret:  []byte(boardingSecret),
		passengerExpiry: passengerExpiry,
		operatorExpiry:  operatorExpiry,
		issuer:          "campustransit-bus-reservation",
	}
}

// GeneratePassengerToken issues a 7-day session token for a passenger.
func (s *Service) GeneratePassengerToken(passengerID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind:  KindPassenger,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   passengerID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.passengerExpiry)),
		},
	}
	return s.sign(claims, s.passengerSecret)
}

// GenerateOperatorToken issues a 24-hour session token for an operator.
func (s *Service) GenerateOperatorToken(operatorID, employeeID string) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind:       KindOperator,
		EmployeeID: employeeID,
		Role:       "OPERATOR",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.operatorExpiry)),
		},
	}
	return s.sign(claims, s.operatorSecret)
}

// GenerateBoardingToken issues a single-booking boarding token. The caller
// supplies the expiry, which is the trip departure time plus 24 hours.
func (s *Service) GenerateBoardingToken(bookingID, tripID, passengerID string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind:        KindBoarding,
		TripID:      tripID,
		PassengerID: passengerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   bookingID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return s.sign(claims, s.boardingSecret)
}

// VerifyPassengerToken verifies a passenger session token.
func (s *Service) VerifyPassengerToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, s.passengerSecret, KindPassenger)
}

// VerifyOperatorToken verifies an operator session token.
func (s *Service) VerifyOperatorToken(tokenString string) (*Claims, error) {
	claims, err := s.verify(tokenString, s.operatorSecret, KindOperator)
	if err != nil {
		return nil, err
	}
	if claims.Role != "OPERATOR" {
		return nil, ErrWrongKind
	}
	return claims, nil
}

// VerifyBoardingToken verifies a boarding token presented at a scan.
func (s *Service) VerifyBoardingToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, s.boardingSecret, KindBoarding)
}

func (s *Service) sign(claims Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Kind, err)
	}
	return signed, nil
}

func (s *Service) verify(tokenString string, secret []byte, expected Kind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}
	return claims, nil
}
