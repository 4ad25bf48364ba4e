package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campustransit/bus-reservation-backend/pkg/token"
)

// Context keys set by the auth middlewares.
const (
	ContextPassengerID    = "passengerID"
	ContextPassengerEmail = "passengerEmail"
	ContextOperatorID     = "operatorID"
	ContextEmployeeID     = "employeeID"
)

// AdminKeyHeader carries the shared key guarding administrative endpoints.
const AdminKeyHeader = "X-Admin-Key"

// PassengerAuth verifies a passenger session token and stashes the
// passenger's identity in the request context.
func PassengerAuth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "MISSING_CREDENTIALS")
			return
		}
		claims, err := tokens.VerifyPassengerToken(raw)
		if err != nil {
			abortTokenFailure(c, err)
			return
		}
		c.Set(ContextPassengerID, claims.Subject)
		c.Set(ContextPassengerEmail, claims.Email)
		c.Next()
	}
}

// OperatorAuth verifies an operator session token and stashes the operator's
// identity in the request context.
func OperatorAuth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "MISSING_CREDENTIALS")
			return
		}
		claims, err := tokens.VerifyOperatorToken(raw)
		if err != nil {
			abortTokenFailure(c, err)
			return
		}
		c.Set(ContextOperatorID, claims.Subject)
		c.Set(ContextEmployeeID, claims.EmployeeID)
		c.Next()
	}
}

// AdminKey guards administrative endpoints with a shared header key. An
// empty configured key disables the surface entirely.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(AdminKeyHeader)
		if key == "" || presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			abort(c, http.StatusForbidden, "FORBIDDEN")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortTokenFailure(c *gin.Context, err error) {
	if errors.Is(err, token.ErrExpired) {
		abort(c, http.StatusUnauthorized, "EXPIRED_TOKEN")
		return
	}
	abort(c, http.StatusUnauthorized, "INVALID_TOKEN")
}

func abort(c *gin.Context, status int, kind string) {
	c.AbortWithStatusJSON(status, gin.H{"message": kind})
}
