package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/services"
)

// failure pairs an HTTP status with the stable failure kind clients switch
// on. Error bodies are always {"message": "<kind>"}.
type failure struct {
	status int
	kind   string
}

var failures = []struct {
	err error
	failure
}{
	{services.ErrValidation, failure{http.StatusBadRequest, "MALFORMED_REQUEST"}},
	{services.ErrInvalidReason, failure{http.StatusBadRequest, "MALFORMED_REQUEST"}},
	{services.ErrCommentsRequired, failure{http.StatusBadRequest, "COMMENTS_REQUIRED"}},
	{services.ErrInvalidCoordinate, failure{http.StatusBadRequest, "INVALID_COORDINATE"}},
	{services.ErrWrongTrip, failure{http.StatusBadRequest, "WRONG_TRIP"}},
	{services.ErrInvalidToken, failure{http.StatusBadRequest, "INVALID_TOKEN"}},

	{services.ErrBadCredentials, failure{http.StatusUnauthorized, "BAD_CREDENTIALS"}},

	{services.ErrDomainNotAllowed, failure{http.StatusForbidden, "DOMAIN_NOT_ALLOWED"}},
	{services.ErrBlocked, failure{http.StatusForbidden, "BLOCKED"}},
	{services.ErrAccountSuspended, failure{http.StatusForbidden, "ACCOUNT_SUSPENDED"}},
	{services.ErrForbidden, failure{http.StatusForbidden, "FORBIDDEN"}},

	{services.ErrNotFound, failure{http.StatusNotFound, "NOT_FOUND"}},

	{services.ErrConcurrentRequest, failure{http.StatusConflict, "CONCURRENT_REQUEST"}},
	{services.ErrConcurrentScan, failure{http.StatusConflict, "CONCURRENT_SCAN"}},
	{services.ErrDuplicateForTrip, failure{http.StatusConflict, "DUPLICATE_FOR_TRIP"}},
	{services.ErrDuplicateForDirection, failure{http.StatusConflict, "DUPLICATE_FOR_DIRECTION"}},
	{services.ErrTripAlreadyActive, failure{http.StatusConflict, "TRIP_ALREADY_ACTIVE"}},
	{services.ErrBookingBoarded, failure{http.StatusConflict, "ALREADY_BOARDED"}},
	{services.ErrNotEligible, failure{http.StatusConflict, "NOT_ELIGIBLE"}},

	{services.ErrTripUnavailable, failure{http.StatusGone, "TRIP_UNAVAILABLE"}},

	{services.ErrTelemetryUnavailable, failure{http.StatusServiceUnavailable, "TELEMETRY_UNAVAILABLE"}},
}

// respondError maps a service error onto the response taxonomy. Anything
// unrecognised is logged and returned as an opaque 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, f := range failures {
		if errors.Is(err, f.err) {
			c.JSON(f.status, gin.H{"message": f.kind})
			return
		}
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "INTERNAL"})
}

// respondMalformed rejects a request whose body failed binding.
func respondMalformed(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "MALFORMED_REQUEST"})
}
