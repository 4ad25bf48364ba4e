package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustransit/bus-reservation-backend/pkg/token"
)

func setupTestTokenService() *token.Service {
	return token.NewService(
		"passenger-secret-0123456789abcdef",
		"operator-secret-00123456789abcdef",
		"boarding-secret-00123456789abcdef",
		time.Hour,
		time.Hour,
	)
}

func performRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPassengerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := setupTestTokenService()

	router := gin.New()
	router.GET("/protected", PassengerAuth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"passengerId": c.GetString(ContextPassengerID),
			"email":       c.GetString(ContextPassengerEmail),
		})
	})

	t.Run("valid token passes and sets identity", func(t *testing.T) {
		sessionToken, err := tokens.GeneratePassengerToken("P1", "p1@campus.edu")
		require.NoError(t, err)

		w := performRequest(router, "Bearer "+sessionToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"passengerId":"P1"`)
		assert.Contains(t, w.Body.String(), `"email":"p1@campus.edu"`)
	})

	t.Run("missing header", func(t *testing.T) {
		w := performRequest(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_CREDENTIALS")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := performRequest(router, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_CREDENTIALS")
	})

	t.Run("garbage token", func(t *testing.T) {
		w := performRequest(router, "Bearer garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("operator token is rejected on a passenger route", func(t *testing.T) {
		operatorToken, err := tokens.GenerateOperatorToken("O1", "EMP001")
		require.NoError(t, err)

		w := performRequest(router, "Bearer "+operatorToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("expired token", func(t *testing.T) {
		expiredService := token.NewService(
			"passenger-secret-0123456789abcdef",
			"operator-secret-00123456789abcdef",
			"boarding-secret-00123456789abcdef",
			-time.Hour,
			-time.Hour,
		)
		expiredToken, err := expiredService.GeneratePassengerToken("P1", "p1@campus.edu")
		require.NoError(t, err)

		w := performRequest(router, "Bearer "+expiredToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "EXPIRED_TOKEN")
	})
}

func TestOperatorAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := setupTestTokenService()

	router := gin.New()
	router.GET("/protected", OperatorAuth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operatorId": c.GetString(ContextOperatorID),
			"employeeId": c.GetString(ContextEmployeeID),
		})
	})

	t.Run("valid operator token", func(t *testing.T) {
		operatorToken, err := tokens.GenerateOperatorToken("O1", "EMP001")
		require.NoError(t, err)

		w := performRequest(router, "Bearer "+operatorToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"operatorId":"O1"`)
		assert.Contains(t, w.Body.String(), `"employeeId":"EMP001"`)
	})

	t.Run("passenger token is rejected on an operator route", func(t *testing.T) {
		sessionToken, err := tokens.GeneratePassengerToken("P1", "p1@campus.edu")
		require.NoError(t, err)

		w := performRequest(router, "Bearer "+sessionToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(key string) *gin.Engine {
		router := gin.New()
		router.POST("/admin", AdminKey(key), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	send := func(router *gin.Engine, headerValue string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		if headerValue != "" {
			req.Header.Set(AdminKeyHeader, headerValue)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("correct key", func(t *testing.T) {
		w := send(newRouter("sekrit"), "sekrit")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		w := send(newRouter("sekrit"), "guess")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		w := send(newRouter("sekrit"), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unconfigured key disables the surface", func(t *testing.T) {
		w := send(newRouter(""), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
