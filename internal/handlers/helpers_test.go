package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mystrymsg/internal/logging"
	"mystrymsg/internal/services"
)

func TestWriteError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: username must be at least 2 characters", services.ErrInvalidInput), http.StatusBadRequest, "Username must be at least 2 characters"},
		{services.ErrCodeExpired, http.StatusBadRequest, ""},
		{services.ErrCodeInvalid, http.StatusBadRequest, "Incorrect verification code"},
		{services.ErrUnauthenticated, http.StatusUnauthorized, ""},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{services.ErrMessagingDisabled, http.StatusForbidden, "User is not accepting messages"},
		{services.ErrNotFound, http.StatusNotFound, ""},
		{services.ErrUsernameTaken, http.StatusConflict, "Username is already taken"},
		{services.ErrEmailTaken, http.StatusConflict, "Email is already registered"},
		{services.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many incorrect codes, please request a new code"},
		{services.ErrResendThrottled, http.StatusTooManyRequests, ""},
		{services.ErrDependency, http.StatusBadGateway, ""},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		writeError(c, logging.Discard(), tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"success":false`)
		assert.NotContains(t, w.Body.String(), "pq:")
		if tc.msg != "" {
			assert.Contains(t, w.Body.String(), tc.msg)
		}
	}
}
