package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mystrymsg/internal/middleware"
	"mystrymsg/internal/models"
	"mystrymsg/internal/services"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: msg})
}

// writeError maps service errors to HTTP statuses; unknown errors are logged and hidden.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, capitalize(strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")))
	case errors.Is(err, services.ErrCodeExpired):
		fail(c, http.StatusBadRequest, "Verification code has expired, please request a new code")
	case errors.Is(err, services.ErrCodeInvalid):
		fail(c, http.StatusBadRequest, "Incorrect verification code")
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Incorrect username/email or password, or account not verified")
	case errors.Is(err, services.ErrMessagingDisabled):
		fail(c, http.StatusForbidden, "User is not accepting messages")
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrTooManyAttempts):
		fail(c, http.StatusTooManyRequests, "Too many incorrect codes, please request a new code")
	case errors.Is(err, services.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, "A code was sent recently, please wait before requesting another")
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, capitalize(strings.TrimPrefix(err.Error(), services.ErrConflict.Error()+": ")))
	case errors.Is(err, services.ErrDependency):
		logger.WarnContext(c.Request.Context(), "upstream dependency failed", "path", c.FullPath(), "err", err)
		fail(c, http.StatusBadGateway, "Upstream service unavailable, try again later")
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// principal returns the authenticated account or writes a 401.
func principal(c *gin.Context) (*models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return p, true
}
