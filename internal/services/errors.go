package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrCodeInvalid        = errors.New("verification code invalid")
	ErrMessagingDisabled  = errors.New("user is not accepting messages")
	ErrDependency         = errors.New("dependency failure")
	ErrRateLimited        = errors.New("too many requests")
)

// Conflicts; each one matches ErrConflict with errors.Is.
var (
	ErrUsernameTaken   = fmt.Errorf("%w: username is already taken", ErrConflict)
	ErrEmailTaken      = fmt.Errorf("%w: email is already registered", ErrConflict)
	ErrUsernamePending = fmt.Errorf("%w: username has a pending registration, try again later", ErrConflict)
	ErrAlreadyVerified = fmt.Errorf("%w: account is already verified", ErrConflict)
)

// Verification throttling; each one matches ErrRateLimited with errors.Is.
var (
	ErrTooManyAttempts = fmt.Errorf("%w: too many incorrect codes, request a new one", ErrRateLimited)
	ErrResendThrottled = fmt.Errorf("%w: a code was sent recently, try again later", ErrRateLimited)
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
