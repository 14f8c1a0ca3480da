package services

import (
	"errors"
	"strings"
)

// Authentication failures (401).
var (
	ErrNoToken              = errors.New("no token provided")
	ErrInvalidToken         = errors.New("invalid token")
	ErrSessionExpired       = errors.New("session expired or not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountDeactivated   = errors.New("account is deactivated")
	ErrSecondFactorRequired = errors.New("two-factor code required")
	ErrSecondFactorInvalid  = errors.New("invalid two-factor code")
)

var (
	ErrUserNotFound    = errors.New("user not found or inactive")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrRecordNotFound  = errors.New("medical record not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrTooManyAttempts = errors.New("too many login attempts, try again later")
)

// ValidationError carries every failed field check of one request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "Validation error: " + strings.Join(e.Messages, ", ")
}
