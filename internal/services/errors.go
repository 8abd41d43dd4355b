package services

import "errors"

var (
	// collection endpoint
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrMissingCredential = errors.New("missing api key")
	ErrUnauthorized      = errors.New("invalid project or api key")
	ErrRateLimited       = errors.New("rate limit exceeded")

	// dashboard
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIncorrectPassword    = errors.New("current password is incorrect")
	ErrInvalidResetToken    = errors.New("invalid or expired token")
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrInvalidSession       = errors.New("invalid session")
)
