package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrWrongPassword       = errors.New("wrong password")
	ErrUserNotVerified     = errors.New("user email is not verified")
	ErrUserAlreadyVerified = errors.New("user email is already verified")

	ErrInvalidCredential = errors.New("credential is invalid or expired")

	ErrSessionNotFound    = errors.New("session not found")
	ErrActivationNotFound = errors.New("activation record not found")
	ErrInvalidOTP         = errors.New("email or otp code mismatch")

	// Store outage. Must never be conflated with "key not found":
	// absence of proof is not proof of absence
	ErrStoreUnavailable = errors.New("session store unavailable")

	ErrEmailSendFailed = errors.New("verification email send failed")
)
