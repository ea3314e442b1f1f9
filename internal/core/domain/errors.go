package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrForbidden          = errors.New("access forbidden")
	ErrIdempotencyKeyUsed = errors.New("idempotency key already used")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid session token")

	ErrLicenseNotFound         = errors.New("license not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrInvestorRequestNotFound = errors.New("investor request not found")
)
