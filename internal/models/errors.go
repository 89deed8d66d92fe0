package models

import "errors"

// Sentinel errors for expected failure modes. Handlers map these to
// distinct HTTP statuses; anything else is a 500.
var (
	ErrNotFound     = errors.New("record not found")
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrGateway wraps upstream payment-provider failures. The upstream
	// message is attached for diagnostics but not retried internally.
	ErrGateway = errors.New("payment gateway error")

	// ErrUnresolvableEvent marks a webhook whose correlation metadata is
	// missing, malformed, or references rows that do not exist. The event
	// is acknowledged to stop redelivery and logged as a reconciliation gap.
	ErrUnresolvableEvent = errors.New("unresolvable webhook event")
)
