package service

import "errors"

var (
	// ErrAllocationExhausted means short-ID generation kept colliding for the
	// whole retry budget. Surfaced as a hard, retriable server error.
	ErrAllocationExhausted = errors.New("failed to allocate a unique short id")

	// ErrShortIDTaken is returned when a requested custom short ID is in use
	ErrShortIDTaken = errors.New("short id already taken")

	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrBelowMinimumPayout = errors.New("amount is below the minimum payout")
	ErrOpenPayoutExists   = errors.New("an open payout request already exists")
	ErrMissingPayoutInfo  = errors.New("payout method details are incomplete")
)
