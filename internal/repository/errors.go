package repository

import "errors"

var (
	// ErrLinkNotFound covers both missing and inactive links; the gate
	// pipeline treats the two identically.
	ErrLinkNotFound = errors.New("link not found")

	// ErrUserNotFound is returned when no user row matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateShortID is returned when a short ID insert hits the unique constraint
	ErrDuplicateShortID = errors.New("short id already taken")

	// ErrInsufficientBalance is returned when a payout exceeds pending earnings
	ErrInsufficientBalance = errors.New("insufficient pending balance")
)
