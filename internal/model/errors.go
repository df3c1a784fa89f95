package model

import "errors"

// Common errors used across the client
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not signed in")
	ErrSessionExpired   = errors.New("session expired")
	ErrRenewalFailed    = errors.New("session renewal failed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("not allowed for this account")

	// Game errors
	ErrNoClicksLeft = errors.New("no clicks left")
	ErrNoWinnings   = errors.New("no winnings to collect")
	ErrNoPayoutInfo = errors.New("payout method not configured")

	// Storage errors
	ErrCacheNotFound = errors.New("no cached session")

	// Push errors
	ErrUnknownEvent = errors.New("unknown push event")
)
