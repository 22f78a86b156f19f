package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Character errors
	ErrMsgUnknownCharacter = "unknown character"
	ErrMsgAlreadyOwned     = "already owned"
	ErrMsgNotOwned         = "not owned"
	ErrMsgCollectionFull   = "collection is full"
	ErrMsgBaseCharacter    = "base character"

	// Economy errors
	ErrMsgInsufficientPoints = "insufficient points"

	// Store errors
	ErrMsgStoreUnavailable = "durable store unavailable"
	ErrMsgCacheUnavailable = "cache unavailable"

	// Notification errors
	ErrMsgNotificationForbidden = "recipient unreachable"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)

	// Character errors
	ErrUnknownCharacter = errors.New(ErrMsgUnknownCharacter)
	ErrAlreadyOwned     = errors.New(ErrMsgAlreadyOwned)
	ErrNotOwned         = errors.New(ErrMsgNotOwned)
	ErrCollectionFull   = errors.New(ErrMsgCollectionFull)
	ErrBaseCharacter    = errors.New(ErrMsgBaseCharacter)

	// Economy errors
	ErrInsufficientPoints = errors.New(ErrMsgInsufficientPoints)

	// Store errors
	ErrStoreUnavailable = errors.New(ErrMsgStoreUnavailable)
	ErrCacheUnavailable = errors.New(ErrMsgCacheUnavailable)

	// Notification errors
	// Returned by dispatchers when a user cannot receive direct notifications.
	// This is a normal outcome, never retried.
	ErrNotificationForbidden = errors.New(ErrMsgNotificationForbidden)
)
