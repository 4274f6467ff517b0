package signalling

import "errors"

// Package errors.
var (
	// ErrBadRequest is returned for malformed bodies or a wrong type field.
	ErrBadRequest = errors.New("signalling: bad request")

	// ErrSessionNotFound is returned when no session matches the given
	// peer username fragment.
	ErrSessionNotFound = errors.New("signalling: session not found")
)
