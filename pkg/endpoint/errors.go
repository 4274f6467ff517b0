package endpoint

import "errors"

// Package errors.
var (
	// ErrInvalidCredentials is returned when the certificate or private
	// key buffer is malformed.
	ErrInvalidCredentials = errors.New("endpoint: invalid certificate or key")

	// ErrNotStarted is returned when sessions are requested before the
	// address probes have completed.
	ErrNotStarted = errors.New("endpoint: not started")

	// ErrClosed is returned when an operation is attempted on a stopped endpoint.
	ErrClosed = errors.New("endpoint: closed")

	// ErrNoAddress is returned when no usable IPv4 address can be found.
	ErrNoAddress = errors.New("endpoint: no usable IPv4 address")
)
