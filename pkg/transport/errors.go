package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed socket.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is returned when an invalid peer address is provided.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrNoHandler is returned when no STUN handler is configured.
	ErrNoHandler = errors.New("transport: no STUN handler configured")

	// ErrNoRemote is returned when a unicast view is used before a remote
	// target has been set.
	ErrNoRemote = errors.New("transport: unicast view has no remote target")

	// ErrDatagramTooLarge is returned when a datagram exceeds the maximum size.
	ErrDatagramTooLarge = errors.New("transport: datagram too large")
)
