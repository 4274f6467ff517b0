package discovery

import "errors"

// Package errors.
var (
	// ErrClosed is returned when an operation is attempted on a shut-down advertiser.
	ErrClosed = errors.New("discovery: advertiser closed")

	// ErrAlreadyAdvertising is returned when Advertise is called twice.
	ErrAlreadyAdvertising = errors.New("discovery: already advertising")

	// ErrInvalidPort is returned for a port outside 1..65535.
	ErrInvalidPort = errors.New("discovery: invalid port")
)
