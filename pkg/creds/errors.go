package creds

import "errors"

// Package errors.
var (
	// ErrNoCertificate is returned when a PEM input contains no CERTIFICATE block.
	ErrNoCertificate = errors.New("creds: no certificate block in PEM input")
)
