package session

import "errors"

// Session package errors.
var (
	// ErrInvalidState is returned when an operation is attempted in a
	// state it is not valid in.
	ErrInvalidState = errors.New("session: invalid state for operation")

	// ErrClosed is returned when an operation is attempted on a closed session.
	ErrClosed = errors.New("session: closed")

	// ErrNoCertificate is returned when a session is created without a
	// DTLS certificate.
	ErrNoCertificate = errors.New("session: no certificate configured")

	// ErrFingerprintMismatch is returned when the peer's DTLS certificate
	// does not hash to the fingerprint declared in the offer.
	ErrFingerprintMismatch = errors.New("session: peer certificate fingerprint mismatch")

	// ErrNoPeerCertificate is returned when the DTLS handshake presents no
	// peer certificate to verify.
	ErrNoPeerCertificate = errors.New("session: peer presented no certificate")
)
