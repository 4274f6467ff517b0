package sdp

import "errors"

// Package errors.
var (
	// ErrInvalidOffer is returned when an offer cannot be parsed or has no
	// usable DTLS/SCTP media section.
	ErrInvalidOffer = errors.New("sdp: invalid offer")

	// ErrMissingFingerprint is returned when neither the session nor the
	// selected media section declares a certificate fingerprint.
	ErrMissingFingerprint = errors.New("sdp: offer declares no fingerprint")

	// ErrNoCandidates is returned when an answer is requested without any
	// candidates to advertise.
	ErrNoCandidates = errors.New("sdp: answer requires at least one candidate")
)
