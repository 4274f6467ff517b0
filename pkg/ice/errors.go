package ice

import "errors"

// Package errors.
var (
	// ErrEmptySet is returned when the primary candidate is requested from
	// an empty set.
	ErrEmptySet = errors.New("ice: candidate set is empty")

	// ErrNoSender is returned when an agent is created without a send
	// function.
	ErrNoSender = errors.New("ice: no send function configured")

	// ErrNoCandidates is returned when an agent is created without a
	// candidate set.
	ErrNoCandidates = errors.New("ice: no candidate set configured")

	// ErrClosed is returned when an operation is attempted on a stopped
	// agent.
	ErrClosed = errors.New("ice: agent closed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("ice: agent already started")
)
