package models

import "errors"

// Error kinds reported by the core. Check with errors.Is.
var (
	// ErrValidation marks malformed input; state is left unchanged.
	ErrValidation = errors.New("validation error")
	// ErrPersistence marks a failed storage call. In-memory effects of the
	// triggering action are kept.
	ErrPersistence = errors.New("persistence error")
	// ErrExhausted marks a request that produced fewer items than asked for.
	ErrExhausted = errors.New("not enough words")
	// ErrNoActiveSession is returned for events that need a running session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionActive is returned when starting while a session is running.
	ErrSessionActive = errors.New("session already active")
)
