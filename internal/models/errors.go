package models

import "errors"

// Errors shared by the aggregation core and the sources that feed it.
var (
	// ErrSourceUnavailable means a prepare, activate or query call to an
	// external source failed.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrRegistrationFailed means the source rejected the update callback.
	ErrRegistrationFailed = errors.New("callback registration failed")
	// ErrNoActiveSession means an end was requested with nothing running.
	ErrNoActiveSession = errors.New("no active session")
	// ErrStageUnrecognized marks a sleep stage tag outside the known set.
	ErrStageUnrecognized = errors.New("unrecognized sleep stage")
)
