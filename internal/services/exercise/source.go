// Package exercise manages the exercise session lifecycle and folds its
// measurement frames into cumulative totals.
package exercise

import (
	"context"

	"github.com/j-veylop/wearmon/internal/models"
)

// Callback receives pushes from a measurement source.
type Callback interface {
	OnFrame(frame models.ExerciseMetricsFrame)
	OnAvailabilityChanged(metric models.MetricType, availability models.Availability)
	OnRegistered()
	OnRegistrationFailed(err error)
}

// MeasurementSource is the device-side exercise API.
type MeasurementSource interface {
	// Prepare warms up the sensors for the given session.
	Prepare(ctx context.Context, spec models.SessionSpec) error
	// Activate starts recording.
	Activate(ctx context.Context, spec models.SessionSpec) error
	// RegisterCallback attaches cb. The outcome is reported through
	// OnRegistered or OnRegistrationFailed.
	RegisterCallback(cb Callback)
	// UnregisterCallback detaches cb.
	UnregisterCallback(cb Callback) error
	// CurrentSessionInfo reports the session the source is running, if any.
	CurrentSessionInfo(ctx context.Context) (models.SessionInfo, error)
	// End stops the running session. It returns models.ErrNoActiveSession
	// when nothing is running.
	End(ctx context.Context) error
}
