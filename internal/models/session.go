package models

import "time"

// SessionState is the lifecycle state of the exercise session.
type SessionState int

const (
	// SessionIdle means no session is running.
	SessionIdle SessionState = iota
	// SessionPreparing means sensors are warming up before activation.
	SessionPreparing
	// SessionActive means the session is recording.
	SessionActive
	// SessionEnding means an end request is in flight.
	SessionEnding
)

// String returns the display name for a session state.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "Idle"
	case SessionPreparing:
		return "Preparing"
	case SessionActive:
		return "Active"
	case SessionEnding:
		return "Ending"
	default:
		return "Unknown"
	}
}

// ParseSessionState resolves a wire name to a session state.
func ParseSessionState(s string) SessionState {
	switch s {
	case "preparing", "Preparing":
		return SessionPreparing
	case "active", "Active":
		return SessionActive
	case "ending", "Ending":
		return SessionEnding
	default:
		return SessionIdle
	}
}

// SessionInfo is what the measurement source reports about its current session.
type SessionInfo struct {
	State        SessionState
	ExerciseType string
	SessionID    string
}

// IsActive reports whether the source already has a recording session. A
// session that is still preparing does not count: it was never activated.
func (i SessionInfo) IsActive() bool {
	return i.State == SessionActive
}

// SessionSpec is the fixed configuration sent to the source on start.
type SessionSpec struct {
	ExerciseType string
	MetricTypes  []MetricType
	AutoPause    bool
	GPS          bool
}

// DefaultSessionSpec requests every metric for a running session with
// auto-pause and location disabled.
func DefaultSessionSpec() SessionSpec {
	return SessionSpec{
		ExerciseType: "running",
		MetricTypes:  AllMetricTypes(),
	}
}

// CumulativeTotals holds running sums of delta metrics for one session.
type CumulativeTotals struct {
	Steps               int64
	CaloriesKcal        float64
	DistanceMeters      float64
	ElevationGainMeters float64
	Floors              float64
}

// IsZero reports whether nothing has accrued yet.
func (t CumulativeTotals) IsZero() bool {
	return t == CumulativeTotals{}
}

// Workout is a persisted record of a finished exercise session.
type Workout struct {
	StartedAt      time.Time
	EndedAt        time.Time
	SessionID      string
	ExerciseType   string
	Totals         CumulativeTotals
	ActiveDuration time.Duration
	MaxHeartRate   float64
	ID             int64
}

// SessionEvent is one entry in the session audit log.
type SessionEvent struct {
	Timestamp time.Time
	SessionID string
	EventType string
	Detail    string
}

// Session event types.
const (
	SessionEventStarted = "started"
	SessionEventReused  = "reused"
	SessionEventStopped = "stopped"
	SessionEventFailed  = "failed"
)
