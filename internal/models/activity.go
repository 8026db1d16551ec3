package models

// ActivityState is the coarse passive state of the wearer.
type ActivityState int

const (
	// ActivityUnknown is the state before any classification arrives, and
	// the target of every unrecognized classification.
	ActivityUnknown ActivityState = iota
	// ActivityAsleep means the wearer is asleep.
	ActivityAsleep
	// ActivityAwake means the wearer is awake and passive.
	ActivityAwake
	// ActivityExercising means an exercise is in progress.
	ActivityExercising
)

// String returns the display label for an activity state.
func (a ActivityState) String() string {
	switch a {
	case ActivityAsleep:
		return "Asleep"
	case ActivityAwake:
		return "Awake"
	case ActivityExercising:
		return "Exercise"
	default:
		return "Unknown"
	}
}
