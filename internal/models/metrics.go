// Package models defines data structures and domain types.
package models

import "time"

// MetricType identifies a single exercise measurement.
type MetricType int

const (
	// MetricHeartRate is the current heart rate in beats per minute.
	MetricHeartRate MetricType = iota
	// MetricSteps is the number of steps taken since the previous frame.
	MetricSteps
	// MetricCadence is the current step rate in steps per minute.
	MetricCadence
	// MetricCalories is the energy burned since the previous frame, in kcal.
	MetricCalories
	// MetricDistance is the distance covered since the previous frame, in meters.
	MetricDistance
	// MetricSpeed is the current speed in meters per second.
	MetricSpeed
	// MetricPace is the current pace in milliseconds per kilometer.
	MetricPace
	// MetricElevationGain is the elevation gained since the previous frame, in meters.
	MetricElevationGain
	// MetricFloors is the number of floors climbed since the previous frame.
	MetricFloors
)

// AllMetricTypes lists every metric an exercise session can request.
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricHeartRate,
		MetricSteps,
		MetricCadence,
		MetricCalories,
		MetricDistance,
		MetricSpeed,
		MetricPace,
		MetricElevationGain,
		MetricFloors,
	}
}

var metricNames = map[MetricType]string{
	MetricHeartRate:     "heart_rate",
	MetricSteps:         "steps",
	MetricCadence:       "cadence",
	MetricCalories:      "calories",
	MetricDistance:      "distance",
	MetricSpeed:         "speed",
	MetricPace:          "pace",
	MetricElevationGain: "elevation_gain",
	MetricFloors:        "floors",
}

// String returns the wire name of a metric type.
func (m MetricType) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMetricType resolves a wire name back to a metric type.
func ParseMetricType(name string) (MetricType, bool) {
	for m, n := range metricNames {
		if n == name {
			return m, true
		}
	}
	return 0, false
}

// MetricKind distinguishes accruing measurements from instantaneous ones.
type MetricKind int

const (
	// KindGauge is an instantaneous absolute reading.
	KindGauge MetricKind = iota
	// KindDelta is a non-negative increment since the previous emission.
	KindDelta
)

// String returns the display name for a metric kind.
func (k MetricKind) String() string {
	if k == KindDelta {
		return "DELTA"
	}
	return "GAUGE"
}

// Kind reports whether the metric is a delta or a gauge.
func (m MetricType) Kind() MetricKind {
	switch m {
	case MetricSteps, MetricCalories, MetricDistance, MetricElevationGain, MetricFloors:
		return KindDelta
	default:
		return KindGauge
	}
}

// Unit returns the display unit of a metric.
func (m MetricType) Unit() string {
	switch m {
	case MetricHeartRate:
		return "bpm"
	case MetricSteps:
		return "steps"
	case MetricCadence:
		return "spm"
	case MetricCalories:
		return "kcal"
	case MetricDistance, MetricElevationGain:
		return "m"
	case MetricSpeed:
		return "m/s"
	case MetricPace:
		return "ms/km"
	case MetricFloors:
		return "floors"
	default:
		return ""
	}
}

// MetricSample is one timestamped scalar reading.
type MetricSample struct {
	Timestamp time.Time
	Type      MetricType
	Kind      MetricKind
	Value     float64
}

// NewSample creates a sample whose kind is derived from its metric type.
func NewSample(metric MetricType, value float64, ts time.Time) MetricSample {
	return MetricSample{
		Timestamp: ts,
		Type:      metric,
		Kind:      metric.Kind(),
		Value:     value,
	}
}

// ActiveDurationCheckpoint pairs an accumulated active duration with the
// moment it was recorded.
type ActiveDurationCheckpoint struct {
	Time           time.Time
	ActiveDuration time.Duration
}

// ActiveDurationAt derives the active duration at now from the checkpoint.
func (c ActiveDurationCheckpoint) ActiveDurationAt(now time.Time) time.Duration {
	elapsed := now.Sub(c.Time)
	if elapsed < 0 {
		elapsed = 0
	}
	return c.ActiveDuration + elapsed
}

// ExerciseMetricsFrame is a bundle of measurements emitted atomically per
// update. Every field is optional; a nil field was not reported.
type ExerciseMetricsFrame struct {
	Timestamp           time.Time
	HeartRateBPM        *float64
	Steps               *int64
	CadenceSPM          *float64
	CaloriesKcal        *float64
	DistanceMeters      *float64
	SpeedMPS            *float64
	PaceMsPerKm         *float64
	ElevationGainMeters *float64
	Floors              *float64
	Checkpoint          *ActiveDurationCheckpoint
}

// NewFrame builds a frame from samples. When a metric appears more than once
// the last sample wins.
func NewFrame(ts time.Time, samples ...MetricSample) ExerciseMetricsFrame {
	f := ExerciseMetricsFrame{Timestamp: ts}
	for _, s := range samples {
		v := s.Value
		switch s.Type {
		case MetricHeartRate:
			f.HeartRateBPM = &v
		case MetricSteps:
			steps := int64(v)
			f.Steps = &steps
		case MetricCadence:
			f.CadenceSPM = &v
		case MetricCalories:
			f.CaloriesKcal = &v
		case MetricDistance:
			f.DistanceMeters = &v
		case MetricSpeed:
			f.SpeedMPS = &v
		case MetricPace:
			f.PaceMsPerKm = &v
		case MetricElevationGain:
			f.ElevationGainMeters = &v
		case MetricFloors:
			f.Floors = &v
		}
	}
	return f
}

// Samples flattens the frame back into individual samples.
func (f ExerciseMetricsFrame) Samples() []MetricSample {
	var out []MetricSample
	add := func(m MetricType, v *float64) {
		if v != nil {
			out = append(out, NewSample(m, *v, f.Timestamp))
		}
	}
	add(MetricHeartRate, f.HeartRateBPM)
	if f.Steps != nil {
		out = append(out, NewSample(MetricSteps, float64(*f.Steps), f.Timestamp))
	}
	add(MetricCadence, f.CadenceSPM)
	add(MetricCalories, f.CaloriesKcal)
	add(MetricDistance, f.DistanceMeters)
	add(MetricSpeed, f.SpeedMPS)
	add(MetricPace, f.PaceMsPerKm)
	add(MetricElevationGain, f.ElevationGainMeters)
	add(MetricFloors, f.Floors)
	return out
}

// IsEmpty reports whether the frame carries no measurement at all.
func (f ExerciseMetricsFrame) IsEmpty() bool {
	return len(f.Samples()) == 0 && f.Checkpoint == nil
}

// Availability describes whether the source can currently supply a metric.
type Availability int

const (
	// AvailabilityUnknown means the source has not reported anything yet.
	AvailabilityUnknown Availability = iota
	// AvailabilityAvailable means readings are flowing.
	AvailabilityAvailable
	// AvailabilityAcquiring means the sensor is warming up.
	AvailabilityAcquiring
	// AvailabilityUnavailable means the sensor cannot produce readings.
	AvailabilityUnavailable
)

// String returns the display name for an availability value.
func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityAcquiring:
		return "acquiring"
	case AvailabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ParseAvailability resolves a wire name to an availability value.
func ParseAvailability(s string) Availability {
	switch s {
	case "available":
		return AvailabilityAvailable
	case "acquiring":
		return AvailabilityAcquiring
	case "unavailable":
		return AvailabilityUnavailable
	default:
		return AvailabilityUnknown
	}
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
