package exercise

import (
	"math"
	"sync"
	"time"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

// Aggregator folds frames into cumulative totals. Delta fields are added to
// the running totals and published as the new total; gauge fields pass
// through. Fields absent from a frame are absent from the resulting patch.
type Aggregator struct {
	mu             sync.Mutex
	now            func() time.Time
	activeDuration *time.Duration
	totals         models.CumulativeTotals
	maxHeartRate   float64
}

// NewAggregator creates an aggregator with zeroed totals.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now}
}

// Reset zeroes the totals. Call it only when a fresh session starts.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals = models.CumulativeTotals{}
	a.activeDuration = nil
	a.maxHeartRate = 0
}

// Totals returns a copy of the running totals.
func (a *Aggregator) Totals() models.CumulativeTotals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals
}

// ActiveDuration returns the last derived active duration.
func (a *Aggregator) ActiveDuration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeDuration == nil {
		return 0
	}
	return *a.activeDuration
}

// MaxHeartRate returns the highest heart rate seen since the last reset.
func (a *Aggregator) MaxHeartRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxHeartRate
}

// Apply folds one frame and returns the resulting snapshot patch.
func (a *Aggregator) Apply(frame models.ExerciseMetricsFrame) models.SnapshotPatch {
	a.mu.Lock()
	defer a.mu.Unlock()

	var p models.SnapshotPatch

	// Gauges
	p.HeartRateBPM = copyFloat(frame.HeartRateBPM)
	p.CadenceSPM = copyFloat(frame.CadenceSPM)
	p.SpeedMPS = copyFloat(frame.SpeedMPS)
	p.PaceMsPerKm = copyFloat(frame.PaceMsPerKm)
	if frame.HeartRateBPM != nil && *frame.HeartRateBPM > a.maxHeartRate {
		a.maxHeartRate = *frame.HeartRateBPM
	}

	// Deltas
	if frame.Steps != nil {
		if *frame.Steps < 0 {
			rejectDelta(models.MetricSteps, float64(*frame.Steps))
		} else {
			a.totals.Steps += *frame.Steps
			p.Steps = models.Int64(a.totals.Steps)
		}
	}
	p.CaloriesKcal = a.accumulate(models.MetricCalories, frame.CaloriesKcal, &a.totals.CaloriesKcal)
	p.DistanceMeters = a.accumulate(models.MetricDistance, frame.DistanceMeters, &a.totals.DistanceMeters)
	p.ElevationGainMeters = a.accumulate(models.MetricElevationGain, frame.ElevationGainMeters, &a.totals.ElevationGainMeters)
	p.Floors = a.accumulate(models.MetricFloors, frame.Floors, &a.totals.Floors)

	if frame.Checkpoint != nil {
		d := frame.Checkpoint.ActiveDurationAt(a.now())
		// Never publish a shorter duration than before.
		if a.activeDuration != nil && d < *a.activeDuration {
			d = *a.activeDuration
		}
		a.activeDuration = &d
		p.ActiveDuration = &d
	}

	return p
}

func (a *Aggregator) accumulate(metric models.MetricType, delta *float64, total *float64) *float64 {
	if delta == nil {
		return nil
	}
	if *delta < 0 || math.IsNaN(*delta) || math.IsInf(*delta, 0) {
		rejectDelta(metric, *delta)
		return nil
	}
	*total += *delta
	return models.Float64(*total)
}

func rejectDelta(metric models.MetricType, value float64) {
	logger.Warn("ignoring invalid delta", "metric", metric.String(), "value", value)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float64(*v)
}
