package models

import "time"

// Gauges holds the latest instantaneous readings. A nil field has never been
// reported during the current session.
type Gauges struct {
	HeartRateBPM *float64
	CadenceSPM   *float64
	SpeedMPS     *float64
	PaceMsPerKm  *float64
}

// AggregateSnapshot is one published state of the aggregate. Snapshots are
// values: a new one is derived for every change and the old one is never
// modified.
type AggregateSnapshot struct {
	UpdatedAt      time.Time
	ActiveDuration *time.Duration
	Sleep          *SleepReport
	Availability   map[MetricType]Availability
	Gauges         Gauges
	SessionID      string
	Totals         CumulativeTotals
	Activity       ActivityState
	SessionState   SessionState
	Version        uint64
	SessionOn      bool
}

// AvailabilityOf returns the last reported availability of a metric.
func (s AggregateSnapshot) AvailabilityOf(m MetricType) Availability {
	if s.Availability == nil {
		return AvailabilityUnknown
	}
	return s.Availability[m]
}

// HasSleep reports whether a sleep summary has been loaded.
func (s AggregateSnapshot) HasSleep() bool {
	return s.Sleep != nil
}

// SnapshotPatch is a proposed partial update. Every nil field keeps the value
// of the previous snapshot.
type SnapshotPatch struct {
	HeartRateBPM        *float64
	CadenceSPM          *float64
	SpeedMPS            *float64
	PaceMsPerKm         *float64
	Steps               *int64
	CaloriesKcal        *float64
	DistanceMeters      *float64
	ElevationGainMeters *float64
	Floors              *float64
	ActiveDuration      *time.Duration
	Activity            *ActivityState
	Sleep               *SleepReport
	SessionOn           *bool
	SessionState        *SessionState
	SessionID           *string
	Availability        map[MetricType]Availability

	// ResetMetrics clears gauges, totals, active duration and availability
	// before the rest of the patch is applied.
	ResetMetrics bool
}

// IsEmpty reports whether applying the patch would change nothing.
func (p SnapshotPatch) IsEmpty() bool {
	return p.HeartRateBPM == nil && p.CadenceSPM == nil && p.SpeedMPS == nil &&
		p.PaceMsPerKm == nil && p.Steps == nil && p.CaloriesKcal == nil &&
		p.DistanceMeters == nil && p.ElevationGainMeters == nil && p.Floors == nil &&
		p.ActiveDuration == nil && p.Activity == nil && p.Sleep == nil &&
		p.SessionOn == nil && p.SessionState == nil && p.SessionID == nil &&
		len(p.Availability) == 0 && !p.ResetMetrics
}

// Apply derives the next snapshot from prev. prev is left untouched.
func (p SnapshotPatch) Apply(prev AggregateSnapshot) AggregateSnapshot {
	next := prev

	if p.ResetMetrics {
		next.Gauges = Gauges{}
		next.Totals = CumulativeTotals{}
		next.ActiveDuration = nil
		next.Availability = nil
	}

	next.Gauges.HeartRateBPM = keepFloat(next.Gauges.HeartRateBPM, p.HeartRateBPM)
	next.Gauges.CadenceSPM = keepFloat(next.Gauges.CadenceSPM, p.CadenceSPM)
	next.Gauges.SpeedMPS = keepFloat(next.Gauges.SpeedMPS, p.SpeedMPS)
	next.Gauges.PaceMsPerKm = keepFloat(next.Gauges.PaceMsPerKm, p.PaceMsPerKm)

	if p.Steps != nil {
		next.Totals.Steps = *p.Steps
	}
	if p.CaloriesKcal != nil {
		next.Totals.CaloriesKcal = *p.CaloriesKcal
	}
	if p.DistanceMeters != nil {
		next.Totals.DistanceMeters = *p.DistanceMeters
	}
	if p.ElevationGainMeters != nil {
		next.Totals.ElevationGainMeters = *p.ElevationGainMeters
	}
	if p.Floors != nil {
		next.Totals.Floors = *p.Floors
	}

	if p.ActiveDuration != nil {
		d := *p.ActiveDuration
		next.ActiveDuration = &d
	}
	if p.Activity != nil {
		next.Activity = *p.Activity
	}
	if p.Sleep != nil {
		report := *p.Sleep
		next.Sleep = &report
	}
	if p.SessionOn != nil {
		next.SessionOn = *p.SessionOn
	}
	if p.SessionState != nil {
		next.SessionState = *p.SessionState
	}
	if p.SessionID != nil {
		next.SessionID = *p.SessionID
	}

	if len(p.Availability) > 0 {
		merged := make(map[MetricType]Availability, len(next.Availability)+len(p.Availability))
		for k, v := range next.Availability {
			merged[k] = v
		}
		for k, v := range p.Availability {
			merged[k] = v
		}
		next.Availability = merged
	}

	return next
}

func keepFloat(prev, override *float64) *float64 {
	if override == nil {
		return prev
	}
	v := *override
	return &v
}
