package models

import (
	"fmt"
	"time"
)

// TimeRange represents the selected sleep history window.
type TimeRange int

const (
	// TimeRangeLastNight covers the last 24 hours.
	TimeRangeLastNight TimeRange = iota
	// TimeRange3Days covers the last 3 days.
	TimeRange3Days
	// TimeRange7Days covers the last 7 days.
	TimeRange7Days
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRangeLastNight:
		return "Last Night"
	case TimeRange3Days:
		return "3 Days"
	case TimeRange7Days:
		return "7 Days"
	default:
		return "Unknown"
	}
}

// Days returns the number of days covered by the time range.
func (t TimeRange) Days() int {
	switch t {
	case TimeRangeLastNight:
		return 1
	case TimeRange3Days:
		return 3
	case TimeRange7Days:
		return 7
	default:
		return 3
	}
}

// Lookback returns the window length as a duration.
func (t TimeRange) Lookback() time.Duration {
	return time.Duration(t.Days()) * 24 * time.Hour
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 3
}

// Window is a closed-open instant range used to query historical records.
type Window struct {
	Start time.Time
	End   time.Time
}

// LookbackWindow returns the window ending at now and reaching back d.
func LookbackWindow(now time.Time, d time.Duration) Window {
	return Window{Start: now.Add(-d), End: now}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// SleepStage is a sleep stage tag. Tags outside the four canonical stages are
// kept verbatim so the summary computation can decide how to bucket them.
type SleepStage string

// Canonical sleep stages.
const (
	StageDeep  SleepStage = "deep"
	StageLight SleepStage = "light"
	StageREM   SleepStage = "rem"
	StageAwake SleepStage = "awake"
)

// Source tags that are counted as awake time.
const (
	StageAwakeInBed SleepStage = "awake_in_bed"
	StageOutOfBed   SleepStage = "out_of_bed"
)

// SleepStageInterval is one contiguous stretch of a single stage.
type SleepStageInterval struct {
	Start time.Time
	End   time.Time
	Stage SleepStage
}

// Duration returns the interval length, or zero for inverted intervals.
func (i SleepStageInterval) Duration() time.Duration {
	if i.End.Before(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// RecordType names a kind of historical record.
type RecordType string

// RecordTypeSleepSession is a sleep session with its stage intervals.
const RecordTypeSleepSession RecordType = "sleep_session"

// RawRecord is a historical record as returned by a record source.
type RawRecord struct {
	Start  time.Time
	End    time.Time
	ID     string
	Type   RecordType
	Title  string
	Notes  string
	Stages []SleepStageInterval
}

// SleepSummary is the per-stage minute breakdown of one sleep session.
type SleepSummary struct {
	TotalMinutes int
	DeepMinutes  int
	LightMinutes int
	REMMinutes   int
	AwakeMinutes int
}

// SleepPercentages is the per-stage share of the total, truncated to whole
// percent. The four values need not add up to 100.
type SleepPercentages struct {
	Deep  int
	Light int
	REM   int
	Awake int
}

// Sum returns the sum of the four shares.
func (p SleepPercentages) Sum() int {
	return p.Deep + p.Light + p.REM + p.Awake
}

// TotalHoursLabel formats the total sleep as hours with one decimal.
func (s SleepSummary) TotalHoursLabel() string {
	return fmt.Sprintf("%.1fh", float64(s.TotalMinutes)/60)
}

// SleepReport is a summary together with the session it was derived from.
type SleepReport struct {
	Start   time.Time
	End     time.Time
	ID      string
	Title   string
	Summary SleepSummary
	Shares  SleepPercentages
}
