// Package sleep derives per-stage sleep summaries from historical records.
package sleep

import (
	"fmt"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

type bucket int

const (
	bucketAwake bucket = iota
	bucketLight
	bucketDeep
	bucketREM
)

// classify maps a stage tag to its bucket. Unrecognized tags land in the
// awake bucket and are reported with ErrStageUnrecognized.
func classify(stage models.SleepStage) (bucket, error) {
	switch stage {
	case models.StageDeep:
		return bucketDeep, nil
	case models.StageLight:
		return bucketLight, nil
	case models.StageREM:
		return bucketREM, nil
	case models.StageAwake, models.StageAwakeInBed, models.StageOutOfBed:
		return bucketAwake, nil
	default:
		return bucketAwake, fmt.Errorf("%w: %q", models.ErrStageUnrecognized, stage)
	}
}

// Compute sums interval durations per stage. Each interval contributes its
// length in whole minutes, truncated toward zero. The total is never below
// one so that callers can divide by it.
func Compute(intervals []models.SleepStageInterval) models.SleepSummary {
	var s models.SleepSummary

	for _, iv := range intervals {
		minutes := int(iv.Duration() / time.Minute)

		b, _ := classify(iv.Stage)
		switch b {
		case bucketDeep:
			s.DeepMinutes += minutes
		case bucketLight:
			s.LightMinutes += minutes
		case bucketREM:
			s.REMMinutes += minutes
		default:
			s.AwakeMinutes += minutes
		}
	}

	s.TotalMinutes = max(1, s.DeepMinutes+s.LightMinutes+s.REMMinutes+s.AwakeMinutes)
	return s
}

// Unrecognized returns the classification error of every interval whose
// stage tag is outside the known set.
func Unrecognized(intervals []models.SleepStageInterval) []error {
	var errs []error
	for _, iv := range intervals {
		if _, err := classify(iv.Stage); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Percentages returns each stage as a whole percent of the total, truncated.
// The shares are not adjusted to add up to 100.
func Percentages(s models.SleepSummary) models.SleepPercentages {
	total := max(1, s.TotalMinutes)
	return models.SleepPercentages{
		Deep:  s.DeepMinutes * 100 / total,
		Light: s.LightMinutes * 100 / total,
		REM:   s.REMMinutes * 100 / total,
		Awake: s.AwakeMinutes * 100 / total,
	}
}

// SelectLatest returns the sleep session with the latest end time, or nil
// when there is none. Sessions with equal end times keep source order: the
// first one seen wins.
func SelectLatest(records []models.RawRecord) *models.RawRecord {
	var latest *models.RawRecord
	for i := range records {
		if records[i].Type != models.RecordTypeSleepSession {
			continue
		}
		if latest == nil || records[i].End.After(latest.End) {
			latest = &records[i]
		}
	}
	return latest
}

// NewReport summarizes one sleep session record.
func NewReport(rec models.RawRecord) models.SleepReport {
	summary := Compute(rec.Stages)
	return models.SleepReport{
		Start:   rec.Start,
		End:     rec.End,
		ID:      rec.ID,
		Title:   rec.Title,
		Summary: summary,
		Shares:  Percentages(summary),
	}
}
