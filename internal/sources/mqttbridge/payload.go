package mqttbridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

// Topic suffixes below the configured prefix.
const (
	TopicFrame        = "exercise/frame"
	TopicAvailability = "exercise/availability"
	TopicStatus       = "exercise/status"
	TopicCommand      = "exercise/command"
	TopicActivity     = "activity/state"
)

// Commands published on the command topic.
const (
	CommandPrepare  = "prepare"
	CommandActivate = "activate"
	CommandEnd      = "end"
)

// framePayload is the JSON body of a frame message. Absent fields were not
// measured.
type framePayload struct {
	Timestamp           *time.Time `json:"ts,omitempty"`
	HeartRateBPM        *float64   `json:"heart_rate,omitempty"`
	Steps               *int64     `json:"steps,omitempty"`
	CadenceSPM          *float64   `json:"cadence,omitempty"`
	CaloriesKcal        *float64   `json:"calories,omitempty"`
	DistanceMeters      *float64   `json:"distance,omitempty"`
	SpeedMPS            *float64   `json:"speed,omitempty"`
	PaceMsPerKm         *float64   `json:"pace,omitempty"`
	ElevationGainMeters *float64   `json:"elevation_gain,omitempty"`
	Floors              *float64   `json:"floors,omitempty"`
	ActiveDurationMs    *int64     `json:"active_duration_ms,omitempty"`
	CheckpointTime      *time.Time `json:"checkpoint_ts,omitempty"`
}

type availabilityPayload struct {
	Metric       string `json:"metric"`
	Availability string `json:"availability"`
}

type statusPayload struct {
	State        string `json:"state"`
	ExerciseType string `json:"exercise_type,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

type commandPayload struct {
	Command      string   `json:"command"`
	ExerciseType string   `json:"exercise_type,omitempty"`
	Metrics      []string `json:"metrics,omitempty"`
	AutoPause    bool     `json:"auto_pause,omitempty"`
	GPS          bool     `json:"gps,omitempty"`
}

// DecodeFrame parses a frame message. Frames without a timestamp are
// stamped with now.
func DecodeFrame(data []byte, now time.Time) (models.ExerciseMetricsFrame, error) {
	var p framePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return models.ExerciseMetricsFrame{}, fmt.Errorf("failed to decode frame: %w", err)
	}

	ts := now
	if p.Timestamp != nil {
		ts = *p.Timestamp
	}

	f := models.ExerciseMetricsFrame{
		Timestamp:           ts,
		HeartRateBPM:        p.HeartRateBPM,
		Steps:               p.Steps,
		CadenceSPM:          p.CadenceSPM,
		CaloriesKcal:        p.CaloriesKcal,
		DistanceMeters:      p.DistanceMeters,
		SpeedMPS:            p.SpeedMPS,
		PaceMsPerKm:         p.PaceMsPerKm,
		ElevationGainMeters: p.ElevationGainMeters,
		Floors:              p.Floors,
	}

	if p.ActiveDurationMs != nil {
		at := ts
		if p.CheckpointTime != nil {
			at = *p.CheckpointTime
		}
		f.Checkpoint = &models.ActiveDurationCheckpoint{
			Time:           at,
			ActiveDuration: time.Duration(*p.ActiveDurationMs) * time.Millisecond,
		}
	}

	return f, nil
}

// EncodeFrame renders a frame in the wire format DecodeFrame reads.
func EncodeFrame(f models.ExerciseMetricsFrame) ([]byte, error) {
	ts := f.Timestamp
	p := framePayload{
		Timestamp:           &ts,
		HeartRateBPM:        f.HeartRateBPM,
		Steps:               f.Steps,
		CadenceSPM:          f.CadenceSPM,
		CaloriesKcal:        f.CaloriesKcal,
		DistanceMeters:      f.DistanceMeters,
		SpeedMPS:            f.SpeedMPS,
		PaceMsPerKm:         f.PaceMsPerKm,
		ElevationGainMeters: f.ElevationGainMeters,
		Floors:              f.Floors,
	}
	if f.Checkpoint != nil {
		ms := f.Checkpoint.ActiveDuration.Milliseconds()
		at := f.Checkpoint.Time
		p.ActiveDurationMs = &ms
		p.CheckpointTime = &at
	}
	return json.Marshal(p)
}

// DecodeAvailability parses an availability message.
func DecodeAvailability(data []byte) (models.MetricType, models.Availability, error) {
	var p availabilityPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, 0, fmt.Errorf("failed to decode availability: %w", err)
	}
	metric, ok := models.ParseMetricType(p.Metric)
	if !ok {
		return 0, 0, fmt.Errorf("unknown metric %q", p.Metric)
	}
	return metric, models.ParseAvailability(strings.ToLower(p.Availability)), nil
}

// DecodeStatus parses a session status message. An empty payload clears
// the retained status and means idle.
func DecodeStatus(data []byte) (models.SessionInfo, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return models.SessionInfo{State: models.SessionIdle}, nil
	}
	var p statusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return models.SessionInfo{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return models.SessionInfo{
		State:        models.ParseSessionState(p.State),
		ExerciseType: p.ExerciseType,
		SessionID:    p.SessionID,
	}, nil
}

func encodeCommand(command string, spec models.SessionSpec) ([]byte, error) {
	p := commandPayload{
		Command:      command,
		ExerciseType: spec.ExerciseType,
		AutoPause:    spec.AutoPause,
		GPS:          spec.GPS,
	}
	for _, m := range spec.MetricTypes {
		p.Metrics = append(p.Metrics, m.String())
	}
	return json.Marshal(p)
}
