package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

// InsertSessionEvent appends an entry to the session audit log.
func (db *DB) InsertSessionEvent(ctx context.Context, ev models.SessionEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO session_events (session_id, event_type, detail, timestamp)
		VALUES (?, ?, ?, ?)
	`, ev.SessionID, ev.EventType, nullString(ev.Detail), formatTime(ts))
	if err != nil {
		return fmt.Errorf("failed to insert session event: %w", err)
	}
	return nil
}

// GetSessionEvents returns the audit log of a session, oldest first.
func (db *DB) GetSessionEvents(ctx context.Context, sessionID string) ([]models.SessionEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, event_type, detail, timestamp
		FROM session_events
		WHERE session_id = ?
		ORDER BY timestamp, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var events []models.SessionEvent
	for rows.Next() {
		var ev models.SessionEvent
		var detail sql.NullString
		var ts string
		if err := rows.Scan(&ev.SessionID, &ev.EventType, &detail, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		ev.Detail = detail.String
		ev.Timestamp = parseTime(ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// InsertWorkout stores the final totals of an exercise session.
func (db *DB) InsertWorkout(ctx context.Context, w *models.Workout) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO workouts (
			session_id, exercise_type, started_at, ended_at, active_seconds,
			steps, calories, distance_m, elevation_gain_m, floors, max_heart_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.SessionID,
		nullString(w.ExerciseType),
		formatTime(w.StartedAt),
		formatTime(w.EndedAt),
		int64(w.ActiveDuration/time.Second),
		w.Totals.Steps,
		w.Totals.CaloriesKcal,
		w.Totals.DistanceMeters,
		w.Totals.ElevationGainMeters,
		w.Totals.Floors,
		w.MaxHeartRate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		w.ID = id
	}
	return nil
}

// GetRecentWorkouts returns the most recently finished workouts.
func (db *DB) GetRecentWorkouts(ctx context.Context, limit int) ([]models.Workout, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, exercise_type, started_at, ended_at, active_seconds,
			   steps, calories, distance_m, elevation_gain_m, floors, max_heart_rate
		FROM workouts
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var workouts []models.Workout
	for rows.Next() {
		var w models.Workout
		var exerciseType sql.NullString
		var startedStr, endedStr string
		var activeSecs int64

		err := rows.Scan(
			&w.ID,
			&w.SessionID,
			&exerciseType,
			&startedStr,
			&endedStr,
			&activeSecs,
			&w.Totals.Steps,
			&w.Totals.CaloriesKcal,
			&w.Totals.DistanceMeters,
			&w.Totals.ElevationGainMeters,
			&w.Totals.Floors,
			&w.MaxHeartRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}

		w.ExerciseType = exerciseType.String
		w.StartedAt = parseTime(startedStr)
		w.EndedAt = parseTime(endedStr)
		w.ActiveDuration = time.Duration(activeSecs) * time.Second
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}
