package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

// ErrSleepSessionNotFound is returned when deleting an unknown sleep session.
var ErrSleepSessionNotFound = errors.New("sleep session not found")

// InsertSleepSession stores a sleep session and its stages. A record with an
// existing id updates the stored one in place, keeping its insertion order. Records without an id get a new one,
// which is written back to rec.
func (db *DB) InsertSleepSession(ctx context.Context, rec *models.RawRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Type == "" {
		rec.Type = models.RecordTypeSleepSession
	}
	if rec.End.Before(rec.Start) {
		return fmt.Errorf("sleep session %s ends before it starts", rec.ID)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sleep_stages WHERE session_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear sleep stages: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sleep_sessions (id, start_time, end_time, title, notes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			title = excluded.title,
			notes = excluded.notes
	`,
		rec.ID,
		formatTime(rec.Start),
		formatTime(rec.End),
		nullString(rec.Title),
		nullString(rec.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sleep session: %w", err)
	}

	for _, st := range rec.Stages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sleep_stages (session_id, start_time, end_time, stage)
			VALUES (?, ?, ?, ?)
		`, rec.ID, formatTime(st.Start), formatTime(st.End), string(st.Stage))
		if err != nil {
			return fmt.Errorf("failed to insert sleep stage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sleep session: %w", err)
	}
	return nil
}

// DeleteSleepSession removes a sleep session and its stages.
func (db *DB) DeleteSleepSession(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sleep_stages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sleep stages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sleep_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sleep session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSleepSessionNotFound, id)
	}
	return tx.Commit()
}

// Query returns the records of the given type overlapping window, in
// insertion order. Stages are sorted by start time.
func (db *DB) Query(ctx context.Context, recordType models.RecordType, window models.Window) ([]models.RawRecord, error) {
	if recordType != models.RecordTypeSleepSession {
		return nil, fmt.Errorf("unsupported record type %q", recordType)
	}

	records, err := db.querySleepSessions(ctx, window)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(records))
	for i, r := range records {
		index[r.ID] = i
	}

	rows, err := db.QueryContext(ctx, `
		SELECT st.session_id, st.start_time, st.end_time, st.stage
		FROM sleep_stages st
		JOIN sleep_sessions s ON s.id = st.session_id
		WHERE s.start_time < ? AND s.end_time > ?
		ORDER BY st.session_id, st.start_time, st.id
	`, formatTime(window.End), formatTime(window.Start))
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep stages: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var sessionID, startStr, endStr, stage string
		if err := rows.Scan(&sessionID, &startStr, &endStr, &stage); err != nil {
			return nil, fmt.Errorf("failed to scan sleep stage: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		records[i].Stages = append(records[i].Stages, models.SleepStageInterval{
			Start: parseTime(startStr),
			End:   parseTime(endStr),
			Stage: models.SleepStage(stage),
		})
	}

	return records, rows.Err()
}

func (db *DB) querySleepSessions(ctx context.Context, window models.Window) ([]models.RawRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, start_time, end_time, title, notes
		FROM sleep_sessions
		WHERE start_time < ? AND end_time > ?
		ORDER BY rowid
	`, formatTime(window.End), formatTime(window.Start))
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep sessions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var records []models.RawRecord
	for rows.Next() {
		var rec models.RawRecord
		var startStr, endStr string
		var title, notes sql.NullString

		if err := rows.Scan(&rec.ID, &startStr, &endStr, &title, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan sleep session: %w", err)
		}

		rec.Type = models.RecordTypeSleepSession
		rec.Start = parseTime(startStr)
		rec.End = parseTime(endStr)
		rec.Title = title.String
		rec.Notes = notes.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountSleepSessions returns the number of stored sleep sessions.
func (db *DB) CountSleepSessions(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sleep_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sleep sessions: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		// Fall back to RFC3339 for rows written by other tools.
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2.UTC()
		}
		logger.Warn("failed to parse stored time", "value", s, "error", err)
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
