package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

var wake = time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

func nightRecord(id string, end time.Time) *models.RawRecord {
	start := end.Add(-8 * time.Hour)
	return &models.RawRecord{
		ID:    id,
		Type:  models.RecordTypeSleepSession,
		Start: start,
		End:   end,
		Title: "Night",
		Stages: []models.SleepStageInterval{
			{Start: start.Add(3 * time.Hour), End: end, Stage: models.StageDeep},
			{Start: start, End: start.Add(3 * time.Hour), Stage: models.StageLight},
		},
	}
}

func TestInsertAndQuerySleepSessions(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, rec := range []*models.RawRecord{
		nightRecord("older", wake.Add(-24*time.Hour)),
		nightRecord("latest", wake),
	} {
		if err := db.InsertSleepSession(ctx, rec); err != nil {
			t.Fatalf("InsertSleepSession(%s) failed: %v", rec.ID, err)
		}
	}

	records, err := db.Query(ctx, models.RecordTypeSleepSession, models.LookbackWindow(wake.Add(time.Hour), 72*time.Hour))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "older" || records[1].ID != "latest" {
		t.Errorf("records not in insertion order: %s, %s", records[0].ID, records[1].ID)
	}

	latest := records[1]
	if !latest.End.Equal(wake) {
		t.Errorf("End = %v, want %v", latest.End, wake)
	}
	if latest.Title != "Night" {
		t.Errorf("Title = %q, want Night", latest.Title)
	}
	if len(latest.Stages) != 2 {
		t.Fatalf("got %d stages, want 2", len(latest.Stages))
	}
	if latest.Stages[0].Stage != models.StageLight || latest.Stages[1].Stage != models.StageDeep {
		t.Errorf("stages not sorted by start: %+v", latest.Stages)
	}
}

func TestQuery_WindowFilters(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.InsertSleepSession(ctx, nightRecord("last-night", wake))
	_ = db.InsertSleepSession(ctx, nightRecord("last-week", wake.Add(-7*24*time.Hour)))

	records, err := db.Query(ctx, models.RecordTypeSleepSession, models.LookbackWindow(wake.Add(2*time.Hour), 24*time.Hour))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "last-night" {
		t.Errorf("records = %+v, want only last-night", records)
	}

	empty, err := db.Query(ctx, models.RecordTypeSleepSession, models.LookbackWindow(wake.Add(72*time.Hour), 24*time.Hour))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no records, got %d", len(empty))
	}
}

func TestQuery_UnsupportedType(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, err := db.Query(context.Background(), "heart_rate", models.Window{}); err == nil {
		t.Error("Query should reject unsupported record types")
	}
}

func TestInsertSleepSession_AssignsIDAndReplaces(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	rec := nightRecord("", wake)
	if err := db.InsertSleepSession(ctx, rec); err != nil {
		t.Fatalf("InsertSleepSession failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("an id should be assigned")
	}

	rec.Stages = rec.Stages[:1]
	if err := db.InsertSleepSession(ctx, rec); err != nil {
		t.Fatalf("re-insert failed: %v", err)
	}

	n, err := db.CountSleepSessions(ctx)
	if err != nil {
		t.Fatalf("CountSleepSessions failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountSleepSessions = %d, want 1", n)
	}

	records, _ := db.Query(ctx, models.RecordTypeSleepSession, models.LookbackWindow(wake, 24*time.Hour))
	if len(records) != 1 || len(records[0].Stages) != 1 {
		t.Errorf("replace should rewrite stages, got %+v", records)
	}
}

func TestInsertSleepSession_RejectsInverted(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	rec := &models.RawRecord{ID: "bad", Start: wake, End: wake.Add(-time.Hour)}
	if err := db.InsertSleepSession(context.Background(), rec); err == nil {
		t.Error("inverted session should be rejected")
	}
}

func TestDeleteSleepSession(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.InsertSleepSession(ctx, nightRecord("gone", wake))
	if err := db.DeleteSleepSession(ctx, "gone"); err != nil {
		t.Fatalf("DeleteSleepSession failed: %v", err)
	}

	var stages int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sleep_stages").Scan(&stages)
	if stages != 0 {
		t.Errorf("stages left behind: %d", stages)
	}

	if err := db.DeleteSleepSession(ctx, "gone"); !errors.Is(err, ErrSleepSessionNotFound) {
		t.Errorf("second delete = %v, want ErrSleepSessionNotFound", err)
	}
}

func TestInsertSleepSession_ReimportKeepsSourceOrder(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, id := range []string{"first", "second"} {
		if err := db.InsertSleepSession(ctx, nightRecord(id, wake)); err != nil {
			t.Fatalf("InsertSleepSession(%s) failed: %v", id, err)
		}
	}

	again := nightRecord("first", wake)
	again.Title = "Edited"
	if err := db.InsertSleepSession(ctx, again); err != nil {
		t.Fatalf("re-insert failed: %v", err)
	}

	records, err := db.Query(ctx, models.RecordTypeSleepSession, models.LookbackWindow(wake, 24*time.Hour))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "first" || records[1].ID != "second" {
		t.Errorf("order = %s, %s; re-import should keep the original position", records[0].ID, records[1].ID)
	}
	if records[0].Title != "Edited" {
		t.Errorf("Title = %q, want Edited", records[0].Title)
	}
}

func TestParseTime(t *testing.T) {
	if got := parseTime("2024-03-10 07:00:00"); !got.Equal(wake) {
		t.Errorf("parseTime() = %v, want %v", got, wake)
	}
	if got := parseTime("2024-03-10T07:00:00Z"); !got.Equal(wake) {
		t.Errorf("parseTime(RFC3339) = %v, want %v", got, wake)
	}
	if got := parseTime("yesterday"); !got.IsZero() {
		t.Errorf("parseTime(garbage) = %v, want zero", got)
	}
}
