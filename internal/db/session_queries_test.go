package db

import (
	"context"
	"testing"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

func TestSessionEvents(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	events := []models.SessionEvent{
		{SessionID: "s1", EventType: models.SessionEventStarted, Timestamp: wake},
		{SessionID: "s2", EventType: models.SessionEventReused, Timestamp: wake.Add(time.Minute)},
		{SessionID: "s1", EventType: models.SessionEventStopped, Detail: "user", Timestamp: wake.Add(time.Hour)},
	}
	for _, ev := range events {
		if err := db.InsertSessionEvent(ctx, ev); err != nil {
			t.Fatalf("InsertSessionEvent failed: %v", err)
		}
	}

	got, err := db.GetSessionEvents(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].EventType != models.SessionEventStarted || got[1].EventType != models.SessionEventStopped {
		t.Errorf("unexpected order: %+v", got)
	}
	if got[1].Detail != "user" {
		t.Errorf("Detail = %q, want user", got[1].Detail)
	}
	if !got[0].Timestamp.Equal(wake) {
		t.Errorf("Timestamp = %v, want %v", got[0].Timestamp, wake)
	}
}

func TestWorkouts(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	first := &models.Workout{
		SessionID:      "run-1",
		ExerciseType:   "running",
		StartedAt:      wake,
		EndedAt:        wake.Add(30 * time.Minute),
		ActiveDuration: 28 * time.Minute,
		Totals:         models.CumulativeTotals{Steps: 4200, CaloriesKcal: 310.5, DistanceMeters: 5012},
		MaxHeartRate:   171,
	}
	second := &models.Workout{
		SessionID: "run-2",
		StartedAt: wake.Add(24 * time.Hour),
		EndedAt:   wake.Add(25 * time.Hour),
		Totals:    models.CumulativeTotals{Floors: 3},
	}

	for _, w := range []*models.Workout{first, second} {
		if err := db.InsertWorkout(ctx, w); err != nil {
			t.Fatalf("InsertWorkout failed: %v", err)
		}
		if w.ID == 0 {
			t.Error("InsertWorkout should set the id")
		}
	}

	got, err := db.GetRecentWorkouts(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentWorkouts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d workouts, want 2", len(got))
	}
	if got[0].SessionID != "run-2" {
		t.Errorf("newest workout = %q, want run-2", got[0].SessionID)
	}

	run := got[1]
	if run.Totals != first.Totals {
		t.Errorf("Totals = %+v, want %+v", run.Totals, first.Totals)
	}
	if run.ActiveDuration != 28*time.Minute {
		t.Errorf("ActiveDuration = %v, want 28m", run.ActiveDuration)
	}
	if run.MaxHeartRate != 171 || run.ExerciseType != "running" {
		t.Errorf("unexpected workout %+v", run)
	}

	limited, _ := db.GetRecentWorkouts(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit not applied, got %d", len(limited))
	}
}
