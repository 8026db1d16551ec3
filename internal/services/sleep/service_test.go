package sleep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

type fakeRecordSource struct {
	records []models.RawRecord
	err     error
	windows []models.Window
}

func (f *fakeRecordSource) Query(_ context.Context, _ models.RecordType, window models.Window) ([]models.RawRecord, error) {
	f.windows = append(f.windows, window)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RawRecord
	for _, r := range f.records {
		if window.Contains(r.End) {
			out = append(out, r)
		}
	}
	return out, nil
}

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func sleepRecord(id string, end time.Time, stages ...models.SleepStageInterval) models.RawRecord {
	return models.RawRecord{
		ID:     id,
		Type:   models.RecordTypeSleepSession,
		Start:  end.Add(-8 * time.Hour),
		End:    end,
		Stages: stages,
	}
}

func TestService_LastNight(t *testing.T) {
	lastNightEnd := now.Add(-2 * time.Hour)
	src := &fakeRecordSource{records: []models.RawRecord{
		sleepRecord("two-nights-ago", now.Add(-26*time.Hour),
			models.SleepStageInterval{Start: now.Add(-30 * time.Hour), End: now.Add(-26 * time.Hour), Stage: models.StageDeep}),
		sleepRecord("nap", now.Add(-20*time.Hour),
			models.SleepStageInterval{Start: now.Add(-21 * time.Hour), End: now.Add(-20 * time.Hour), Stage: models.StageLight}),
		sleepRecord("last-night", lastNightEnd,
			models.SleepStageInterval{Start: lastNightEnd.Add(-8 * time.Hour), End: lastNightEnd.Add(-5 * time.Hour), Stage: models.StageLight},
			models.SleepStageInterval{Start: lastNightEnd.Add(-5 * time.Hour), End: lastNightEnd, Stage: models.StageDeep}),
	}}

	svc := New(src, WithClock(func() time.Time { return now }))

	report, err := svc.LastNight(context.Background())
	if err != nil {
		t.Fatalf("LastNight failed: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report")
	}
	if report.ID != "last-night" {
		t.Errorf("ID = %q, want last-night", report.ID)
	}
	want := models.SleepSummary{TotalMinutes: 480, LightMinutes: 180, DeepMinutes: 300}
	if report.Summary != want {
		t.Errorf("Summary = %+v, want %+v", report.Summary, want)
	}
	if report.Shares.Deep != 62 || report.Shares.Light != 37 {
		t.Errorf("Shares = %+v", report.Shares)
	}

	if len(src.windows) != 1 || src.windows[0].End != now || now.Sub(src.windows[0].Start) != DefaultLookback {
		t.Errorf("queried windows = %+v, want one 24h window ending now", src.windows)
	}
}

func TestService_LastNight_NoSessions(t *testing.T) {
	svc := New(&fakeRecordSource{}, WithClock(func() time.Time { return now }))

	report, err := svc.LastNight(context.Background())
	if err != nil {
		t.Fatalf("LastNight failed: %v", err)
	}
	if report != nil {
		t.Errorf("expected nil report, got %+v", report)
	}
}

func TestService_LastNight_SourceError(t *testing.T) {
	svc := New(&fakeRecordSource{err: errors.New("permission denied")})

	_, err := svc.LastNight(context.Background())
	if !errors.Is(err, models.ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}
}

func TestService_Sessions(t *testing.T) {
	src := &fakeRecordSource{records: []models.RawRecord{
		sleepRecord("oldest", now.Add(-50*time.Hour)),
		sleepRecord("newest", now.Add(-2*time.Hour)),
		sleepRecord("middle", now.Add(-26*time.Hour)),
		sleepRecord("too-old", now.Add(-100*time.Hour)),
	}}

	svc := New(src, WithClock(func() time.Time { return now }), WithHistoryLookback(72*time.Hour))

	reports, err := svc.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}

	var ids []string
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	want := []string{"newest", "middle", "oldest"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if reports[0].Summary.TotalMinutes != 1 {
		t.Errorf("session without stages should have TotalMinutes 1, got %d", reports[0].Summary.TotalMinutes)
	}
}
