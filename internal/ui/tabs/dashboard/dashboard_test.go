package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/wearmon/internal/app"
	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services"
)

func activeSnapshot() models.AggregateSnapshot {
	active := 75 * time.Second
	return models.AggregateSnapshot{
		Version:        3,
		SessionOn:      true,
		SessionState:   models.SessionActive,
		SessionID:      "abcdef12-3456",
		Activity:       models.ActivityExercising,
		ActiveDuration: &active,
		Gauges: models.Gauges{
			HeartRateBPM: models.Float64(142),
			PaceMsPerKm:  models.Float64(330000),
		},
		Totals: models.CumulativeTotals{Steps: 1234, DistanceMeters: 2500},
		Availability: map[models.MetricType]models.Availability{
			models.MetricHeartRate: models.AvailabilityAvailable,
			models.MetricCadence:   models.AvailabilityAcquiring,
		},
	}
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m.maxHR != DefaultMaxHeartRate {
		t.Errorf("maxHR = %v, want %v", m.maxHR, DefaultMaxHeartRate)
	}

	m = New(app.NewState(), &config.Config{HeartRateAlertBPM: 175})
	if m.maxHR != 175 {
		t.Errorf("maxHR = %v, want 175", m.maxHR)
	}
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState(), nil)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(80, 24)

	if !strings.Contains(m.View(), "Connecting to watch") {
		t.Error("initial view should show the connecting spinner")
	}
}

func TestModel_ViewIdle(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	m := New(state, nil)
	m.SetSize(100, 80)

	view := ansi.Strip(m.View())
	for _, want := range []string{"Idle", "--:--:--", "Waiting for heart rate", "press space"} {
		if !strings.Contains(strings.ToLower(view), strings.ToLower(want)) {
			t.Errorf("idle view missing %q", want)
		}
	}
}

func TestModel_ViewActive(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(activeSnapshot())
	m := New(state, nil)
	m.SetSize(100, 80)

	view := ansi.Strip(m.View())
	for _, want := range []string{"Active", "ABCDEF12", "Exercise", "00:01:15", "142", "5:30", "1234", "2.50", "available", "acquiring"} {
		if !strings.Contains(view, want) {
			t.Errorf("active view missing %q", want)
		}
	}
}

func TestModel_SnapshotAnimatesHeartRate(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(activeSnapshot())
	m := New(state, nil)

	_, cmd := m.Update(services.SnapshotEvent{Snapshot: state.GetSnapshot()})
	if cmd == nil {
		t.Fatal("a new heart rate target should start the animation")
	}
	if m.heartRate.Target != 142 {
		t.Errorf("Target = %v, want 142", m.heartRate.Target)
	}

	m.handleAnimationTick(m.heartRate.StartTime.Add(animationDuration))
	if m.heartRate.Current != 142 {
		t.Errorf("Current = %v, want 142 after the animation", m.heartRate.Current)
	}
}

func TestAnimationState(t *testing.T) {
	var a AnimationState
	now := time.Now()

	if !a.Retarget(100, now) {
		t.Fatal("Retarget should report movement")
	}

	a.Step(now.Add(animationDuration / 2))
	if a.Current <= 0 || a.Current >= 100 {
		t.Errorf("midway Current = %v", a.Current)
	}

	a.Step(now.Add(animationDuration))
	if a.Current != 100 {
		t.Errorf("Current = %v, want 100", a.Current)
	}
	if a.Retarget(100, now) {
		t.Error("settled animation should not report movement")
	}
}

func TestFormatters(t *testing.T) {
	if got := formatPace(models.Float64(305000)); got != "5:05" {
		t.Errorf("formatPace = %q, want 5:05", got)
	}
	if got := formatPace(nil); got != "--" {
		t.Errorf("formatPace(nil) = %q", got)
	}
	d := 3*time.Hour + 2*time.Minute + 1500*time.Millisecond
	if got := formatActiveDuration(&d); got != "03:02:01" {
		t.Errorf("formatActiveDuration = %q, want 03:02:01", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestModel_KeysScroll(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(100, 50)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}); cmd != nil {
		t.Error("toggle key belongs to the app model")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
