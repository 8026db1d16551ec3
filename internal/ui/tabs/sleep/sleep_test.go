package sleep

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/wearmon/internal/app"
	"github.com/j-veylop/wearmon/internal/models"
)

func report(end time.Time, total int) models.SleepReport {
	return models.SleepReport{
		ID:    end.Format(time.RFC3339),
		Title: "Night",
		Start: end.Add(-time.Duration(total) * time.Minute),
		End:   end,
		Summary: models.SleepSummary{
			TotalMinutes: total,
			DeepMinutes:  total / 4,
			LightMinutes: total / 2,
			REMMinutes:   total / 4,
		},
		Shares: models.SleepPercentages{Deep: 25, Light: 50, REM: 25},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
}

func TestModel_ToggleRange(t *testing.T) {
	state := app.NewState()
	m := New(state)

	_, cmd := m.Update(keyRune('t'))
	if cmd == nil {
		t.Fatal("t should request a history load")
	}
	msg, ok := cmd().(app.LoadSleepHistoryMsg)
	if !ok {
		t.Fatalf("cmd() returned %T", cmd())
	}
	if want := state.GetHistoryRange().Next(); msg.Range != want {
		t.Errorf("Range = %v, want %v", msg.Range, want)
	}
}

func TestModel_DebugInsert(t *testing.T) {
	m := New(app.NewState())

	_, cmd := m.Update(keyRune('d'))
	if cmd == nil {
		t.Fatal("d should request a debug insert")
	}
	if _, ok := cmd().(app.InsertDebugSleepMsg); !ok {
		t.Errorf("cmd() returned %T", cmd())
	}
}

func TestModel_IgnoresOtherMessages(t *testing.T) {
	m := New(app.NewState())
	if _, cmd := m.Update(app.TickMsg{}); cmd != nil {
		t.Error("non-key messages should not produce commands")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(100, 60)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "No sleep session in the last night") {
		t.Error("missing last night placeholder")
	}
	if !strings.Contains(view, "No sleep sessions recorded") {
		t.Error("missing history placeholder")
	}
}

func TestModel_ViewWithData(t *testing.T) {
	state := app.NewState()
	end := time.Date(2024, 3, 5, 7, 0, 0, 0, time.Local)
	last := report(end, 480)

	state.SetSnapshot(models.AggregateSnapshot{Version: 1, Sleep: &last})
	state.SetSleepHistory(models.TimeRange3Days, []models.SleepReport{
		last,
		report(end.Add(-24*time.Hour), 360),
	})

	m := New(state)
	m.SetSize(100, 80)

	view := ansi.Strip(m.View())
	for _, want := range []string{"8.0h", "6.0h", "120 min", "240 min", "25%", "50%", "Tue", "Mon Mar 4", state.GetHistoryRange().String()} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewLoading(t *testing.T) {
	state := app.NewState()
	state.SetLoading("history", true)
	state.SetLoading("sleep", true)
	m := New(state)
	m.SetSize(100, 60)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Loading sleep history") || !strings.Contains(view, "Loading sleep summary") {
		t.Error("loading states should be shown")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) != 2 {
		t.Errorf("ShortHelp = %d bindings, want 2", len(m.ShortHelp()))
	}
	if len(m.FullHelp()) != 2 {
		t.Errorf("FullHelp = %d rows, want 2", len(m.FullHelp()))
	}
}
