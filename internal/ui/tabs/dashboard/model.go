// Package dashboard provides the live exercise tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/wearmon/internal/app"
	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/services"
	"github.com/j-veylop/wearmon/internal/ui/components"
)

// DefaultMaxHeartRate is the zone ceiling used when no alert threshold is
// configured.
const DefaultMaxHeartRate = 190.0

const animationDuration = 800 * time.Millisecond

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

type keyMap struct {
	Toggle key.Binding
	Up     key.Binding
	Down   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space/s", "start/stop"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// AnimationState eases a displayed value toward its latest target.
type AnimationState struct {
	StartTime time.Time
	Current   float64
	Target    float64
	Start     float64
}

// Retarget starts a new transition from the current value. It reports
// whether the value still has to move.
func (a *AnimationState) Retarget(target float64, now time.Time) bool {
	if target != a.Target {
		a.Start = a.Current
		a.Target = target
		a.StartTime = now
	}
	return a.Current != a.Target
}

// Step advances the transition to now with an ease-out curve.
func (a *AnimationState) Step(now time.Time) {
	if a.Current == a.Target {
		return
	}
	elapsed := now.Sub(a.StartTime)
	if elapsed >= animationDuration {
		a.Current = a.Target
		return
	}
	progress := elapsed.Seconds() / animationDuration.Seconds()
	ease := 1.0 - (1.0-progress)*(1.0-progress)
	a.Current = a.Start + (a.Target-a.Start)*ease
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.State
	heartRate      AnimationState
	spinner        components.LoadingSpinner
	keys           keyMap
	viewport       viewport.Model
	zoneBar        components.ZoneBar
	maxHR          float64
	width          int
	height         int
	animationFrame int
}

// New creates a new dashboard model. cfg may be nil.
func New(state *app.State, cfg *config.Config) *Model {
	maxHR := DefaultMaxHeartRate
	if cfg != nil && cfg.HeartRateAlertBPM > 0 {
		maxHR = cfg.HeartRateAlertBPM
	}

	return &Model{
		state:    state,
		spinner:  components.NewSpinner("Connecting to watch..."),
		zoneBar:  components.NewZoneBar(),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		maxHR:    maxHR,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(time.Time(msg)))

	case services.SnapshotEvent:
		if m.syncHeartRate(time.Now()) {
			cmds = append(cmds, animationTickCmd())
		}

	case tea.KeyMsg:
		// Start/stop is handled by the app model.
		if !key.Matches(msg, m.keys.Toggle) {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(now time.Time) tea.Cmd {
	m.animationFrame++

	animating := m.syncHeartRate(now)
	m.heartRate.Step(now)

	if animating || m.state.IsInitialLoading() {
		return animationTickCmd()
	}
	return nil
}

// syncHeartRate retargets the heart rate gauge at the latest reading.
func (m *Model) syncHeartRate(now time.Time) bool {
	bpm := m.state.GetSnapshot().Gauges.HeartRateBPM
	if bpm == nil {
		m.heartRate = AnimationState{}
		return false
	}
	return m.heartRate.Retarget(*bpm, now)
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Toggle, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Toggle},
		{m.keys.Up, m.keys.Down},
	}
}
