// Package sleep provides the sleep tab: last night's summary and the recent
// sleep history.
package sleep

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/wearmon/internal/app"
)

type keyMap struct {
	ToggleRange key.Binding
	DebugInsert key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		DebugInsert: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "insert debug night"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the sleep tab state. Reports live in the shared app
// state; the tab only asks the app model to load them.
type Model struct {
	state    *app.State
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new sleep model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the sleep tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the sleep tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.ToggleRange):
		next := m.state.GetHistoryRange().Next()
		return m, func() tea.Msg {
			return app.LoadSleepHistoryMsg{Range: next}
		}

	case key.Matches(keyMsg, m.keys.DebugInsert):
		return m, func() tea.Msg {
			return app.InsertDebugSleepMsg{}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

// SetSize sets the available size for the sleep tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.DebugInsert,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.DebugInsert},
		{m.keys.Up, m.keys.Down},
	}
}
