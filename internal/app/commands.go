package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services"
	"github.com/j-veylop/wearmon/internal/services/store"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// requestTimeout bounds one-shot service calls issued from the UI.
	requestTimeout = 15 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads the sleep data shown on start.
func loadInitialData(mgr *services.Manager, r models.TimeRange) tea.Cmd {
	return tea.Batch(
		refreshSleepCmd(mgr),
		loadSleepHistoryCmd(mgr, r),
	)
}

// subscribeCmd registers for snapshots and hands the subscription back.
func subscribeCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		sub, _ := mgr.Subscribe()
		return SubscribedMsg{Sub: sub}
	}
}

// waitForSnapshotCmd returns a command that waits for the next snapshot.
func waitForSnapshotCmd(sub *store.Subscription) tea.Cmd {
	return services.WaitForSnapshot(sub)
}

// toggleSessionCmd turns the exercise session on or off. The session
// stream is bound to ctx, which outlives the command.
func toggleSessionCmd(ctx context.Context, mgr *services.Manager, on bool) tea.Cmd {
	return func() tea.Msg {
		err := mgr.ToggleSession(ctx, on)
		return SessionToggledMsg{On: on, Error: err}
	}
}

// refreshSleepCmd reloads last night's sleep summary.
func refreshSleepCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		report, err := mgr.RefreshSleepSummary(ctx)
		return SleepRefreshedMsg{Report: report, Error: err}
	}
}

// loadSleepHistoryCmd loads the sleep sessions of r.
func loadSleepHistoryCmd(mgr *services.Manager, r models.TimeRange) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		reports, err := mgr.SleepHistory(ctx, r)
		return SleepHistoryLoadedMsg{Range: r, Reports: reports, Error: err}
	}
}

// insertDebugSleepCmd stores a synthetic sleep session.
func insertDebugSleepCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		report, err := mgr.InsertDebugSleep(ctx)
		return DebugSleepInsertedMsg{Report: report, Error: err}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
	ctx     context.Context
}

// NewCommands creates a new Commands instance. Session streams started
// through it are bound to ctx.
func NewCommands(ctx context.Context, mgr *services.Manager) *Commands {
	return &Commands{manager: mgr, ctx: ctx}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// ToggleSession returns a command that turns the exercise session on or off.
func (c *Commands) ToggleSession(on bool) tea.Cmd {
	return toggleSessionCmd(c.ctx, c.manager, on)
}

// RefreshSleep returns a command that reloads last night's sleep.
func (c *Commands) RefreshSleep() tea.Cmd {
	return refreshSleepCmd(c.manager)
}

// LoadSleepHistory returns a command that loads the sleep history of r.
func (c *Commands) LoadSleepHistory(r models.TimeRange) tea.Cmd {
	return loadSleepHistoryCmd(c.manager, r)
}

// InsertDebugSleep returns a command that stores a synthetic session.
func (c *Commands) InsertDebugSleep() tea.Cmd {
	return insertDebugSleepCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
