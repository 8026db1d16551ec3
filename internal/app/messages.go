package app

import (
	"time"

	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services/store"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// SubscribedMsg carries the snapshot subscription once it is registered.
type SubscribedMsg struct {
	Sub *store.Subscription
}

// ToggleSessionMsg requests turning the exercise session on or off.
type ToggleSessionMsg struct {
	On bool
}

// SessionToggledMsg contains the result of a session toggle.
type SessionToggledMsg struct {
	Error error
	On    bool
}

// SleepRefreshedMsg contains last night's sleep report, nil when none was
// found.
type SleepRefreshedMsg struct {
	Report *models.SleepReport
	Error  error
}

// LoadSleepHistoryMsg requests the sleep sessions of a range.
type LoadSleepHistoryMsg struct {
	Range models.TimeRange
}

// SleepHistoryLoadedMsg contains the sleep sessions of a range.
type SleepHistoryLoadedMsg struct {
	Error   error
	Reports []models.SleepReport
	Range   models.TimeRange
}

// InsertDebugSleepMsg requests a synthetic sleep session.
type InsertDebugSleepMsg struct{}

// DebugSleepInsertedMsg contains the result of inserting a debug session.
type DebugSleepInsertedMsg struct {
	Report *models.SleepReport
	Error  error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "sleep", "history"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
