// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	// maxHeartRateHistory bounds the samples kept for the heart rate chart.
	maxHeartRateHistory = 120
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Session bool
	Sleep   bool
	History bool
}

// State is the UI-side view of the aggregate: the latest snapshot plus the
// pieces the tabs derive from the stream of snapshots.
type State struct {
	mu sync.RWMutex

	Snapshot     models.AggregateSnapshot
	SleepHistory []models.SleepReport
	HistoryRange models.TimeRange
	Loading      LoadingState
	LastUpdated  time.Time

	heartRates      []float64
	lastHRVersion   uint64
	notifications   []Notification
	notificationSeq int
}

// NewState creates the initial state.
func NewState() *State {
	return &State{
		HistoryRange:  models.TimeRange7Days,
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "session":
		s.Loading.Session = loading
	case "sleep":
		s.Loading.Sleep = loading
	case "history":
		s.Loading.History = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Session ||
		s.Loading.Sleep ||
		s.Loading.History
}

// IsInitialLoading returns true if the first snapshot has not arrived yet.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// IsLoading reports the loading flag of one resource.
func (s *State) IsLoading(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch resource {
	case "initial":
		return s.Loading.Initial
	case "session":
		return s.Loading.Session
	case "sleep":
		return s.Loading.Sleep
	case "history":
		return s.Loading.History
	}
	return false
}

// SetSnapshot stores a published snapshot. Older versions than the one
// already held are ignored. A heart rate reading is appended to the chart
// history when the session is on.
func (s *State) SetSnapshot(snap models.AggregateSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Version < s.Snapshot.Version {
		return
	}

	startedNew := snap.SessionOn && snap.SessionID != s.Snapshot.SessionID
	if startedNew {
		s.heartRates = nil
	}

	s.Snapshot = snap
	s.LastUpdated = snap.UpdatedAt
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now()
	}
	s.Loading.Initial = false

	if snap.SessionOn && snap.Gauges.HeartRateBPM != nil && snap.Version != s.lastHRVersion {
		s.heartRates = append(s.heartRates, *snap.Gauges.HeartRateBPM)
		if len(s.heartRates) > maxHeartRateHistory {
			s.heartRates = s.heartRates[len(s.heartRates)-maxHeartRateHistory:]
		}
		s.lastHRVersion = snap.Version
	}
}

// GetSnapshot returns the latest snapshot.
func (s *State) GetSnapshot() models.AggregateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Snapshot
}

// HeartRateHistory returns a copy of the recent heart rate readings.
func (s *State) HeartRateHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, len(s.heartRates))
	copy(out, s.heartRates)
	return out
}

// SetSleepHistory replaces the loaded sleep history for r.
func (s *State) SetSleepHistory(r models.TimeRange, reports []models.SleepReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HistoryRange = r
	s.SleepHistory = reports
}

// GetSleepHistory returns the loaded sleep history and its range.
func (s *State) GetSleepHistory() ([]models.SleepReport, models.TimeRange) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SleepReport, len(s.SleepHistory))
	copy(out, s.SleepHistory)
	return out, s.HistoryRange
}

// GetHistoryRange returns the selected sleep history range.
func (s *State) GetHistoryRange() models.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.HistoryRange
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the time of the latest snapshot.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
