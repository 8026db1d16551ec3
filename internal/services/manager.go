// Package services wires the exercise, activity and sleep services to the
// aggregate store and exposes them to the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/db"
	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services/activity"
	"github.com/j-veylop/wearmon/internal/services/exercise"
	"github.com/j-veylop/wearmon/internal/services/sleep"
	"github.com/j-veylop/wearmon/internal/services/store"
)

// DatabaseStats describes the sqlite file behind the manager.
type DatabaseStats struct {
	Path          string
	SchemaVersion uint
	Dirty         bool
	SleepSessions int
}

// SnapshotEvent carries a published snapshot to the TUI.
type SnapshotEvent struct {
	Snapshot models.AggregateSnapshot
}

// Notifier shows a desktop notification.
type Notifier func(title, body string) error

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock used for workouts and sleep windows.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithNotifier overrides desktop notifications.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

// Manager owns the aggregation core: the session controller, the delta
// aggregator, the activity tracker, the sleep service and the store they
// all publish through.
type Manager struct {
	mu       sync.Mutex
	toggleMu sync.Mutex

	cfg        *config.Config
	sources    Sources
	database   *db.DB
	store      *store.Store
	controller *exercise.Controller
	aggregator *exercise.Aggregator
	tracker    *activity.Tracker
	sleep      *sleep.Service
	now        func() time.Time
	notify     Notifier

	stream       *exercise.Stream
	consumerDone chan struct{}
	startedAt    time.Time
	lastHR       float64
}

// NewManager opens the database and builds the services over sources.
func NewManager(cfg *config.Config, sources Sources, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		sources: sources,
		now:     time.Now,
		notify:  beeepNotify,
	}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.store = store.NewWithClock(m.now)

	spec := models.DefaultSessionSpec()
	if cfg.ExerciseType != "" {
		spec.ExerciseType = cfg.ExerciseType
	}
	m.controller = exercise.NewController(sources.Measurement, spec,
		exercise.WithStateListener(m.onSessionState))
	m.aggregator = exercise.NewAggregator(m.now)

	if sources.Passive != nil {
		m.tracker = activity.New(sources.Passive, m.onActivity)
	}

	records := sources.Records
	if records == nil {
		records = m.database
	}
	m.sleep = sleep.New(records,
		sleep.WithLookback(cfg.SleepLookback),
		sleep.WithHistoryLookback(cfg.HistoryLookback),
		sleep.WithClock(m.now),
	)

	return m, nil
}

// Start begins passive activity monitoring and loads last night's sleep.
// Both are attempted; the first error is returned.
func (m *Manager) Start(ctx context.Context) error {
	var errs []error

	if m.tracker != nil {
		if err := m.tracker.Start(ctx); err != nil {
			logger.Error("failed to start activity monitoring", "error", err)
			errs = append(errs, err)
		}
	}

	if _, err := m.RefreshSleepSummary(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ToggleSession turns the exercise session on or off. Turning on when a
// session stream is already open, or off when none is, only reaches the
// source for the off case, where an orphaned source session is ended too.
// When turning on, ctx bounds the lifetime of the session stream.
func (m *Manager) ToggleSession(ctx context.Context, on bool) error {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()

	if on {
		return m.startSession(ctx)
	}
	return m.stopSession(ctx)
}

func (m *Manager) startSession(ctx context.Context) error {
	m.mu.Lock()
	running := m.stream != nil
	m.mu.Unlock()
	if running {
		return nil
	}

	st, res, err := m.controller.Open(ctx)
	if err != nil {
		logger.Error("failed to start exercise session", "error", err)
		m.recordEvent(models.SessionEvent{EventType: models.SessionEventFailed, Detail: err.Error()})
		m.alert("Exercise session failed", err.Error())
		off := false
		m.store.Apply(models.SnapshotPatch{SessionOn: &off})
		return err
	}

	on := true
	id := res.SessionID
	patch := models.SnapshotPatch{SessionOn: &on, SessionID: &id}
	eventType := models.SessionEventReused
	if !res.Reused {
		m.aggregator.Reset()
		patch.ResetMetrics = true
		eventType = models.SessionEventStarted
	}

	done := make(chan struct{})
	m.mu.Lock()
	m.stream = st
	m.consumerDone = done
	m.startedAt = m.now()
	m.lastHR = 0
	m.mu.Unlock()

	m.store.Apply(patch)
	m.recordEvent(models.SessionEvent{SessionID: id, EventType: eventType})

	go m.consume(st, done)
	return nil
}

func (m *Manager) stopSession(ctx context.Context) error {
	m.mu.Lock()
	st := m.stream
	done := m.consumerDone
	startedAt := m.startedAt
	m.mu.Unlock()

	sessionID := m.controller.SessionID()

	if err := m.controller.Stop(ctx); err != nil {
		logger.Error("failed to stop exercise session", "error", err)
		return err
	}

	if st != nil {
		st.Close()
		<-done
		m.persistWorkout(sessionID, startedAt)
	}

	m.recordEvent(models.SessionEvent{SessionID: sessionID, EventType: models.SessionEventStopped})

	off := false
	empty := ""
	m.store.Apply(models.SnapshotPatch{SessionOn: &off, SessionID: &empty})
	return nil
}

// consume folds stream updates into the store until the stream ends.
func (m *Manager) consume(st *exercise.Stream, done chan struct{}) {
	defer close(done)

	for {
		select {
		case u := <-st.Updates():
			m.applyUpdate(u)
		case <-st.Done():
			m.drain(st)
			m.streamEnded(st)
			return
		}
	}
}

func (m *Manager) drain(st *exercise.Stream) {
	for {
		select {
		case u := <-st.Updates():
			m.applyUpdate(u)
		default:
			return
		}
	}
}

// streamEnded clears the stream if it ended on its own, after a cancelled
// context or a rejected callback.
func (m *Manager) streamEnded(st *exercise.Stream) {
	err := st.Err()

	m.mu.Lock()
	current := m.stream == st
	if current {
		m.stream = nil
		m.consumerDone = nil
	}
	m.mu.Unlock()

	if err == nil {
		return
	}

	logger.Warn("exercise stream ended", "error", err)
	if current && errors.Is(err, models.ErrRegistrationFailed) {
		off := false
		m.store.Apply(models.SnapshotPatch{SessionOn: &off})
	}
}

func (m *Manager) applyUpdate(u exercise.Update) {
	if len(u.Availability) > 0 {
		m.store.Apply(models.SnapshotPatch{Availability: u.Availability})
	}
	if u.Frame == nil {
		return
	}

	m.store.Apply(m.aggregator.Apply(*u.Frame))
	if u.Frame.HeartRateBPM != nil {
		m.checkHeartRate(*u.Frame.HeartRateBPM)
	}
}

// checkHeartRate notifies when the heart rate crosses the alert threshold
// upwards.
func (m *Manager) checkHeartRate(bpm float64) {
	threshold := m.cfg.HeartRateAlertBPM

	m.mu.Lock()
	prev := m.lastHR
	m.lastHR = bpm
	m.mu.Unlock()

	if threshold <= 0 {
		return
	}
	if bpm >= threshold && prev < threshold {
		m.alert("High heart rate", fmt.Sprintf("Heart rate is %.0f bpm (alert at %.0f)", bpm, threshold))
	}
}

func (m *Manager) alert(title, body string) {
	if m.notify == nil {
		return
	}
	if err := m.notify(title, body); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}

func (m *Manager) persistWorkout(sessionID string, startedAt time.Time) {
	w := &models.Workout{
		SessionID:      sessionID,
		ExerciseType:   m.controller.Spec().ExerciseType,
		StartedAt:      startedAt,
		EndedAt:        m.now(),
		Totals:         m.aggregator.Totals(),
		ActiveDuration: m.aggregator.ActiveDuration(),
		MaxHeartRate:   m.aggregator.MaxHeartRate(),
	}
	if err := m.database.InsertWorkout(context.Background(), w); err != nil {
		logger.Error("failed to save workout", "session_id", sessionID, "error", err)
	}
}

func (m *Manager) recordEvent(ev models.SessionEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = m.now()
	}
	if err := m.database.InsertSessionEvent(context.Background(), ev); err != nil {
		logger.Error("failed to record session event", "type", ev.EventType, "error", err)
	}
}

func (m *Manager) onSessionState(state models.SessionState) {
	m.store.Apply(models.SnapshotPatch{SessionState: &state})
}

func (m *Manager) onActivity(state models.ActivityState) {
	m.store.Apply(models.SnapshotPatch{Activity: &state})
}

// RefreshSleepSummary reloads last night's sleep into the snapshot. When no
// session is found the snapshot keeps its previous summary.
func (m *Manager) RefreshSleepSummary(ctx context.Context) (*models.SleepReport, error) {
	report, err := m.sleep.LastNight(ctx)
	if err != nil {
		logger.Error("failed to load sleep summary", "error", err)
		return nil, err
	}
	if report != nil {
		m.store.Apply(models.SnapshotPatch{Sleep: report})
	}
	return report, nil
}

// SleepHistory returns the sleep sessions of the given range, newest first.
func (m *Manager) SleepHistory(ctx context.Context, r models.TimeRange) ([]models.SleepReport, error) {
	return m.sleep.SessionsWithin(ctx, r.Lookback())
}

// InsertDebugSleep stores an eight hour debug session and reloads the
// summary.
func (m *Manager) InsertDebugSleep(ctx context.Context) (*models.SleepReport, error) {
	rec := sleep.DebugSession(m.now())
	if err := m.database.InsertSleepSession(ctx, &rec); err != nil {
		return nil, err
	}
	logger.Info("debug sleep session inserted", "id", rec.ID)
	return m.RefreshSleepSummary(ctx)
}

// ImportSleep stores records and returns how many were written.
func (m *Manager) ImportSleep(ctx context.Context, records []models.RawRecord) (int, error) {
	for i := range records {
		if err := m.database.InsertSleepSession(ctx, &records[i]); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

// DeleteSleep removes a stored sleep session and reloads the summary.
func (m *Manager) DeleteSleep(ctx context.Context, id string) error {
	if err := m.database.DeleteSleepSession(ctx, id); err != nil {
		return err
	}
	logger.Info("sleep session deleted", "id", id)
	_, err := m.RefreshSleepSummary(ctx)
	return err
}

// DatabaseStats reports the schema version and how many sleep sessions are
// stored.
func (m *Manager) DatabaseStats(ctx context.Context) (DatabaseStats, error) {
	version, dirty, err := m.database.SchemaVersion()
	if err != nil {
		return DatabaseStats{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	n, err := m.database.CountSleepSessions(ctx)
	if err != nil {
		return DatabaseStats{}, err
	}
	return DatabaseStats{
		Path:          m.database.Path(),
		SchemaVersion: version,
		Dirty:         dirty,
		SleepSessions: n,
	}, nil
}

// CompactDatabase vacuums the sqlite file.
func (m *Manager) CompactDatabase(ctx context.Context) error {
	if err := m.database.Vacuum(ctx); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	logger.Info("database vacuumed", "path", m.database.Path())
	return nil
}

// RecentWorkouts returns the latest persisted workouts.
func (m *Manager) RecentWorkouts(ctx context.Context, limit int) ([]models.Workout, error) {
	return m.database.GetRecentWorkouts(ctx, limit)
}

// Snapshot returns the latest published snapshot.
func (m *Manager) Snapshot() models.AggregateSnapshot {
	return m.store.Current()
}

// Subscribe registers for snapshots. The returned command waits for the
// next one.
func (m *Manager) Subscribe() (*store.Subscription, tea.Cmd) {
	sub := m.store.Subscribe()
	return sub, WaitForSnapshot(sub)
}

// WaitForSnapshot returns a tea.Cmd for the next snapshot on sub. It yields
// nil once the subscription is closed.
func WaitForSnapshot(sub *store.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub.C()
		if !ok {
			return nil
		}
		return SnapshotEvent{Snapshot: snap}
	}
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(sub *store.Subscription) {
	m.store.Unsubscribe(sub)
}

// Store returns the aggregate store.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Controller returns the session controller.
func (m *Manager) Controller() *exercise.Controller {
	return m.controller
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Close detaches from the session without ending it at the source, stops
// activity monitoring and closes the store, sources and database.
func (m *Manager) Close() error {
	m.mu.Lock()
	st := m.stream
	done := m.consumerDone
	m.mu.Unlock()

	if st != nil {
		st.Close()
		<-done
	}

	if m.tracker != nil {
		m.tracker.StopMonitoring(context.Background())
	}
	m.store.Close()

	var errs []error
	if err := m.sources.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.database.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
