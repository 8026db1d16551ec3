package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services/activity"
	"github.com/j-veylop/wearmon/internal/services/exercise"
)

// ErrNotRegistered is returned when unregistering an unknown callback.
var ErrNotRegistered = errors.New("callback not registered")

// Watch is a simulated wearable. Its session outlives any controller, so a
// second controller finds it running and reuses it.
type Watch struct {
	mu        sync.Mutex
	scenario  Scenario
	now       func() time.Time
	callbacks []exercise.Callback
	info      models.SessionInfo
	spec      models.SessionSpec
	startedAt time.Time
	ticks     int
	stopTick  chan struct{}

	onState      func(raw string)
	stopActivity chan struct{}
}

// Option configures a Watch.
type Option func(*Watch)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Watch) { w.now = now }
}

// New creates a simulated watch running sc.
func New(sc Scenario, opts ...Option) *Watch {
	w := &Watch{
		scenario: sc,
		now:      time.Now,
		info:     models.SessionInfo{State: models.SessionIdle},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Prepare warms up the sensors. Every requested metric reports acquiring.
func (w *Watch) Prepare(ctx context.Context, spec models.SessionSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	if w.info.State == models.SessionActive {
		w.mu.Unlock()
		return fmt.Errorf("session %s already active", w.info.SessionID)
	}
	w.info = models.SessionInfo{State: models.SessionPreparing, ExerciseType: spec.ExerciseType}
	w.spec = spec
	w.mu.Unlock()

	w.broadcastAvailability(spec.MetricTypes, func(models.MetricType) models.Availability {
		return models.AvailabilityAcquiring
	})
	return nil
}

// Activate starts recording and the frame ticker.
func (w *Watch) Activate(ctx context.Context, spec models.SessionSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	if w.info.State == models.SessionActive {
		w.mu.Unlock()
		return fmt.Errorf("session %s already active", w.info.SessionID)
	}
	w.spec = spec
	w.info = models.SessionInfo{
		State:        models.SessionActive,
		ExerciseType: spec.ExerciseType,
		SessionID:    uuid.NewString(),
	}
	w.startedAt = w.now()
	w.ticks = 0
	w.stopTick = make(chan struct{})
	stop := w.stopTick
	tick := w.scenario.Tick
	w.mu.Unlock()

	logger.Info("sim session activated", "exercise", spec.ExerciseType)

	skip := w.scenario.unavailable()
	w.broadcastAvailability(spec.MetricTypes, func(m models.MetricType) models.Availability {
		if skip[m] {
			return models.AvailabilityUnavailable
		}
		return models.AvailabilityAvailable
	})
	w.pushActivity(activity.RawExercise)

	go w.tickLoop(tick, stop)
	return nil
}

// RegisterCallback attaches cb and confirms the registration.
func (w *Watch) RegisterCallback(cb exercise.Callback) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, cb)
	w.mu.Unlock()

	cb.OnRegistered()
}

// UnregisterCallback detaches cb.
func (w *Watch) UnregisterCallback(cb exercise.Callback) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, c := range w.callbacks {
		if c == cb {
			w.callbacks = append(w.callbacks[:i], w.callbacks[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

// CurrentSessionInfo reports the running session.
func (w *Watch) CurrentSessionInfo(ctx context.Context) (models.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.SessionInfo{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.info, nil
}

// End stops the running session.
func (w *Watch) End(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	if w.info.State == models.SessionIdle {
		w.mu.Unlock()
		return models.ErrNoActiveSession
	}
	if w.stopTick != nil {
		close(w.stopTick)
		w.stopTick = nil
	}
	w.info = models.SessionInfo{State: models.SessionIdle}
	w.mu.Unlock()

	logger.Info("sim session ended")
	w.pushActivity(activity.RawPassive)
	return nil
}

// Step emits the next frame immediately. It returns false when no session
// is active.
func (w *Watch) Step() bool {
	w.mu.Lock()
	if w.info.State != models.SessionActive {
		w.mu.Unlock()
		return false
	}
	w.ticks++
	frame := w.scenario.frame(w.ticks, w.now(), w.startedAt, w.spec.MetricTypes)
	cbs := w.snapshotCallbacks()
	w.mu.Unlock()

	for _, cb := range cbs {
		cb.OnFrame(frame)
	}
	return true
}

// Close ends any running session and stops the activity script.
func (w *Watch) Close() error {
	if err := w.End(context.Background()); err != nil && !errors.Is(err, models.ErrNoActiveSession) {
		return err
	}
	return w.ClearListener(context.Background())
}

// SetListener starts the passive activity script.
func (w *Watch) SetListener(_ context.Context, _ activity.PassiveConfig, onState func(raw string)) error {
	w.mu.Lock()
	if w.stopActivity != nil {
		close(w.stopActivity)
	}
	w.onState = onState
	w.stopActivity = make(chan struct{})
	stop := w.stopActivity
	steps := w.scenario.Activity
	exercising := w.info.State == models.SessionActive
	w.mu.Unlock()

	if exercising {
		w.pushActivity(activity.RawExercise)
	} else if len(steps) > 0 {
		w.pushActivity(steps[0].State)
	}

	if len(steps) > 1 {
		go w.activityLoop(steps, stop)
	}
	return nil
}

// ClearListener stops the passive activity script.
func (w *Watch) ClearListener(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopActivity != nil {
		close(w.stopActivity)
		w.stopActivity = nil
	}
	w.onState = nil
	return nil
}

func (w *Watch) tickLoop(tick time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Step()
		case <-stop:
			return
		}
	}
}

func (w *Watch) activityLoop(steps []ActivityStep, stop <-chan struct{}) {
	i := 0
	for {
		hold := steps[i].Hold
		if hold <= 0 {
			hold = time.Minute
		}
		timer := time.NewTimer(hold)
		select {
		case <-timer.C:
		case <-stop:
			timer.Stop()
			return
		}

		i = (i + 1) % len(steps)

		w.mu.Lock()
		exercising := w.info.State == models.SessionActive
		w.mu.Unlock()
		if !exercising {
			w.pushActivity(steps[i].State)
		}
	}
}

func (w *Watch) pushActivity(raw string) {
	w.mu.Lock()
	fn := w.onState
	w.mu.Unlock()

	if fn != nil {
		fn(raw)
	}
}

func (w *Watch) broadcastAvailability(metrics []models.MetricType, value func(models.MetricType) models.Availability) {
	w.mu.Lock()
	cbs := w.snapshotCallbacks()
	w.mu.Unlock()

	for _, m := range metrics {
		a := value(m)
		for _, cb := range cbs {
			cb.OnAvailabilityChanged(m, a)
		}
	}
}

// snapshotCallbacks copies the callback list. Callers must hold w.mu.
func (w *Watch) snapshotCallbacks() []exercise.Callback {
	out := make([]exercise.Callback, len(w.callbacks))
	copy(out, w.callbacks)
	return out
}
