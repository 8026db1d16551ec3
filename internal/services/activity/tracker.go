// Package activity tracks the passive activity state of the wearer.
package activity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

// Raw activity classifications reported by passive sources.
const (
	RawAsleep   = "USER_ACTIVITY_ASLEEP"
	RawPassive  = "USER_ACTIVITY_PASSIVE"
	RawExercise = "USER_ACTIVITY_EXERCISE"
	RawUnknown  = "USER_ACTIVITY_UNKNOWN"
)

// PassiveConfig is sent to the source when the listener is set.
type PassiveConfig struct {
	RequestUserActivityInfo bool
}

// PassiveStateSource pushes raw activity classifications.
type PassiveStateSource interface {
	SetListener(ctx context.Context, cfg PassiveConfig, onState func(raw string)) error
	ClearListener(ctx context.Context) error
}

// MapState converts a raw classification. Anything outside the known set
// maps to models.ActivityUnknown.
func MapState(raw string) models.ActivityState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case RawAsleep:
		return models.ActivityAsleep
	case RawPassive:
		return models.ActivityAwake
	case RawExercise:
		return models.ActivityExercising
	default:
		return models.ActivityUnknown
	}
}

// Tracker keeps the last activity state received from a passive source.
type Tracker struct {
	mu       sync.Mutex
	source   PassiveStateSource
	onChange func(models.ActivityState)
	state    models.ActivityState
	started  bool
	gen      uint64
}

// New creates a tracker. onChange, when set, is called with every received
// state, including repeats.
func New(source PassiveStateSource, onChange func(models.ActivityState)) *Tracker {
	return &Tracker{
		source:   source,
		onChange: onChange,
	}
}

// State returns the last received state.
func (t *Tracker) State() models.ActivityState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Started reports whether the tracker is subscribed.
func (t *Tracker) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// Start subscribes to the passive source. Calling it again while subscribed
// does nothing.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	cfg := PassiveConfig{RequestUserActivityInfo: true}
	if err := t.source.SetListener(ctx, cfg, func(raw string) { t.receive(gen, raw) }); err != nil {
		t.mu.Lock()
		t.started = false
		t.mu.Unlock()
		return fmt.Errorf("%w: set passive listener: %w", models.ErrSourceUnavailable, err)
	}

	logger.Info("activity monitoring started")
	return nil
}

// StopMonitoring clears the passive listener. It is a no-op when the tracker
// was never started. Errors from the source are logged, not returned.
func (t *Tracker) StopMonitoring(ctx context.Context) {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	t.gen++
	t.mu.Unlock()

	if err := t.source.ClearListener(ctx); err != nil {
		logger.Warn("failed to clear passive listener", "error", err)
		return
	}
	logger.Info("activity monitoring stopped")
}

func (t *Tracker) receive(gen uint64, raw string) {
	state := MapState(raw)
	if state == models.ActivityUnknown && raw != RawUnknown {
		logger.Debug("unrecognized activity state", "raw", raw)
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.state = state
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}
