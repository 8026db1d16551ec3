package exercise

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

// ErrTransitionInProgress is returned when a start or stop is requested while
// the controller is preparing or ending a session.
var ErrTransitionInProgress = errors.New("session transition in progress")

// StartResult describes how a session became active.
type StartResult struct {
	SessionID string
	// Reused is true when the source already had a session running and no
	// prepare or activate call was made.
	Reused bool
}

// Controller owns the exercise session state and the source callback.
type Controller struct {
	mu            sync.Mutex
	source        MeasurementSource
	onStateChange func(models.SessionState)
	newID         func() string
	sessionID     string
	spec          models.SessionSpec
	state         models.SessionState
	busy          bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithStateListener registers fn to be called after every state change.
// fn runs synchronously and must not call back into the controller.
func WithStateListener(fn func(models.SessionState)) ControllerOption {
	return func(c *Controller) { c.onStateChange = fn }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) ControllerOption {
	return func(c *Controller) { c.newID = fn }
}

// NewController creates a controller for sessions described by spec.
func NewController(source MeasurementSource, spec models.SessionSpec, opts ...ControllerOption) *Controller {
	c := &Controller{
		source: source,
		spec:   spec,
		state:  models.SessionIdle,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current session state.
func (c *Controller) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the id of the active session, or "" when idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Spec returns the session configuration.
func (c *Controller) Spec() models.SessionSpec {
	return c.spec
}

func (c *Controller) setState(state models.SessionState, sessionID string) {
	c.mu.Lock()
	c.state = state
	c.sessionID = sessionID
	fn := c.onStateChange
	c.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// acquire marks a start or stop as running, refusing a second one.
func (c *Controller) acquire() (models.SessionState, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return c.state, c.sessionID, ErrTransitionInProgress
	}
	c.busy = true
	return c.state, c.sessionID, nil
}

// finish records the outcome of a start or stop.
func (c *Controller) finish(state models.SessionState, sessionID string) {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.setState(state, sessionID)
}

// Start makes a session active. If the source already records one it is
// reused as is; otherwise, including when the source is left preparing by an
// earlier failed start, the session is prepared and then activated. Any failure
// leaves the controller idle and wraps models.ErrSourceUnavailable.
func (c *Controller) Start(ctx context.Context) (StartResult, error) {
	if _, _, err := c.acquire(); err != nil {
		return StartResult{}, err
	}

	info, err := c.source.CurrentSessionInfo(ctx)
	if err != nil {
		c.finish(models.SessionIdle, "")
		return StartResult{}, fmt.Errorf("%w: query current session: %w", models.ErrSourceUnavailable, err)
	}

	if info.IsActive() {
		id := info.SessionID
		if id == "" {
			id = c.newID()
		}
		c.finish(models.SessionActive, id)
		logger.Info("reusing active exercise session", "session_id", id, "exercise_type", info.ExerciseType)
		return StartResult{SessionID: id, Reused: true}, nil
	}

	c.setState(models.SessionPreparing, "")

	if err := c.source.Prepare(ctx, c.spec); err != nil {
		c.finish(models.SessionIdle, "")
		return StartResult{}, fmt.Errorf("%w: prepare session: %w", models.ErrSourceUnavailable, err)
	}

	if err := c.source.Activate(ctx, c.spec); err != nil {
		c.finish(models.SessionIdle, "")
		return StartResult{}, fmt.Errorf("%w: activate session: %w", models.ErrSourceUnavailable, err)
	}

	id := c.newID()
	c.finish(models.SessionActive, id)
	logger.Info("exercise session started", "session_id", id, "exercise_type", c.spec.ExerciseType)
	return StartResult{SessionID: id}, nil
}

// Stop ends the session at the source. Ending when nothing is running is
// logged and treated as success. On any other failure the previous state is
// restored and the error returned.
func (c *Controller) Stop(ctx context.Context) error {
	prev, prevID, err := c.acquire()
	if err != nil {
		return err
	}

	c.setState(models.SessionEnding, prevID)

	if err := c.source.End(ctx); err != nil {
		if errors.Is(err, models.ErrNoActiveSession) {
			logger.Info("stop requested with no active session")
			c.finish(models.SessionIdle, "")
			return nil
		}
		c.finish(prev, prevID)
		return fmt.Errorf("failed to end session: %w", err)
	}

	logger.Info("exercise session ended", "session_id", prevID)
	c.finish(models.SessionIdle, "")
	return nil
}

// Open registers a callback with the source and starts a session. The
// returned stream delivers updates until it is closed, ctx is cancelled or
// the source rejects the callback. The callback is unregistered exactly once
// on every one of those paths, including a failed or cancelled start.
func (c *Controller) Open(ctx context.Context) (*Stream, StartResult, error) {
	sctx, cancel := context.WithCancel(ctx)
	st := newStream(cancel, c.source.UnregisterCallback)

	c.source.RegisterCallback(st.listener)

	select {
	case <-st.Done():
		return nil, StartResult{}, st.Err()
	default:
	}
	go st.watch(sctx)

	res, err := c.Start(sctx)
	if err != nil {
		st.terminate(err)
		<-st.Done()
		return nil, res, st.Err()
	}

	select {
	case <-st.Done():
		return nil, res, st.Err()
	default:
	}

	st.result = res
	return st, res, nil
}
