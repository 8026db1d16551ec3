package mqttbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services/activity"
	"github.com/j-veylop/wearmon/internal/services/exercise"
)

const (
	qosAtLeastOnce byte = 1
	qosAtMostOnce  byte = 0
)

var (
	// ErrNotConnected is returned before Connect succeeds.
	ErrNotConnected = errors.New("mqtt bridge not connected")
	// ErrNotRegistered is returned when unregistering an unknown callback.
	ErrNotRegistered = errors.New("callback not registered")
)

// Bridge is a measurement source and passive state source fed by MQTT.
type Bridge struct {
	mu        sync.Mutex
	transport Transport
	prefix    string
	now       func() time.Time
	callbacks []exercise.Callback
	info      models.SessionInfo
	onState   func(raw string)
	connected bool
}

// New creates a bridge publishing and subscribing below prefix.
func New(transport Transport, prefix string) *Bridge {
	return &Bridge{
		transport: transport,
		prefix:    strings.TrimSuffix(prefix, "/"),
		now:       time.Now,
		info:      models.SessionInfo{State: models.SessionIdle},
	}
}

func (b *Bridge) topic(suffix string) string {
	if b.prefix == "" {
		return suffix
	}
	return b.prefix + "/" + suffix
}

// Connect subscribes to the exercise topics. The retained status message,
// if any, arrives right after.
func (b *Bridge) Connect() error {
	subs := []struct {
		suffix  string
		handler MessageHandler
	}{
		{TopicStatus, b.handleStatus},
		{TopicFrame, b.handleFrame},
		{TopicAvailability, b.handleAvailability},
	}
	for _, s := range subs {
		if err := b.transport.Subscribe(b.topic(s.suffix), qosAtLeastOnce, s.handler); err != nil {
			return fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
		}
	}

	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()

	logger.Info("mqtt bridge connected", "prefix", b.prefix)
	return nil
}

// Close unsubscribes and disconnects the transport.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.connected = false
	b.onState = nil
	b.mu.Unlock()

	err := b.transport.Unsubscribe(
		b.topic(TopicStatus),
		b.topic(TopicFrame),
		b.topic(TopicAvailability),
		b.topic(TopicActivity),
	)
	b.transport.Disconnect()
	return err
}

// Prepare asks the watch to warm up its sensors.
func (b *Bridge) Prepare(ctx context.Context, spec models.SessionSpec) error {
	if err := b.command(ctx, CommandPrepare, spec); err != nil {
		return err
	}

	b.mu.Lock()
	b.info = models.SessionInfo{State: models.SessionPreparing, ExerciseType: spec.ExerciseType}
	b.mu.Unlock()
	return nil
}

// Activate asks the watch to start recording.
func (b *Bridge) Activate(ctx context.Context, spec models.SessionSpec) error {
	if err := b.command(ctx, CommandActivate, spec); err != nil {
		return err
	}

	b.mu.Lock()
	b.info.State = models.SessionActive
	b.info.ExerciseType = spec.ExerciseType
	b.mu.Unlock()
	return nil
}

// End asks the watch to stop recording.
func (b *Bridge) End(ctx context.Context) error {
	b.mu.Lock()
	idle := b.info.State == models.SessionIdle
	spec := models.SessionSpec{ExerciseType: b.info.ExerciseType}
	b.mu.Unlock()

	if idle {
		return models.ErrNoActiveSession
	}
	if err := b.command(ctx, CommandEnd, spec); err != nil {
		return err
	}

	b.mu.Lock()
	b.info = models.SessionInfo{State: models.SessionIdle}
	b.mu.Unlock()
	return nil
}

// CurrentSessionInfo returns the last status the watch reported.
func (b *Bridge) CurrentSessionInfo(ctx context.Context) (models.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.SessionInfo{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return models.SessionInfo{}, ErrNotConnected
	}
	return b.info, nil
}

// RegisterCallback attaches cb. Registration fails while disconnected.
func (b *Bridge) RegisterCallback(cb exercise.Callback) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		cb.OnRegistrationFailed(ErrNotConnected)
		return
	}
	b.callbacks = append(b.callbacks, cb)
	b.mu.Unlock()

	cb.OnRegistered()
}

// UnregisterCallback detaches cb.
func (b *Bridge) UnregisterCallback(cb exercise.Callback) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.callbacks {
		if c == cb {
			b.callbacks = append(b.callbacks[:i], b.callbacks[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

// SetListener subscribes to the activity topic. Payloads are raw
// classification strings.
func (b *Bridge) SetListener(_ context.Context, _ activity.PassiveConfig, onState func(raw string)) error {
	b.mu.Lock()
	b.onState = onState
	b.mu.Unlock()

	if err := b.transport.Subscribe(b.topic(TopicActivity), qosAtMostOnce, b.handleActivity); err != nil {
		b.mu.Lock()
		b.onState = nil
		b.mu.Unlock()
		return err
	}
	return nil
}

// ClearListener unsubscribes from the activity topic.
func (b *Bridge) ClearListener(_ context.Context) error {
	b.mu.Lock()
	b.onState = nil
	b.mu.Unlock()

	return b.transport.Unsubscribe(b.topic(TopicActivity))
}

func (b *Bridge) command(ctx context.Context, command string, spec models.SessionSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	connected := b.connected
	b.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	payload, err := encodeCommand(command, spec)
	if err != nil {
		return fmt.Errorf("failed to encode %s command: %w", command, err)
	}
	return b.transport.Publish(b.topic(TopicCommand), qosAtLeastOnce, false, payload)
}

func (b *Bridge) handleStatus(_ string, payload []byte) error {
	info, err := DecodeStatus(payload)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.info = info
	b.mu.Unlock()

	logger.Debug("watch status", "state", info.State.String(), "session_id", info.SessionID)
	return nil
}

func (b *Bridge) handleFrame(_ string, payload []byte) error {
	frame, err := DecodeFrame(payload, b.now())
	if err != nil {
		return err
	}

	for _, cb := range b.snapshotCallbacks() {
		cb.OnFrame(frame)
	}
	return nil
}

func (b *Bridge) handleAvailability(_ string, payload []byte) error {
	metric, availability, err := DecodeAvailability(payload)
	if err != nil {
		return err
	}

	for _, cb := range b.snapshotCallbacks() {
		cb.OnAvailabilityChanged(metric, availability)
	}
	return nil
}

func (b *Bridge) handleActivity(_ string, payload []byte) error {
	b.mu.Lock()
	fn := b.onState
	b.mu.Unlock()

	if fn != nil {
		fn(strings.TrimSpace(string(payload)))
	}
	return nil
}

func (b *Bridge) snapshotCallbacks() []exercise.Callback {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]exercise.Callback, len(b.callbacks))
	copy(out, b.callbacks)
	return out
}
