package exercise

import (
	"context"
	"fmt"
	"sync"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

const updateBufferSize = 64

// Update is one push from the source: either a frame or an availability
// change.
type Update struct {
	Frame        *models.ExerciseMetricsFrame
	Availability map[models.MetricType]models.Availability
}

// Stream delivers the updates of one registered callback in the order the
// source emitted them. The updates channel is never closed; readers select on
// Done as well.
type Stream struct {
	listener   *listener
	unregister func(Callback) error
	cancel     context.CancelFunc
	updates    chan Update
	stopping   chan struct{}
	done       chan struct{}
	err        error
	result     StartResult
	once       sync.Once
	mu         sync.Mutex
}

func newStream(cancel context.CancelFunc, unregister func(Callback) error) *Stream {
	s := &Stream{
		unregister: unregister,
		cancel:     cancel,
		updates:    make(chan Update, updateBufferSize),
		stopping:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.listener = &listener{stream: s}
	return s
}

// Updates returns the update channel.
func (s *Stream) Updates() <-chan Update {
	return s.updates
}

// Done is closed once the callback has been unregistered.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the reason the stream ended. It is nil after Close and until
// Done is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Result returns how the session behind this stream was started.
func (s *Stream) Result() StartResult {
	return s.result
}

// Close ends the stream and waits for the callback to be unregistered. It is
// safe to call more than once.
func (s *Stream) Close() {
	s.terminate(nil)
	<-s.done
}

func (s *Stream) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.terminate(ctx.Err())
	case <-s.stopping:
	}
}

// terminate records err, unblocks pending deliveries and unregisters the
// callback. Only the first call has any effect.
func (s *Stream) terminate(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()

		close(s.stopping)
		s.cancel()

		if uerr := s.unregister(s.listener); uerr != nil {
			logger.Warn("failed to unregister exercise callback", "error", uerr)
		}
		close(s.done)
	})
}

func (s *Stream) deliver(u Update) {
	select {
	case <-s.stopping:
		return
	default:
	}

	select {
	case s.updates <- u:
	case <-s.stopping:
	}
}

// listener adapts the source's push callbacks onto a Stream.
type listener struct {
	stream *Stream
}

func (l *listener) OnFrame(frame models.ExerciseMetricsFrame) {
	l.stream.deliver(Update{Frame: &frame})
}

func (l *listener) OnAvailabilityChanged(metric models.MetricType, availability models.Availability) {
	logger.Debug("metric availability changed", "metric", metric.String(), "availability", availability.String())
	l.stream.deliver(Update{
		Availability: map[models.MetricType]models.Availability{metric: availability},
	})
}

func (l *listener) OnRegistered() {
	logger.Debug("exercise callback registered")
}

func (l *listener) OnRegistrationFailed(err error) {
	logger.Error("exercise callback registration failed", "error", err)
	l.stream.terminate(fmt.Errorf("%w: %w", models.ErrRegistrationFailed, err))
}
