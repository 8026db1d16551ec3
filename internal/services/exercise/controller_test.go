package exercise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

func newTestController(src *fakeSource) *Controller {
	return NewController(src, models.DefaultSessionSpec(), WithIDGenerator(func() string { return "session-1" }))
}

func nextUpdate(t *testing.T, st *Stream) Update {
	t.Helper()
	select {
	case u := <-st.Updates():
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestOpen_FreshStart(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(src)

	st, res, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if res.Reused {
		t.Error("fresh start should not be reported as reused")
	}
	if res.SessionID != "session-1" || c.SessionID() != "session-1" {
		t.Errorf("SessionID = %q / %q, want session-1", res.SessionID, c.SessionID())
	}
	if c.State() != models.SessionActive {
		t.Errorf("State = %v, want Active", c.State())
	}

	prepare, activate, _ := src.counts()
	if prepare != 1 || activate != 1 {
		t.Errorf("prepare=%d activate=%d, want 1 and 1", prepare, activate)
	}

	src.emit(models.ExerciseMetricsFrame{HeartRateBPM: models.Float64(101)})
	u := nextUpdate(t, st)
	if u.Frame == nil || *u.Frame.HeartRateBPM != 101 {
		t.Errorf("unexpected update %+v", u)
	}
}

func TestOpen_ReusesActiveSession(t *testing.T) {
	src := &fakeSource{info: models.SessionInfo{State: models.SessionActive, SessionID: "watch-7", ExerciseType: "running"}}
	c := newTestController(src)

	var states []models.SessionState
	c.onStateChange = func(s models.SessionState) { states = append(states, s) }

	st, res, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if !res.Reused || res.SessionID != "watch-7" {
		t.Errorf("result = %+v, want reused watch-7", res)
	}
	prepare, activate, _ := src.counts()
	if prepare != 0 || activate != 0 {
		t.Errorf("prepare=%d activate=%d, want no start calls on reuse", prepare, activate)
	}
	for _, s := range states {
		if s == models.SessionPreparing {
			t.Error("reuse should go straight to Active")
		}
	}

	src.emit(models.ExerciseMetricsFrame{Steps: models.Int64(4)})
	if u := nextUpdate(t, st); u.Frame == nil || *u.Frame.Steps != 4 {
		t.Errorf("listener not attached on reuse, got %+v", u)
	}
}

func TestOpen_StartFailureReleasesCallback(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"QueryFails", &fakeSource{infoErr: errors.New("binder died")}},
		{"PrepareFails", &fakeSource{prepareErr: errors.New("sensor busy")}},
		{"ActivateFails", &fakeSource{activateErr: errors.New("permission missing")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(tt.src)

			st, _, err := c.Open(context.Background())
			if !errors.Is(err, models.ErrSourceUnavailable) {
				t.Errorf("error = %v, want ErrSourceUnavailable", err)
			}
			if st != nil {
				t.Error("stream should be nil on failure")
			}
			if c.State() != models.SessionIdle {
				t.Errorf("State = %v, want Idle", c.State())
			}
			if _, _, unregister := tt.src.counts(); unregister != 1 {
				t.Errorf("unregister calls = %d, want 1", unregister)
			}
		})
	}
}

func TestOpen_CancelDuringActivateUnregistersOnce(t *testing.T) {
	src := &fakeSource{
		activateGate:  make(chan struct{}),
		activateEnter: make(chan struct{}),
	}
	c := newTestController(src)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Open(ctx)
		errCh <- err
	}()

	<-src.activateEnter
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Open did not return after cancel")
	}

	if _, _, unregister := src.counts(); unregister != 1 {
		t.Errorf("unregister calls = %d, want exactly 1", unregister)
	}
	if c.State() != models.SessionIdle {
		t.Errorf("State = %v, want Idle", c.State())
	}
}

func TestOpen_RegistrationFailed(t *testing.T) {
	src := &fakeSource{registerErr: errors.New("service disconnected")}
	c := newTestController(src)

	_, _, err := c.Open(context.Background())
	if !errors.Is(err, models.ErrRegistrationFailed) {
		t.Errorf("error = %v, want ErrRegistrationFailed", err)
	}
	if _, _, unregister := src.counts(); unregister != 1 {
		t.Errorf("unregister calls = %d, want 1", unregister)
	}
}

func TestOpen_RegistrationFailedWithActiveSource(t *testing.T) {
	src := &fakeSource{
		info:        models.SessionInfo{State: models.SessionActive, SessionID: "watch-7"},
		registerErr: errors.New("service disconnected"),
	}
	c := newTestController(src)

	st, res, err := c.Open(context.Background())
	if !errors.Is(err, models.ErrRegistrationFailed) {
		t.Errorf("error = %v, want ErrRegistrationFailed", err)
	}
	if st != nil || res.SessionID != "" {
		t.Errorf("stream = %v result = %+v, want nothing on failure", st, res)
	}
	if c.State() != models.SessionIdle || c.SessionID() != "" {
		t.Errorf("State = %v id = %q, want Idle and empty", c.State(), c.SessionID())
	}
}

func TestStart_PreparingSourceIsStartedAgain(t *testing.T) {
	src := &fakeSource{info: models.SessionInfo{State: models.SessionPreparing, ExerciseType: "running"}}
	c := newTestController(src)

	res, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if res.Reused {
		t.Error("a preparing session must not be reused")
	}
	prepare, activate, _ := src.counts()
	if prepare != 1 || activate != 1 {
		t.Errorf("prepare=%d activate=%d, want 1 and 1", prepare, activate)
	}
}

func TestOpen_RetryAfterCancelledActivate(t *testing.T) {
	src := &fakeSource{
		activateGate:  make(chan struct{}),
		activateEnter: make(chan struct{}),
	}
	c := newTestController(src)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Open(ctx)
		errCh <- err
	}()
	<-src.activateEnter
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("first Open = %v, want context.Canceled", err)
	}

	src.mu.Lock()
	left := src.info.State
	src.activateGate, src.activateEnter = nil, nil
	src.mu.Unlock()
	if left != models.SessionPreparing {
		t.Fatalf("source state = %v, want Preparing after cancelled activate", left)
	}

	st, res, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer st.Close()

	if res.Reused {
		t.Error("second start reused a session that was never activated")
	}
	prepare, activate, _ := src.counts()
	if prepare != 2 || activate != 2 {
		t.Errorf("prepare=%d activate=%d, want 2 and 2", prepare, activate)
	}
	if c.State() != models.SessionActive {
		t.Errorf("State = %v, want Active", c.State())
	}
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(src)

	st, _, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	st.Close()
	st.Close()

	if st.Err() != nil {
		t.Errorf("Err() = %v, want nil after Close", st.Err())
	}
	if _, _, unregister := src.counts(); unregister != 1 {
		t.Errorf("unregister calls = %d, want 1", unregister)
	}

	// Pushes after release must not block the source.
	done := make(chan struct{})
	go func() {
		for i := 0; i < updateBufferSize*2; i++ {
			st.listener.OnFrame(models.ExerciseMetricsFrame{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("late pushes blocked")
	}
}

func TestStream_ParentCancelEndsStream(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(src)

	ctx, cancel := context.WithCancel(context.Background())
	st, _, err := c.Open(ctx)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	cancel()
	select {
	case <-st.Done():
	case <-time.After(time.Second):
		t.Fatal("stream not done after cancel")
	}

	if !errors.Is(st.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", st.Err())
	}
	st.Close()
	if _, _, unregister := src.counts(); unregister != 1 {
		t.Errorf("unregister calls = %d, want 1", unregister)
	}
}

func TestStream_PreservesOrder(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(src)

	st, _, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	go func() {
		for i := int64(1); i <= 200; i++ {
			src.emit(models.ExerciseMetricsFrame{Steps: models.Int64(i)})
		}
	}()

	for i := int64(1); i <= 200; i++ {
		u := nextUpdate(t, st)
		if got := *u.Frame.Steps; got != i {
			t.Fatalf("update %d carried steps %d", i, got)
		}
	}
}

func TestStream_AvailabilityUpdate(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(src)

	st, _, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	src.availability(models.MetricHeartRate, models.AvailabilityAcquiring)
	u := nextUpdate(t, st)
	if u.Frame != nil || u.Availability[models.MetricHeartRate] != models.AvailabilityAcquiring {
		t.Errorf("unexpected update %+v", u)
	}
}

func TestStop(t *testing.T) {
	t.Run("EndsActiveSession", func(t *testing.T) {
		src := &fakeSource{}
		c := newTestController(src)
		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		if err := c.Stop(context.Background()); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if c.State() != models.SessionIdle || c.SessionID() != "" {
			t.Errorf("State = %v id = %q, want Idle and empty", c.State(), c.SessionID())
		}
	})

	t.Run("NoActiveSessionIsNoOp", func(t *testing.T) {
		src := &fakeSource{}
		c := newTestController(src)
		agg := NewAggregator(nil)
		agg.Apply(models.ExerciseMetricsFrame{Steps: models.Int64(10)})

		if err := c.Stop(context.Background()); err != nil {
			t.Errorf("Stop with nothing running = %v, want nil", err)
		}
		if err := c.Stop(context.Background()); err != nil {
			t.Errorf("second Stop = %v, want nil", err)
		}
		if agg.Totals().Steps != 10 {
			t.Errorf("Steps = %d, stop must not touch totals", agg.Totals().Steps)
		}
		if c.State() != models.SessionIdle {
			t.Errorf("State = %v, want Idle", c.State())
		}
	})

	t.Run("OtherErrorRestoresState", func(t *testing.T) {
		src := &fakeSource{}
		c := newTestController(src)
		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		src.endErr = errors.New("remote exception")

		if err := c.Stop(context.Background()); err == nil {
			t.Error("Stop should surface a non-benign error")
		}
		if c.State() != models.SessionActive || c.SessionID() != "session-1" {
			t.Errorf("State = %v id = %q, want Active session-1", c.State(), c.SessionID())
		}
	})
}

func TestStart_RejectsConcurrentTransition(t *testing.T) {
	src := &fakeSource{
		activateGate:  make(chan struct{}),
		activateEnter: make(chan struct{}),
	}
	c := newTestController(src)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Start(context.Background())
		errCh <- err
	}()
	<-src.activateEnter

	if c.State() != models.SessionPreparing {
		t.Errorf("State = %v, want Preparing", c.State())
	}
	if _, err := c.Start(context.Background()); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("second Start = %v, want ErrTransitionInProgress", err)
	}
	if err := c.Stop(context.Background()); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("Stop during start = %v, want ErrTransitionInProgress", err)
	}

	close(src.activateGate)
	if err := <-errCh; err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
}
