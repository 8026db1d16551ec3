package exercise

import (
	"context"
	"sync"

	"github.com/j-veylop/wearmon/internal/models"
)

// fakeSource is a scriptable MeasurementSource.
type fakeSource struct {
	mu sync.Mutex

	info          models.SessionInfo
	infoErr       error
	prepareErr    error
	activateErr   error
	endErr        error
	registerErr   error
	activateGate  chan struct{}
	activateEnter chan struct{}

	prepareCalls    int
	activateCalls   int
	endCalls        int
	registerCalls   int
	unregisterCalls int
	callbacks       []Callback
}

func (f *fakeSource) Prepare(ctx context.Context, _ models.SessionSpec) error {
	f.mu.Lock()
	f.prepareCalls++
	err := f.prepareErr
	f.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		f.mu.Lock()
		f.info = models.SessionInfo{State: models.SessionPreparing}
		f.mu.Unlock()
	}
	return err
}

func (f *fakeSource) Activate(ctx context.Context, _ models.SessionSpec) error {
	f.mu.Lock()
	f.activateCalls++
	gate, enter, err := f.activateGate, f.activateEnter, f.activateErr
	f.mu.Unlock()

	if enter != nil {
		close(enter)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err == nil {
		f.mu.Lock()
		f.info = models.SessionInfo{State: models.SessionActive}
		f.mu.Unlock()
	}
	return err
}

func (f *fakeSource) RegisterCallback(cb Callback) {
	f.mu.Lock()
	f.registerCalls++
	f.callbacks = append(f.callbacks, cb)
	err := f.registerErr
	f.mu.Unlock()

	if err != nil {
		cb.OnRegistrationFailed(err)
		return
	}
	cb.OnRegistered()
}

func (f *fakeSource) UnregisterCallback(cb Callback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregisterCalls++
	for i, existing := range f.callbacks {
		if existing == cb {
			f.callbacks = append(f.callbacks[:i], f.callbacks[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSource) CurrentSessionInfo(context.Context) (models.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, f.infoErr
}

func (f *fakeSource) End(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endCalls++
	if f.endErr != nil {
		return f.endErr
	}
	if f.info.State == models.SessionIdle {
		return models.ErrNoActiveSession
	}
	f.info = models.SessionInfo{}
	return nil
}

func (f *fakeSource) emit(frame models.ExerciseMetricsFrame) {
	f.mu.Lock()
	cbs := append([]Callback(nil), f.callbacks...)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb.OnFrame(frame)
	}
}

func (f *fakeSource) availability(metric models.MetricType, a models.Availability) {
	f.mu.Lock()
	cbs := append([]Callback(nil), f.callbacks...)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb.OnAvailabilityChanged(metric, a)
	}
}

func (f *fakeSource) counts() (prepare, activate, unregister int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prepareCalls, f.activateCalls, f.unregisterCalls
}
