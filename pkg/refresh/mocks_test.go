package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeTimer is a timer that only fires when the test says so.
type fakeTimer struct {
	delay    time.Duration
	callback func()

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire runs the callback unless the timer was stopped.
func (t *fakeTimer) Fire() {
	if t.Stopped() {
		return
	}
	t.callback()
}

// fakeTimers records every timer created through Oneshot.
type fakeTimers struct {
	created chan *fakeTimer
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{created: make(chan *fakeTimer, 16)}
}

func (f *fakeTimers) Oneshot(delay time.Duration, callback func()) Timer {
	t := &fakeTimer{delay: delay, callback: callback}
	f.created <- t
	return t
}

// next waits for the next timer the scheduler creates.
func (f *fakeTimers) next(t *testing.T) *fakeTimer {
	t.Helper()
	select {
	case timer := <-f.created:
		return timer
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no timer scheduled")
		return nil
	}
}

// none asserts that no timer is created within a short grace period.
func (f *fakeTimers) none(t *testing.T) {
	t.Helper()
	select {
	case timer := <-f.created:
		require.FailNow(t, "unexpected timer", "delay %s", timer.delay)
	case <-time.After(50 * time.Millisecond):
	}
}

type outcome struct {
	result Result[source.ImageFile]
	err    error
}

// scriptedRefresher returns queued outcomes, one per call to Refresh.
type scriptedRefresher struct {
	outcomes chan outcome
	calls    chan struct{}
}

func newScriptedRefresher() *scriptedRefresher {
	return &scriptedRefresher{
		outcomes: make(chan outcome, 16),
		calls:    make(chan struct{}, 16),
	}
}

func (r *scriptedRefresher) succeed(title string) {
	r.outcomes <- outcome{result: Completed(source.ImageFile{Metadata: source.ImageMetadata{Title: title}})}
}

func (r *scriptedRefresher) cancel() {
	r.outcomes <- outcome{result: Cancelled[source.ImageFile]()}
}

func (r *scriptedRefresher) fail(err error) {
	r.outcomes <- outcome{err: err}
}

func (r *scriptedRefresher) Refresh(ctx context.Context) (Result[source.ImageFile], error) {
	r.calls <- struct{}{}
	select {
	case o := <-r.outcomes:
		return o.result, o.err
	case <-ctx.Done():
		return Cancelled[source.ImageFile](), nil
	}
}

// called waits for the next call to Refresh.
func (r *scriptedRefresher) called(t *testing.T) {
	t.Helper()
	select {
	case <-r.calls:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "refresh not called")
	}
}

// MockErrorHandler implements ErrorHandler for testing
type MockErrorHandler struct {
	mock.Mock
}

func (m *MockErrorHandler) ShowError(err error) {
	m.Called(err)
}

type staticConnectivity bool

func (c staticConnectivity) FullyConnected(context.Context) bool { return bool(c) }

// MockMetrics implements Metrics for testing
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RefreshFinished(state State, elapsed time.Duration) {
	m.Called(state, elapsed)
}

func (m *MockMetrics) RefreshScheduled(delay time.Duration, retry bool) {
	m.Called(delay, retry)
}

func (m *MockMetrics) ErrorSurfaced(kind ErrorKind) {
	m.Called(kind)
}
