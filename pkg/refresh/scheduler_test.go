package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var schedulerNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type schedulerFixture struct {
	scheduler *Scheduler
	refresher *scriptedRefresher
	timers    *fakeTimers
	errors    *MockErrorHandler
}

func newSchedulerFixture(t *testing.T, opts ...SchedulerOption) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		refresher: newScriptedRefresher(),
		timers:    newFakeTimers(),
		errors:    new(MockErrorHandler),
	}
	opts = append([]SchedulerOption{
		WithTimers(f.timers),
		WithClock(func() time.Time { return schedulerNow }),
		WithConnectivity(staticConnectivity(true)),
	}, opts...)
	f.scheduler = NewScheduler(f.refresher, f.errors, opts...)
	t.Cleanup(f.scheduler.Destroy)
	return f
}

func transientError() error {
	return &network.RequestError{URL: "https://www.bing.com/HPImageArchive.aspx", Msg: "GET failed", Err: &network.StatusError{Code: 502}}
}

func TestSchedulerStart(t *testing.T) {
	t.Run("Unknown last refresh refreshes immediately", func(t *testing.T) {
		f := newSchedulerFixture(t)
		completed := make(chan time.Time, 1)
		f.scheduler.OnRefreshCompleted(func(at time.Time) { completed <- at })

		f.scheduler.Start()
		f.refresher.called(t)
		assert.Equal(t, SchedulerRefreshing, f.scheduler.State())

		f.refresher.succeed("Nebula")
		timer := f.timers.next(t)
		assert.Equal(t, 6*time.Hour, timer.delay)
		assert.Equal(t, SchedulerScheduled, f.scheduler.State())
		assert.Equal(t, schedulerNow, f.scheduler.LastRefresh())
		assert.Equal(t, schedulerNow, <-completed)
	})

	t.Run("Keeps cadence of the last refresh", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-3*time.Hour)))
		f.scheduler.Start()

		timer := f.timers.next(t)
		assert.Equal(t, 3*time.Hour, timer.delay)
		assert.Empty(t, f.refresher.calls)
	})

	t.Run("Missed refresh runs immediately", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-7*time.Hour)))
		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.succeed("Nebula")
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
	})

	t.Run("Delay has a floor", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-(5*time.Hour + 59*time.Minute + 30*time.Second))))
		f.scheduler.Start()
		assert.Equal(t, time.Minute, f.timers.next(t).delay)
	})

	t.Run("Last refresh in the future waits one interval", func(t *testing.T) {
		f := newSchedulerFixture(t)
		f.scheduler.SetLastRefresh(schedulerNow.Add(2 * time.Hour))
		f.scheduler.Start()
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
	})

	t.Run("Start twice is a no-op", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-time.Hour)))
		f.scheduler.Start()
		f.timers.next(t)
		f.scheduler.Start()
		f.timers.none(t)
	})

	t.Run("Timer starts a refresh", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-time.Hour)))
		f.scheduler.Start()
		f.timers.next(t).Fire()
		f.refresher.called(t)
		f.refresher.succeed("Nebula")
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
	})
}

func TestSchedulerErrors(t *testing.T) {
	t.Run("Transient errors retry fast up to the limit", func(t *testing.T) {
		f := newSchedulerFixture(t)
		err := transientError()
		f.errors.On("ShowError", err).Once()

		f.scheduler.Start()
		for i := 1; i <= 3; i++ {
			f.refresher.called(t)
			f.refresher.fail(err)
			timer := f.timers.next(t)
			assert.Equal(t, 10*time.Minute, timer.delay, "retry %d", i)
			assert.Equal(t, i, f.scheduler.ErrorRefreshCount())
			timer.Fire()
		}

		f.refresher.called(t)
		f.refresher.fail(err)
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		assert.Zero(t, f.scheduler.ErrorRefreshCount())
		assert.True(t, f.scheduler.LastRefresh().IsZero())
		f.errors.AssertExpectations(t)
	})

	t.Run("Success resets the error count", func(t *testing.T) {
		f := newSchedulerFixture(t)
		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.fail(transientError())
		f.timers.next(t).Fire()

		f.refresher.called(t)
		f.refresher.succeed("Nebula")
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		assert.Zero(t, f.scheduler.ErrorRefreshCount())
	})

	t.Run("Configuration errors are shown and retried regularly", func(t *testing.T) {
		f := newSchedulerFixture(t)
		meta := source.Metadata{Key: "apod", Name: "APOD"}
		err := source.NewInvalidAPIKeyError(meta, transientError())
		f.errors.On("ShowError", err).Once()

		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.fail(err)
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		assert.Zero(t, f.scheduler.ErrorRefreshCount())
		f.errors.AssertExpectations(t)
	})

	t.Run("Other errors keep the fast retry count", func(t *testing.T) {
		f := newSchedulerFixture(t)
		notImage := &source.NotAnImageError{MediaType: "video"}
		f.errors.On("ShowError", notImage).Once()

		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.fail(transientError())
		f.timers.next(t).Fire()
		f.refresher.called(t)
		f.refresher.fail(notImage)
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		assert.Equal(t, 1, f.scheduler.ErrorRefreshCount())
		f.errors.AssertExpectations(t)
	})

	t.Run("Errors are not shown while offline", func(t *testing.T) {
		f := newSchedulerFixture(t, WithConnectivity(staticConnectivity(false)))
		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.fail(errors.New("unknown failure"))
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		f.errors.AssertNotCalled(t, "ShowError", mock.Anything)
	})

	t.Run("Cancelled refresh resets the error count", func(t *testing.T) {
		f := newSchedulerFixture(t)
		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.fail(transientError())
		f.timers.next(t).Fire()

		f.refresher.called(t)
		f.refresher.cancel()
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		assert.Zero(t, f.scheduler.ErrorRefreshCount())
		assert.True(t, f.scheduler.LastRefresh().IsZero())
	})

	t.Run("Metrics record schedule and surfaced errors", func(t *testing.T) {
		m := new(MockMetrics)
		m.On("RefreshScheduled", 6*time.Hour, false).Once()
		m.On("ErrorSurfaced", KindNoSuchSource).Once()
		f := newSchedulerFixture(t, WithMetrics(m))
		err := &source.NoSuchSourceError{Key: "flickr"}
		f.errors.On("ShowError", err).Once()

		f.scheduler.Start()
		f.refresher.called(t)
		f.refresher.fail(err)
		f.timers.next(t)
		m.AssertExpectations(t)
	})
}

func TestSchedulerStop(t *testing.T) {
	t.Run("Stop cancels the pending timer", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-time.Hour)))
		f.scheduler.Start()
		timer := f.timers.next(t)

		f.scheduler.Stop()
		f.scheduler.Stop()
		assert.True(t, timer.Stopped())
		assert.Equal(t, SchedulerIdle, f.scheduler.State())

		// A stale callback racing with Stop is ignored.
		timer.callback()
		assert.Empty(t, f.refresher.calls)
	})

	t.Run("Refresh in flight does not reschedule after Stop", func(t *testing.T) {
		f := newSchedulerFixture(t)
		f.scheduler.Start()
		f.refresher.called(t)
		f.scheduler.Stop()
		f.refresher.succeed("Nebula")
		f.timers.none(t)
		assert.Eventually(t, func() bool { return f.scheduler.State() == SchedulerIdle }, time.Second, 5*time.Millisecond)
	})

	t.Run("Restart during refresh schedules once", func(t *testing.T) {
		f := newSchedulerFixture(t)
		f.scheduler.Start()
		f.refresher.called(t)
		f.scheduler.Stop()
		f.scheduler.Start()
		f.refresher.succeed("Nebula")
		assert.Equal(t, 6*time.Hour, f.timers.next(t).delay)
		f.timers.none(t)
		assert.Empty(t, f.refresher.calls)
	})

	t.Run("Destroy is final", func(t *testing.T) {
		f := newSchedulerFixture(t, WithLastRefresh(schedulerNow.Add(-time.Hour)))
		completed := 0
		f.scheduler.OnRefreshCompleted(func(time.Time) { completed++ })
		f.scheduler.Start()
		timer := f.timers.next(t)

		f.scheduler.Destroy()
		f.scheduler.Destroy()
		assert.True(t, timer.Stopped())

		f.scheduler.Start()
		f.timers.none(t)
		assert.Empty(t, f.refresher.calls)
		assert.Zero(t, completed)
	})

	t.Run("Destroy during refresh shows nothing", func(t *testing.T) {
		f := newSchedulerFixture(t)
		f.scheduler.Start()
		f.refresher.called(t)
		f.scheduler.Destroy()
		f.timers.none(t)
		require.Eventually(t, func() bool { return f.scheduler.State() == SchedulerIdle }, time.Second, 5*time.Millisecond)
		f.errors.AssertNotCalled(t, "ShowError", mock.Anything)
	})
}

func TestSchedulerStateString(t *testing.T) {
	assert.Equal(t, "idle", SchedulerIdle.String())
	assert.Equal(t, "scheduled", SchedulerScheduled.String())
	assert.Equal(t, "refreshing", SchedulerRefreshing.String())
}

func TestSchedulerDestroyCancelsServiceRefresh(t *testing.T) {
	svc := NewService()
	t.Cleanup(svc.Destroy)
	started := make(chan context.Context, 1)
	svc.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
		started <- ctx
		<-ctx.Done()
		return source.ImageFile{}, ctx.Err()
	})
	var states stateRecorder
	svc.OnStateChanged(states.record)

	scheduler := NewScheduler(svc, ErrorHandlerFunc(func(err error) { t.Errorf("unexpected error: %v", err) }),
		WithTimers(newFakeTimers()),
		WithClock(func() time.Time { return schedulerNow }),
		WithConnectivity(staticConnectivity(true)),
	)
	scheduler.Start()
	downloadCtx := <-started
	require.True(t, svc.Refreshing())

	scheduler.Destroy()

	assert.Eventually(t, func() bool { return !svc.Refreshing() }, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, downloadCtx.Err())
	assert.Eventually(t, func() bool {
		got := states.get()
		return len(got) == 2 && got[1] == StateCancelled
	}, 2*time.Second, 10*time.Millisecond)
}
