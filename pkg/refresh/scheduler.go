package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util"
	"github.com/dixieflatline76/Potd/util/log"
	"github.com/dustin/go-humanize"
)

// Refresher performs a single refresh. *Service implements it.
type Refresher interface {
	Refresh(ctx context.Context) (Result[source.ImageFile], error)
}

// ErrorHandler shows refresh errors to the user.
type ErrorHandler interface {
	ShowError(err error)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(err error)

// ShowError calls f(err).
func (f ErrorHandlerFunc) ShowError(err error) { f(err) }

// Policy controls the refresh cadence.
type Policy struct {
	// Interval between regular refreshes.
	Interval time.Duration
	// ErrorInterval is the delay of a fast retry after a transient failure.
	ErrorInterval time.Duration
	// ErrorLimit is the number of consecutive fast retries before falling
	// back to Interval.
	ErrorLimit int
	// MinDelay is the shortest delay Start schedules.
	MinDelay time.Duration
}

// DefaultPolicy checks every six hours and retries three times, ten minutes
// apart, after transient failures.
func DefaultPolicy() Policy {
	return Policy{
		Interval:      6 * time.Hour,
		ErrorInterval: 10 * time.Minute,
		ErrorLimit:    3,
		MinDelay:      time.Minute,
	}
}

// SchedulerState is the state of a Scheduler.
type SchedulerState int

// Scheduler states.
const (
	SchedulerIdle SchedulerState = iota
	SchedulerScheduled
	SchedulerRefreshing
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerScheduled:
		return "scheduled"
	case SchedulerRefreshing:
		return "refreshing"
	default:
		return "idle"
	}
}

// Scheduler refreshes on a recurring schedule. Transient failures are
// retried sooner, a bounded number of times; all other failures are shown
// to the user and retried at the regular interval.
type Scheduler struct {
	refresher    Refresher
	errors       ErrorHandler
	timers       Timers
	now          func() time.Time
	connectivity network.ConnectivityMonitor
	metrics      Metrics
	policy       Policy

	ctx     context.Context
	destroy context.CancelFunc

	mu          sync.Mutex
	enabled     bool
	refreshing  bool
	pending     Timer
	generation  uint64
	lastRefresh time.Time
	errorCount  int

	completed util.Signal[time.Time]
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTimers replaces the timer source, by default a new TimerRegistry.
func WithTimers(t Timers) SchedulerOption {
	return func(s *Scheduler) { s.timers = t }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithConnectivity suppresses surfaced errors while m reports no full
// connectivity.
func WithConnectivity(m network.ConnectivityMonitor) SchedulerOption {
	return func(s *Scheduler) { s.connectivity = m }
}

// WithMetrics records scheduling decisions in m.
func WithMetrics(m Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) SchedulerOption {
	return func(s *Scheduler) { s.policy = p }
}

// WithLastRefresh restores the time of the last successful refresh.
func WithLastRefresh(t time.Time) SchedulerOption {
	return func(s *Scheduler) { s.lastRefresh = t }
}

// NewScheduler creates an idle scheduler.
func NewScheduler(refresher Refresher, errors ErrorHandler, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		refresher: refresher,
		errors:    errors,
		now:       time.Now,
		metrics:   nopMetrics{},
		policy:    DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timers == nil {
		s.timers = NewTimerRegistry()
	}
	s.ctx, s.destroy = context.WithCancel(context.Background())
	return s
}

// Start begins refreshing on schedule. It refreshes immediately if the last
// refresh is unknown or a regular refresh was missed, and otherwise keeps
// the cadence of the last refresh. Calling Start again is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled || s.ctx.Err() != nil {
		return
	}
	s.enabled = true
	if s.refreshing {
		// The refresh in flight schedules the next one.
		return
	}

	if s.lastRefresh.IsZero() {
		log.Println("Last refresh not known, refreshing immediately")
		s.refreshLocked()
		return
	}

	elapsed := s.now().Sub(s.lastRefresh)
	if elapsed >= s.policy.Interval {
		log.Printf("Last refresh was %s, more than %s ago, refreshing immediately",
			humanize.Time(s.lastRefresh), s.policy.Interval)
		s.refreshLocked()
		return
	}

	delay := s.policy.Interval - elapsed
	if delay < s.policy.MinDelay {
		delay = s.policy.MinDelay
	}
	if delay > s.policy.Interval {
		// The clock went backwards.
		delay = s.policy.Interval
	}
	delay = delay.Round(time.Second)
	log.Printf("Last refresh was at %s, scheduling a regular refresh in %s",
		s.lastRefresh.Format(time.RFC3339), delay)
	s.scheduleLocked(delay, false)
}

// Stop cancels the pending refresh. A refresh in flight is not cancelled,
// but it will not schedule another one.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.clearPendingLocked()
}

// Destroy stops the scheduler for good, tears down all timers, stops
// waiting for a refresh in flight and disconnects all handlers.
func (s *Scheduler) Destroy() {
	s.Stop()
	s.destroy()
	if d, ok := s.timers.(interface{ Destroy() }); ok {
		d.Destroy()
	}
	s.completed.DisconnectAll()
}

// State returns the current scheduler state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.refreshing:
		return SchedulerRefreshing
	case s.pending != nil:
		return SchedulerScheduled
	default:
		return SchedulerIdle
	}
}

// LastRefresh returns the time of the last successful refresh, or the zero
// time if unknown.
func (s *Scheduler) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// SetLastRefresh restores the time of the last successful refresh. It only
// affects the next call to Start.
func (s *Scheduler) SetLastRefresh(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = t
}

// ErrorRefreshCount returns the number of consecutive transient failures.
func (s *Scheduler) ErrorRefreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// OnRefreshCompleted connects a handler receiving the time of each
// successful scheduled refresh.
func (s *Scheduler) OnRefreshCompleted(fn func(time.Time)) util.HandlerID {
	return s.completed.Connect(fn)
}

// Disconnect removes a handler added with OnRefreshCompleted.
func (s *Scheduler) Disconnect(id util.HandlerID) {
	s.completed.Disconnect(id)
}

func (s *Scheduler) clearPendingLocked() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Scheduler) scheduleLocked(delay time.Duration, retry bool) {
	s.clearPendingLocked()
	gen := s.generation
	log.Printf("Scheduling refresh of Picture of the Day in %s (%s)",
		delay, humanize.Time(s.now().Add(delay)))
	s.metrics.RefreshScheduled(delay, retry)
	s.pending = s.timers.Oneshot(delay, func() { s.timerFired(gen) })
}

func (s *Scheduler) timerFired(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Superseded by Stop or a newer schedule.
		return
	}
	s.pending = nil
	if !s.enabled || s.refreshing || s.ctx.Err() != nil {
		return
	}
	s.refreshLocked()
}

func (s *Scheduler) refreshLocked() {
	s.clearPendingLocked()
	s.refreshing = true
	go func() {
		result, err := s.refresher.Refresh(s.ctx)
		s.handleResult(result, err)
	}()
}

func (s *Scheduler) handleResult(result Result[source.ImageFile], err error) {
	var (
		completedAt time.Time
		surfaced    error
		kind        ErrorKind
	)

	s.mu.Lock()
	s.refreshing = false
	s.clearPendingLocked()

	delay, retry := s.policy.Interval, false
	switch {
	case err == nil:
		s.errorCount = 0
		if !result.Cancelled {
			s.lastRefresh = s.now()
			completedAt = s.lastRefresh
			log.Printf("Automatic refresh completed successfully at %s", completedAt.Format(time.RFC3339))
		}
	default:
		kind = Classify(err)
		if kind.Transient() {
			s.errorCount++
			if s.errorCount <= s.policy.ErrorLimit {
				log.Printf("Transient %s error, fast retry %d of %d", kind, s.errorCount, s.policy.ErrorLimit)
				delay, retry = s.policy.ErrorInterval, true
			} else {
				log.Printf("Fast refresh limit %d hit, reverting to regular refreshes", s.policy.ErrorLimit)
				surfaced = err
				s.errorCount = 0
			}
		} else {
			surfaced = err
		}
	}

	s.mu.Unlock()

	if !completedAt.IsZero() {
		s.completed.Emit(completedAt)
	}
	if surfaced != nil {
		s.surface(surfaced, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Stop or Start may have run while handlers were called.
	if s.enabled && !s.refreshing && s.pending == nil && s.ctx.Err() == nil {
		s.scheduleLocked(delay, retry)
	}
}

// surface shows err unless the scheduler is gone or the network is down.
func (s *Scheduler) surface(err error, kind ErrorKind) {
	if s.ctx.Err() != nil {
		return
	}
	if s.connectivity != nil && !s.connectivity.FullyConnected(s.ctx) {
		log.Printf("Not showing %s error, network not fully connected: %v", kind, err)
		return
	}
	s.metrics.ErrorSurfaced(kind)
	s.errors.ShowError(err)
}
