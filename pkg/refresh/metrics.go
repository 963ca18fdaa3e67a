package refresh

import "time"

// Metrics receives measurements from Service and Scheduler.
type Metrics interface {
	// RefreshFinished records the outcome of a single refresh.
	RefreshFinished(state State, elapsed time.Duration)
	// RefreshScheduled records the delay of the next scheduled refresh.
	RefreshScheduled(delay time.Duration, retry bool)
	// ErrorSurfaced records an error handed to the error handler.
	ErrorSurfaced(kind ErrorKind)
}

type nopMetrics struct{}

func (nopMetrics) RefreshFinished(State, time.Duration) {}
func (nopMetrics) RefreshScheduled(time.Duration, bool) {}
func (nopMetrics) ErrorSurfaced(ErrorKind) {}
