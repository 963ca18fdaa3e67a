package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util"
	"github.com/dixieflatline76/Potd/util/log"
	"github.com/google/uuid"
)

// State is the state of a refresh.
type State int

// Refresh states.
const (
	StateOngoing State = iota
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOngoing:
		return "ongoing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Service refreshes the current image with the active downloader and
// announces state changes and new images.
type Service struct {
	downloads *DownloadScheduler
	metrics   Metrics

	mu         sync.RWMutex
	downloader DownloadFunc

	stateChanged     util.Signal[State]
	refreshCompleted util.Signal[source.ImageFile]
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceMetrics records refresh outcomes in m.
func WithServiceMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a service without downloader.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		downloads: NewDownloadScheduler(),
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDownloader replaces the downloader used by the next refresh.
func (s *Service) SetDownloader(fn DownloadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloader = fn
}

// Refresh downloads the current image.
//
// Any download still in flight is cancelled first. If ctx ends before the
// download settles, the download is cancelled and Refresh returns once it
// has settled. Errors are logged with their full cause chain and returned
// unchanged.
func (s *Service) Refresh(ctx context.Context) (Result[source.ImageFile], error) {
	s.mu.RLock()
	fn := s.downloader
	s.mu.RUnlock()
	if fn == nil {
		return Result[source.ImageFile]{}, ErrNoDownloader
	}

	s.downloads.CancelCurrentDownload()
	id := uuid.NewString()
	log.Debugf("Refresh %s started", id)
	s.stateChanged.Emit(StateOngoing)
	start := time.Now()
	result, err := s.settle(ctx, s.downloads.maybeStart(fn))
	return s.finish(id, result, err, time.Since(start))
}

// ForceRefresh is like Refresh but restarts the download even if another
// caller started one with the same downloader. Use it when the downloader
// changed, e.g. after selecting another source.
func (s *Service) ForceRefresh(ctx context.Context) (Result[source.ImageFile], error) {
	s.mu.RLock()
	fn := s.downloader
	s.mu.RUnlock()
	if fn == nil {
		return Result[source.ImageFile]{}, ErrNoDownloader
	}
	id := uuid.NewString()
	log.Debugf("Forced refresh %s started", id)
	s.stateChanged.Emit(StateOngoing)
	start := time.Now()
	result, err := s.settle(ctx, s.downloads.forceStart(ctx, fn))
	return s.finish(id, result, err, time.Since(start))
}

func (s *Service) settle(ctx context.Context, op *download) (Result[source.ImageFile], error) {
	if op == nil {
		return Cancelled[source.ImageFile](), nil
	}
	return op.Settle(ctx)
}

func (s *Service) finish(id string, result Result[source.ImageFile], err error, elapsed time.Duration) (Result[source.ImageFile], error) {
	switch {
	case err != nil:
		log.Printf("Refresh %s failed after %s: %v", id, elapsed.Round(time.Millisecond), err)
		for _, cause := range util.Causes(err)[1:] {
			log.Printf("Refresh %s caused by: %v", id, cause)
		}
		s.metrics.RefreshFinished(StateFailed, elapsed)
		s.stateChanged.Emit(StateFailed)
		return result, err
	case result.Cancelled:
		log.Printf("Refresh %s cancelled", id)
		s.metrics.RefreshFinished(StateCancelled, elapsed)
		s.stateChanged.Emit(StateCancelled)
	default:
		log.Printf("Refresh %s completed in %s: %q", id, elapsed.Round(time.Millisecond), result.Value.Metadata.Title)
		s.metrics.RefreshFinished(StateCompleted, elapsed)
		s.stateChanged.Emit(StateCompleted)
		s.refreshCompleted.Emit(result.Value)
	}
	return result, nil
}

// CancelRefresh cancels the refresh in flight and returns once it settled.
func (s *Service) CancelRefresh() {
	s.downloads.CancelCurrentDownload()
}

// Refreshing reports whether a download is in flight.
func (s *Service) Refreshing() bool {
	return s.downloads.DownloadOngoing()
}

// OnStateChanged connects a state-changed handler.
func (s *Service) OnStateChanged(fn func(State)) util.HandlerID {
	return s.stateChanged.Connect(fn)
}

// OnRefreshCompleted connects a handler for newly downloaded images.
func (s *Service) OnRefreshCompleted(fn func(source.ImageFile)) util.HandlerID {
	return s.refreshCompleted.Connect(fn)
}

// DisconnectStateChanged removes a handler added with OnStateChanged.
func (s *Service) DisconnectStateChanged(id util.HandlerID) {
	s.stateChanged.Disconnect(id)
}

// DisconnectRefreshCompleted removes a handler added with OnRefreshCompleted.
func (s *Service) DisconnectRefreshCompleted(id util.HandlerID) {
	s.refreshCompleted.Disconnect(id)
}

// Destroy cancels the download in flight without waiting and drops all
// handlers.
func (s *Service) Destroy() {
	s.downloads.Destroy()
	s.stateChanged.DisconnectAll()
	s.refreshCompleted.DisconnectAll()
}
