package refresh

import (
	"context"
	"sync"

	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
)

// DownloadFunc downloads the current image. It must honour ctx.
type DownloadFunc func(ctx context.Context) (source.ImageFile, error)

type download = Operation[source.ImageFile]

// DownloadScheduler permits a single download at a time.
//
// Downloads run detached from the callers that start them, so that callers
// sharing a download through MaybeStartDownload do not cancel it for each
// other. A caller's ctx only bounds how long it waits; Service cancels the
// download itself when its caller gives up.
type DownloadScheduler struct {
	base context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	current *download
}

// NewDownloadScheduler creates an idle scheduler.
func NewDownloadScheduler() *DownloadScheduler {
	base, stop := context.WithCancel(context.Background())
	return &DownloadScheduler{base: base, stop: stop}
}

// startLocked records a new download. Caller holds s.mu.
func (s *DownloadScheduler) startLocked(fn DownloadFunc) *download {
	op := RunCancellable(s.base, fn)
	s.current = op
	go func() {
		<-op.Done()
		s.clear(op)
	}()
	return op
}

func (s *DownloadScheduler) clear(op *download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == op {
		s.current = nil
	}
}

// DownloadOngoing reports whether a download is in flight.
func (s *DownloadScheduler) DownloadOngoing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.current.Finished()
}

// CancelCurrentDownload cancels the download in flight, if any, and returns
// once it has settled. Its outcome is discarded.
func (s *DownloadScheduler) CancelCurrentDownload() {
	s.mu.Lock()
	op := s.current
	s.mu.Unlock()
	if op == nil {
		return
	}
	log.Println("Cancelling ongoing download")
	op.Cancel()
	<-op.Done()
	s.clear(op)
}

// MaybeStartDownload starts fn unless a download is in flight already, in
// which case it waits for that download and returns its result instead.
func (s *DownloadScheduler) MaybeStartDownload(ctx context.Context, fn DownloadFunc) (Result[source.ImageFile], error) {
	op := s.maybeStart(fn)
	if op == nil {
		return Cancelled[source.ImageFile](), nil
	}
	return op.Wait(ctx)
}

// ForceStartDownload cancels the download in flight, waits for it to settle,
// and then starts fn.
func (s *DownloadScheduler) ForceStartDownload(ctx context.Context, fn DownloadFunc) (Result[source.ImageFile], error) {
	op := s.forceStart(ctx, fn)
	if op == nil {
		return Cancelled[source.ImageFile](), nil
	}
	return op.Wait(ctx)
}

// maybeStart returns the download in flight or starts fn. It returns nil
// after Destroy.
func (s *DownloadScheduler) maybeStart(fn DownloadFunc) *download {
	if s.base.Err() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op := s.current
	if op == nil || op.Finished() {
		log.Println("Starting image download")
		op = s.startLocked(fn)
	}
	return op
}

// forceStart cancels the download in flight and starts fn once it settled.
// It returns nil after Destroy or if ctx ends while waiting.
func (s *DownloadScheduler) forceStart(ctx context.Context, fn DownloadFunc) *download {
	for {
		if s.base.Err() != nil {
			return nil
		}
		s.mu.Lock()
		op := s.current
		if op == nil || op.Finished() {
			log.Println("Starting image download")
			op = s.startLocked(fn)
			s.mu.Unlock()
			return op
		}
		s.mu.Unlock()

		// Another download is in flight; cancel it and try again once settled.
		op.Cancel()
		select {
		case <-op.Done():
		case <-ctx.Done():
			return nil
		}
	}
}

// Destroy cancels the download in flight without waiting for it. Downloads
// started afterwards resolve as cancelled immediately.
func (s *DownloadScheduler) Destroy() {
	s.stop()
}
