package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dixieflatline76/Potd/pkg/network"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stateRecorder collects state-changed events.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) get() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestServiceRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Fails fast without downloader", func(t *testing.T) {
		s := NewService()
		var states stateRecorder
		s.OnStateChanged(states.record)

		_, err := s.Refresh(ctx)
		assert.ErrorIs(t, err, ErrNoDownloader)
		assert.Equal(t, KindConfiguration, Classify(err))
		assert.Empty(t, states.get())
	})

	t.Run("Completed emits state then image", func(t *testing.T) {
		s := NewService()
		var order []string
		s.OnStateChanged(func(st State) { order = append(order, st.String()) })
		s.OnRefreshCompleted(func(img source.ImageFile) { order = append(order, "image:"+img.Metadata.Title) })

		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			return source.ImageFile{Metadata: source.ImageMetadata{Title: "Nebula"}}, nil
		})
		result, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Nebula", result.Value.Metadata.Title)
		assert.Equal(t, []string{"ongoing", "completed", "image:Nebula"}, order)
	})

	t.Run("Failure emits failed and returns the error unchanged", func(t *testing.T) {
		m := new(MockMetrics)
		m.On("RefreshFinished", StateFailed, mock.AnythingOfType("time.Duration")).Once()
		s := NewService(WithServiceMetrics(m))
		var states stateRecorder
		s.OnStateChanged(states.record)
		images := 0
		s.OnRefreshCompleted(func(source.ImageFile) { images++ })

		cause := &network.StatusError{Code: 503}
		wrapped := &network.RequestError{URL: "https://example.com", Msg: "GET failed", Err: cause}
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			return source.ImageFile{}, fmt.Errorf("bing: %w", wrapped)
		})

		_, err := s.Refresh(ctx)
		var reqErr *network.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Same(t, wrapped, reqErr)
		assert.Equal(t, []State{StateOngoing, StateFailed}, states.get())
		assert.Zero(t, images)
		m.AssertExpectations(t)
	})

	t.Run("Cancelled refresh emits cancelled", func(t *testing.T) {
		s := NewService()
		var states stateRecorder
		s.OnStateChanged(states.record)

		started := make(chan struct{})
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			close(started)
			<-ctx.Done()
			return source.ImageFile{}, ctx.Err()
		})

		done := make(chan Result[source.ImageFile], 1)
		go func() {
			r, err := s.Refresh(ctx)
			assert.NoError(t, err)
			done <- r
		}()
		<-started
		s.CancelRefresh()
		assert.False(t, s.Refreshing())

		r := <-done
		assert.True(t, r.Cancelled)
		assert.Equal(t, []State{StateOngoing, StateCancelled}, states.get())
	})

	t.Run("Refresh cancels the previous download", func(t *testing.T) {
		s := NewService()
		firstStarted := make(chan struct{})
		calls := 0
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			calls++
			if calls == 1 {
				close(firstStarted)
				<-ctx.Done()
				return source.ImageFile{}, errors.New("aborted")
			}
			return source.ImageFile{Metadata: source.ImageMetadata{Title: "second"}}, nil
		})

		first := make(chan Result[source.ImageFile], 1)
		go func() {
			r, _ := s.Refresh(ctx)
			first <- r
		}()
		<-firstStarted

		r, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", r.Value.Metadata.Title)
		assert.True(t, (<-first).Cancelled)
	})

	t.Run("Force refresh with new downloader", func(t *testing.T) {
		s := NewService()
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			return source.ImageFile{Metadata: source.ImageMetadata{Title: "apod"}}, nil
		})
		r, err := s.ForceRefresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "apod", r.Value.Metadata.Title)
	})

	t.Run("Disconnected handlers are not called", func(t *testing.T) {
		s := NewService()
		calls := 0
		id := s.OnStateChanged(func(State) { calls++ })
		imgID := s.OnRefreshCompleted(func(source.ImageFile) { calls++ })
		s.DisconnectStateChanged(id)
		s.DisconnectRefreshCompleted(imgID)
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			return source.ImageFile{}, nil
		})
		_, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.Zero(t, calls)
	})

	t.Run("Destroy cancels in flight download", func(t *testing.T) {
		s := NewService()
		started := make(chan struct{})
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			close(started)
			<-ctx.Done()
			return source.ImageFile{}, ctx.Err()
		})
		done := make(chan Result[source.ImageFile], 1)
		go func() {
			r, _ := s.Refresh(ctx)
			done <- r
		}()
		<-started
		s.Destroy()
		select {
		case r := <-done:
			assert.True(t, r.Cancelled)
		case <-time.After(2 * time.Second):
			require.FailNow(t, "refresh did not settle after Destroy")
		}
	})

	t.Run("Caller giving up cancels the download", func(t *testing.T) {
		s := NewService()
		var states stateRecorder
		s.OnStateChanged(states.record)
		downloadCtx := make(chan context.Context, 1)
		s.SetDownloader(func(ctx context.Context) (source.ImageFile, error) {
			downloadCtx <- ctx
			<-ctx.Done()
			return source.ImageFile{}, ctx.Err()
		})
		callerCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		r, err := s.Refresh(callerCtx)
		require.NoError(t, err)
		assert.True(t, r.Cancelled)
		assert.False(t, s.Refreshing())
		assert.Error(t, (<-downloadCtx).Err())
		assert.Equal(t, []State{StateOngoing, StateCancelled}, states.get())
	})

	t.Run("Download finishing as the caller gives up still completes", func(t *testing.T) {
		s := NewService()
		images := make(chan string, 1)
		s.OnRefreshCompleted(func(img source.ImageFile) { images <- img.Metadata.Title })
		callerCtx, cancel := context.WithCancel(ctx)
		s.SetDownloader(func(context.Context) (source.ImageFile, error) {
			cancel()
			return source.ImageFile{Metadata: source.ImageMetadata{Title: "Nebula"}}, nil
		})

		r, err := s.Refresh(callerCtx)
		require.NoError(t, err)
		if !r.Cancelled {
			assert.Equal(t, "Nebula", r.Value.Metadata.Title)
			assert.Equal(t, "Nebula", <-images)
		}
		assert.False(t, s.Refreshing())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ongoing", StateOngoing.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
