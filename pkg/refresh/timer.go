package refresh

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/dixieflatline76/Potd/util/log"
)

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop cancels the callback if it has not fired yet.
	Stop()
}

// Timers creates one-shot timers.
type Timers interface {
	Oneshot(delay time.Duration, callback func()) Timer
}

// TimerRegistry tracks one-shot timers so they can be torn down at once.
type TimerRegistry struct {
	mu        sync.Mutex
	nextID    uint64
	timers    map[uint64]*time.Timer
	destroyed bool
}

// NewTimerRegistry creates an empty registry.
func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[uint64]*time.Timer)}
}

type registeredTimer struct {
	registry *TimerRegistry
	id       uint64
}

func (t registeredTimer) Stop() {
	t.registry.remove(t.id)
}

type inertTimer struct{}

func (inertTimer) Stop() {}

// Oneshot runs callback once after delay on its own goroutine. A panicking
// callback is logged and does not affect other timers. After Destroy the
// returned timer never fires.
func (r *TimerRegistry) Oneshot(delay time.Duration, callback func()) Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return inertTimer{}
	}
	r.nextID++
	id := r.nextID
	r.timers[id] = time.AfterFunc(delay, func() {
		if !r.take(id) {
			// Stopped concurrently.
			return
		}
		defer func() {
			if p := recover(); p != nil {
				log.Printf("Timer failed: %v\n%s", p, debug.Stack())
			}
		}()
		callback()
	})
	return registeredTimer{registry: r, id: id}
}

// take unregisters a firing timer and reports whether it was still registered.
func (r *TimerRegistry) take(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[id]
	delete(r.timers, id)
	return ok
}

func (r *TimerRegistry) remove(id uint64) {
	r.mu.Lock()
	t, ok := r.timers[id]
	delete(r.timers, id)
	r.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (r *TimerRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Destroy stops every tracked timer. Timers created later are inert.
func (r *TimerRegistry) Destroy() {
	r.mu.Lock()
	timers := r.timers
	r.timers = make(map[uint64]*time.Timer)
	r.destroyed = true
	r.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}
