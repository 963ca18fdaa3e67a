package util

import "sync"

// HandlerID identifies a connected signal handler.
type HandlerID uint64

// Signal is a typed observer list. Handlers run synchronously on the emitting
// goroutine in the order they were connected. The handler list is snapshotted
// before delivery, so handlers may connect or disconnect while being called.
type Signal[T any] struct {
	mu       sync.Mutex
	nextID   HandlerID
	handlers []signalHandler[T]
}

type signalHandler[T any] struct {
	id HandlerID
	fn func(T)
}

// Connect registers fn and returns an id for Disconnect.
func (s *Signal[T]) Connect(fn func(T)) HandlerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.handlers = append(s.handlers, signalHandler[T]{id: s.nextID, fn: fn})
	return s.nextID
}

// Disconnect removes the handler with the given id. Unknown ids are ignored.
func (s *Signal[T]) Disconnect(id HandlerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
			return
		}
	}
}

// DisconnectAll removes every handler.
func (s *Signal[T]) DisconnectAll() {
	s.mu.Lock()
	s.handlers = nil
	s.mu.Unlock()
}

// Emit calls every connected handler with value.
func (s *Signal[T]) Emit(value T) {
	s.mu.Lock()
	handlers := make([]signalHandler[T], len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h.fn(value)
	}
}
