package source

import (
	"sync"

	"github.com/dixieflatline76/Potd/util"
)

// Selector tracks the active source and announces changes.
type Selector struct {
	registry *Registry

	mu       sync.RWMutex
	selected Source

	changed util.Signal[Source]
}

// NewSelector creates a selector with key initially selected.
func NewSelector(registry *Registry, key string) (*Selector, error) {
	src, err := registry.Lookup(key)
	if err != nil {
		return nil, err
	}
	return &Selector{registry: registry, selected: src}, nil
}

// Selected returns the active source.
func (s *Selector) Selected() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select makes the source with key active and emits source-changed, even if
// it was active already. Unknown keys leave the selection untouched.
func (s *Selector) Select(key string) error {
	src, err := s.registry.Lookup(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = src
	s.mu.Unlock()
	s.changed.Emit(src)
	return nil
}

// OnChanged connects a source-changed handler.
func (s *Selector) OnChanged(fn func(Source)) util.HandlerID {
	return s.changed.Connect(fn)
}

// Disconnect removes a handler added with OnChanged.
func (s *Selector) Disconnect(id util.HandlerID) {
	s.changed.Disconnect(id)
}
