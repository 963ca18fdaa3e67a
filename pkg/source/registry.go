package source

import (
	"fmt"
	"math/rand/v2"
)

// Registry is an immutable, ordered set of sources with unique keys.
type Registry struct {
	sources []Source
	byKey   map[string]int
}

// NewRegistry creates a registry preserving the order of sources.
// Duplicate or empty keys are rejected.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{
		sources: make([]Source, 0, len(sources)),
		byKey:   make(map[string]int, len(sources)),
	}
	for _, s := range sources {
		key := s.Metadata.Key
		if key == "" {
			return nil, fmt.Errorf("source %q has no key", s.Metadata.Name)
		}
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate source key %q", key)
		}
		if s.GetImages == nil {
			return nil, fmt.Errorf("source %q has no image factory", key)
		}
		r.byKey[key] = len(r.sources)
		r.sources = append(r.sources, s)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on invalid input.
func MustRegistry(sources ...Source) *Registry {
	r, err := NewRegistry(sources...)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns the sources in registration order.
func (r *Registry) All() []Source {
	return append([]Source(nil), r.sources...)
}

// Keys returns the source keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.sources))
	for i, s := range r.sources {
		keys[i] = s.Metadata.Key
	}
	return keys
}

// Lookup finds the source with the given key.
func (r *Registry) Lookup(key string) (Source, error) {
	i, ok := r.byKey[key]
	if !ok {
		return Source{}, &NoSuchSourceError{Key: key}
	}
	return r.sources[i], nil
}

// Pick chooses one of images uniformly at random.
// It fails with NoPictureTodayError if images is empty.
func Pick(src Metadata, images []DownloadableImage) (DownloadableImage, error) {
	switch len(images) {
	case 0:
		return DownloadableImage{}, &NoPictureTodayError{Source: src}
	case 1:
		return images[0], nil
	default:
		return images[rand.IntN(len(images))], nil
	}
}
