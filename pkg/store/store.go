// Package store remembers the current image across restarts.
package store

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"github.com/dixieflatline76/Potd/pkg/source"
	"github.com/dixieflatline76/Potd/util/log"
)

// CurrentMetadataKey is the preferences key holding the current image.
const CurrentMetadataKey = "current-metadata"

type storedMetadata struct {
	Metadata source.ImageMetadata `json:"metadata"`
	URI      string               `json:"uri"`
}

// ImageMetadataStore keeps the metadata and location of the current image in
// the preferences.
type ImageMetadataStore struct {
	mu    sync.Mutex
	prefs fyne.Preferences
}

// NewImageMetadataStore creates a store backed by prefs.
func NewImageMetadataStore(prefs fyne.Preferences) *ImageMetadataStore {
	return &ImageMetadataStore{prefs: prefs}
}

// Store remembers image as the current image.
func (s *ImageMetadataStore) Store(image source.ImageFile) {
	if image.File == nil {
		log.Println("Not storing image without file")
		return
	}
	data, err := json.Marshal(storedMetadata{Metadata: image.Metadata, URI: image.File.String()})
	if err != nil {
		log.Printf("Failed to encode image metadata: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SetString(CurrentMetadataKey, string(data))
}

// Load returns the current image. It returns false if no image was stored or
// the stored value is invalid.
func (s *ImageMetadataStore) Load() (source.ImageFile, bool) {
	s.mu.Lock()
	raw := s.prefs.String(CurrentMetadataKey)
	s.mu.Unlock()
	if raw == "" {
		return source.ImageFile{}, false
	}

	var stored storedMetadata
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("Failed to parse stored metadata %q: %v", raw, err)
		return source.ImageFile{}, false
	}
	if stored.URI == "" || stored.Metadata.Title == "" {
		log.Printf("Stored metadata not valid: %q", raw)
		return source.ImageFile{}, false
	}
	uri, err := storage.ParseURI(stored.URI)
	if err != nil {
		log.Printf("Stored image URI %q not valid: %v", stored.URI, err)
		return source.ImageFile{}, false
	}
	return source.ImageFile{Metadata: stored.Metadata, File: uri}, true
}

// Clear forgets the current image.
func (s *ImageMetadataStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.RemoveValue(CurrentMetadataKey)
}
