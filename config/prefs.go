package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/fsnotify/fsnotify"
)

// FilePreferences is a fyne.Preferences backed by a JSON file.
// Every write is persisted immediately. An empty path keeps values in memory only.
type FilePreferences struct {
	path string

	mu        sync.RWMutex
	values    map[string]any
	listeners []func()
}

var _ fyne.Preferences = (*FilePreferences)(nil)

// NewFilePreferences loads the preferences stored at path. A missing file
// yields empty preferences.
func NewFilePreferences(path string) (*FilePreferences, error) {
	p := &FilePreferences{path: path, values: make(map[string]any)}
	if path == "" {
		return p, nil
	}
	values, err := readPrefsFile(path)
	if err != nil {
		return nil, err
	}
	p.values = values
	return p, nil
}

// NewMemoryPreferences returns preferences that are never written to disk.
func NewMemoryPreferences() *FilePreferences {
	p, _ := NewFilePreferences("")
	return p
}

// Path returns the backing file, or "" for in-memory preferences.
func (p *FilePreferences) Path() string {
	return p.path
}

func readPrefsFile(path string) (map[string]any, error) {
	values := make(map[string]any)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences %s: %w", path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding preferences %s: %w", path, err)
	}
	return values, nil
}

// save writes the current values atomically. Caller holds p.mu.
func (p *FilePreferences) save() {
	if p.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		log.Printf("Error creating config directory: %v", err)
		return
	}
	data, err := json.MarshalIndent(p.values, "", "  ")
	if err != nil {
		log.Printf("Error encoding preferences: %v", err)
		return
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		log.Printf("Error writing preferences: %v", err)
		return
	}
	if err := os.Rename(tmp, p.path); err != nil {
		log.Printf("Error replacing preferences: %v", err)
	}
}

func (p *FilePreferences) get(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

// mergeLocked picks up values written by other processes since the last
// load so that a write does not discard them.
func (p *FilePreferences) mergeLocked() {
	if p.path == "" {
		return
	}
	values, err := readPrefsFile(p.path)
	if err != nil {
		log.Printf("Error reloading preferences before write: %v", err)
		return
	}
	p.values = values
}

func (p *FilePreferences) set(key string, value any) {
	p.mu.Lock()
	p.mergeLocked()
	p.values[key] = value
	p.save()
	p.mu.Unlock()
	p.notify()
}

func (p *FilePreferences) notify() {
	for _, l := range p.ChangeListeners() {
		l()
	}
}

// Reload re-reads the backing file and notifies listeners if anything changed.
func (p *FilePreferences) Reload() error {
	if p.path == "" {
		return nil
	}
	values, err := readPrefsFile(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	changed := !reflect.DeepEqual(values, p.values)
	if changed {
		p.values = values
	}
	p.mu.Unlock()
	if changed {
		p.notify()
	}
	return nil
}

// Watch reloads the preferences whenever the backing file is changed by
// another process, until ctx is done.
func (p *FilePreferences) Watch(ctx context.Context) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating preferences watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory since the file is replaced by rename on save.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := p.Reload(); err != nil {
				log.Printf("Error reloading preferences: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Preferences watcher error: %v", err)
		}
	}
}

// Bool looks up a boolean value for the key.
func (p *FilePreferences) Bool(key string) bool {
	return p.BoolWithFallback(key, false)
}

// BoolWithFallback looks up a boolean value and returns the fallback if not found.
func (p *FilePreferences) BoolWithFallback(key string, fallback bool) bool {
	if v, ok := p.get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool saves a boolean value for the given key.
func (p *FilePreferences) SetBool(key string, value bool) {
	p.set(key, value)
}

// Float looks up a float64 value for the key.
func (p *FilePreferences) Float(key string) float64 {
	return p.FloatWithFallback(key, 0)
}

// FloatWithFallback looks up a float64 value and returns the fallback if not found.
func (p *FilePreferences) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := p.get(key); ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return fallback
}

// SetFloat saves a float64 value for the given key.
func (p *FilePreferences) SetFloat(key string, value float64) {
	p.set(key, value)
}

// Int looks up an integer value for the key.
func (p *FilePreferences) Int(key string) int {
	return p.IntWithFallback(key, 0)
}

// IntWithFallback looks up an integer value and returns the fallback if not found.
func (p *FilePreferences) IntWithFallback(key string, fallback int) int {
	if v, ok := p.get(key); ok {
		if f, ok := toFloat(v); ok {
			return int(f)
		}
	}
	return fallback
}

// SetInt saves an integer value for the given key.
func (p *FilePreferences) SetInt(key string, value int) {
	p.set(key, value)
}

// String looks up a string value for the key.
func (p *FilePreferences) String(key string) string {
	return p.StringWithFallback(key, "")
}

// StringWithFallback looks up a string value and returns the fallback if not found.
func (p *FilePreferences) StringWithFallback(key, fallback string) string {
	if v, ok := p.get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// SetString saves a string value for the given key.
func (p *FilePreferences) SetString(key string, value string) {
	p.set(key, value)
}

// StringList looks up a list of strings for the key.
func (p *FilePreferences) StringList(key string) []string {
	return p.StringListWithFallback(key, nil)
}

// StringListWithFallback looks up a list of strings and returns the fallback if not found.
func (p *FilePreferences) StringListWithFallback(key string, fallback []string) []string {
	return listWithFallback(p, key, fallback, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
}

// SetStringList saves a list of strings for the given key.
func (p *FilePreferences) SetStringList(key string, value []string) {
	p.set(key, append([]string(nil), value...))
}

// BoolList looks up a list of booleans for the key.
func (p *FilePreferences) BoolList(key string) []bool {
	return p.BoolListWithFallback(key, nil)
}

// BoolListWithFallback looks up a list of booleans and returns the fallback if not found.
func (p *FilePreferences) BoolListWithFallback(key string, fallback []bool) []bool {
	return listWithFallback(p, key, fallback, func(v any) (bool, bool) {
		b, ok := v.(bool)
		return b, ok
	})
}

// SetBoolList saves a list of booleans for the given key.
func (p *FilePreferences) SetBoolList(key string, value []bool) {
	p.set(key, append([]bool(nil), value...))
}

// FloatList looks up a list of float64 values for the key.
func (p *FilePreferences) FloatList(key string) []float64 {
	return p.FloatListWithFallback(key, nil)
}

// FloatListWithFallback looks up a list of float64 values and returns the fallback if not found.
func (p *FilePreferences) FloatListWithFallback(key string, fallback []float64) []float64 {
	return listWithFallback(p, key, fallback, toFloat)
}

// SetFloatList saves a list of float64 values for the given key.
func (p *FilePreferences) SetFloatList(key string, value []float64) {
	p.set(key, append([]float64(nil), value...))
}

// IntList looks up a list of integers for the key.
func (p *FilePreferences) IntList(key string) []int {
	return p.IntListWithFallback(key, nil)
}

// IntListWithFallback looks up a list of integers and returns the fallback if not found.
func (p *FilePreferences) IntListWithFallback(key string, fallback []int) []int {
	return listWithFallback(p, key, fallback, func(v any) (int, bool) {
		f, ok := toFloat(v)
		return int(f), ok
	})
}

// SetIntList saves a list of integers for the given key.
func (p *FilePreferences) SetIntList(key string, value []int) {
	p.set(key, append([]int(nil), value...))
}

// RemoveValue removes a value for the given key.
func (p *FilePreferences) RemoveValue(key string) {
	p.mu.Lock()
	p.mergeLocked()
	_, existed := p.values[key]
	delete(p.values, key)
	if existed {
		p.save()
	}
	p.mu.Unlock()
	if existed {
		p.notify()
	}
}

// AddChangeListener allows code to be notified when some preferences change.
func (p *FilePreferences) AddChangeListener(listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

// ChangeListeners returns a snapshot of the registered change listeners.
func (p *FilePreferences) ChangeListeners() []func() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]func(){}, p.listeners...)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// listWithFallback converts both freshly set slices and decoded []any values.
func listWithFallback[T any](p *FilePreferences, key string, fallback []T, conv func(any) (T, bool)) []T {
	v, ok := p.get(key)
	if !ok {
		return fallback
	}
	if typed, ok := v.([]T); ok {
		return append([]T(nil), typed...)
	}
	raw, ok := v.([]any)
	if !ok {
		return fallback
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		t, ok := conv(item)
		if !ok {
			return fallback
		}
		out = append(out, t)
	}
	return out
}
