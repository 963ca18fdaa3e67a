package config

import (
	"errors"
	"fmt"
	"log"
	"os/user"

	"fyne.io/fyne/v2"
	"github.com/zalando/go-keyring"
)

// APIKeySetting is the per-source setting name holding an API key.
// Values for it live in the OS keyring rather than the preferences file.
const APIKeySetting = "api-key"

// secretSettings lists setting names kept in the keyring.
var secretSettings = map[string]bool{
	APIKeySetting: true,
}

// SourceSettings is the settings view of a single image source.
// Keys are stored as "source.<source>.<name>" in the preferences.
type SourceSettings struct {
	prefs  fyne.Preferences
	source string
	userid string
}

// NewSourceSettings returns the settings view for the given source key.
func NewSourceSettings(p fyne.Preferences, sourceKey string) *SourceSettings {
	uid := AppID
	if u, err := user.Current(); err == nil {
		uid = u.Uid
	}
	return &SourceSettings{prefs: p, source: sourceKey, userid: uid}
}

// Source returns the key of the source these settings belong to.
func (s *SourceSettings) Source() string {
	return s.source
}

func (s *SourceSettings) prefKey(name string) string {
	return "source." + s.source + "." + name
}

func (s *SourceSettings) keyringService(name string) string {
	return AppID + "." + s.source + "." + name
}

// String returns a string setting. Secret settings are read from the keyring.
func (s *SourceSettings) String(name string) string {
	if secretSettings[name] {
		return s.secret(name)
	}
	return s.prefs.String(s.prefKey(name))
}

// StringList returns a list setting.
func (s *SourceSettings) StringList(name string) []string {
	return s.prefs.StringList(s.prefKey(name))
}

// SetString stores a string setting. Secret settings go to the keyring.
func (s *SourceSettings) SetString(name, value string) error {
	if secretSettings[name] {
		return s.setSecret(name, value)
	}
	s.prefs.SetString(s.prefKey(name), value)
	return nil
}

// SetStringList stores a list setting.
func (s *SourceSettings) SetStringList(name string, value []string) {
	s.prefs.SetStringList(s.prefKey(name), value)
}

func (s *SourceSettings) secret(name string) string {
	value, err := keyring.Get(s.keyringService(name), s.userid)
	if err != nil {
		// Log only if it's not a "not found" error to avoid noise on first run
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("failed to retrieve %s for %s from keyring: %v", name, s.source, err)
		}
		return ""
	}
	return value
}

func (s *SourceSettings) setSecret(name, value string) error {
	if value == "" {
		err := keyring.Delete(s.keyringService(name), s.userid)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("removing %s for %s from keyring: %w", name, s.source, err)
		}
		return nil
	}
	if err := keyring.Set(s.keyringService(name), s.userid, value); err != nil {
		return fmt.Errorf("saving %s for %s to keyring: %w", name, s.source, err)
	}
	return nil
}
