package config

import (
	"time"

	"fyne.io/fyne/v2"
)

// DefaultSourceKey is the source used until the user selects another one.
const DefaultSourceKey = "bing"

// AppConfig holds the application-wide configuration
type AppConfig struct {
	prefs fyne.Preferences
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p fyne.Preferences) *AppConfig {
	return &AppConfig{prefs: p}
}

// Preferences returns the underlying preferences store.
func (c *AppConfig) Preferences() fyne.Preferences {
	return c.prefs
}

// AppNotificationsEnabledKey is the key for the app notifications enabled preference
const AppNotificationsEnabledKey = "app-notifications-enabled"

// GetAppNotificationsEnabled returns whether system notifications are enabled
func (c *AppConfig) GetAppNotificationsEnabled() bool {
	return c.prefs.BoolWithFallback(AppNotificationsEnabledKey, true)
}

// SetAppNotificationsEnabled sets whether system notifications are enabled
func (c *AppConfig) SetAppNotificationsEnabled(enabled bool) {
	c.prefs.SetBool(AppNotificationsEnabledKey, enabled)
}

// SelectedSourceKey is the key for the selected image source
const SelectedSourceKey = "selected-source"

// GetSelectedSource returns the key of the selected image source
func (c *AppConfig) GetSelectedSource() string {
	return c.prefs.StringWithFallback(SelectedSourceKey, DefaultSourceKey)
}

// SetSelectedSource sets the key of the selected image source
func (c *AppConfig) SetSelectedSource(key string) {
	c.prefs.SetString(SelectedSourceKey, key)
}

// RefreshAutomaticallyKey is the key for the automatic refresh preference
const RefreshAutomaticallyKey = "refresh-automatically"

// GetRefreshAutomatically returns whether images are refreshed on a schedule
func (c *AppConfig) GetRefreshAutomatically() bool {
	return c.prefs.BoolWithFallback(RefreshAutomaticallyKey, true)
}

// SetRefreshAutomatically sets whether images are refreshed on a schedule
func (c *AppConfig) SetRefreshAutomatically(enabled bool) {
	c.prefs.SetBool(RefreshAutomaticallyKey, enabled)
}

// LastScheduledRefreshKey is the key for the timestamp of the last successful scheduled refresh
const LastScheduledRefreshKey = "last-scheduled-refresh"

// GetLastScheduledRefresh returns the last successful scheduled refresh.
// The zero time means no refresh happened yet or the stored value is unreadable.
func (c *AppConfig) GetLastScheduledRefresh() time.Time {
	raw := c.prefs.String(LastScheduledRefreshKey)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SetLastScheduledRefresh stores the last successful scheduled refresh.
// The zero time clears the value.
func (c *AppConfig) SetLastScheduledRefresh(t time.Time) {
	if t.IsZero() {
		c.prefs.RemoveValue(LastScheduledRefreshKey)
		return
	}
	c.prefs.SetString(LastScheduledRefreshKey, t.UTC().Format(time.RFC3339))
}

// MetricsAddrKey is the key for the listen address of the metrics endpoint
const MetricsAddrKey = "metrics-address"

// GetMetricsAddr returns the metrics listen address, empty when disabled
func (c *AppConfig) GetMetricsAddr() string {
	return c.prefs.String(MetricsAddrKey)
}

// SetMetricsAddr sets the metrics listen address
func (c *AppConfig) SetMetricsAddr(addr string) {
	c.prefs.SetString(MetricsAddrKey, addr)
}
