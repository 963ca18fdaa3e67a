package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// AppVersion is the version of the application, set at build time.
var AppVersion = "dev"

// AppName is the name of the application.
const AppName = "Potd"

// AppID is the lower case identifier used for directories and D-Bus names.
var AppID = strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// SettingsFileName is the name of the preferences file inside ConfigDir.
const SettingsFileName = "settings.json"

// LogDir returns the directory for rotated log files.
func LogDir() string {
	return filepath.Join(xdg.StateHome, AppID)
}

// LogFileName returns the file name of the application log.
func LogFileName() string {
	return AppID + LogExt
}

// ConfigDir returns the directory holding the preferences file.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppID)
}

// SettingsFile returns the full path of the preferences file.
func SettingsFile() string {
	return filepath.Join(ConfigDir(), SettingsFileName)
}

// StateDir returns the directory for runtime state such as the instance lock.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppID)
}
