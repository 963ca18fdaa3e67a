//go:build linux

package background

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/godbus/dbus/v5"
)

// plasmaScript sets the image of all Plasma desktops.
const plasmaScript = `
var allDesktops = desktops();
for (var i = 0; i < allDesktops.length; i++) {
	var d = allDesktops[i];
	d.wallpaperPlugin = "org.kde.image";
	d.currentConfigGroup = Array("Wallpaper", "org.kde.image", "General");
	d.writeConfig("Image", %q);
}`

// linuxSetter sets the background of common Linux desktops.
type linuxSetter struct {
	run    commandRunner
	getenv func(string) string
	plasma func(ctx context.Context, script string) error
}

// NewSetter returns the setter for the current desktop environment.
func NewSetter() Setter {
	return &linuxSetter{run: runCommand, getenv: os.Getenv, plasma: evaluatePlasmaScript}
}

func (l *linuxSetter) desktop() string {
	desktopEnv := l.getenv("XDG_CURRENT_DESKTOP")
	if desktopEnv == "" {
		desktopEnv = l.getenv("DESKTOP_SESSION")
	}
	return strings.ToLower(desktopEnv)
}

// SetBackground sets the desktop background, supporting GNOME-like desktops,
// KDE Plasma, XFCE and Sway.
func (l *linuxSetter) SetBackground(ctx context.Context, image fyne.URI) error {
	desktopEnv := l.desktop()
	switch {
	case strings.Contains(desktopEnv, "gnome"), strings.Contains(desktopEnv, "unity"),
		strings.Contains(desktopEnv, "cinnamon"), strings.Contains(desktopEnv, "budgie"):
		return l.setGNOME(ctx, image)
	case strings.Contains(desktopEnv, "kde"):
		return l.plasma(ctx, fmt.Sprintf(plasmaScript, image.String()))
	case strings.Contains(desktopEnv, "xfce"):
		return l.setXFCE(ctx, image)
	case strings.Contains(desktopEnv, "sway"):
		return l.run(ctx, "swaymsg", "output", "*", "bg", image.Path(), "fill")
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDesktop, desktopEnv)
	}
}

// setGNOME sets the image for both the default and the dark theme.
func (l *linuxSetter) setGNOME(ctx context.Context, image fyne.URI) error {
	for _, key := range []string{"picture-uri", "picture-uri-dark"} {
		if err := l.run(ctx, "gsettings", "set", "org.gnome.desktop.background", key, image.String()); err != nil {
			return err
		}
	}
	return nil
}

func (l *linuxSetter) setXFCE(ctx context.Context, image fyne.URI) error {
	// Check if the XFCE configuration file exists
	config := filepath.Join(l.getenv("HOME"), ".config", "xfce4", "xfconf", "xfce-perchannel-xml", "xfce4-desktop.xml")
	if _, err := os.Stat(config); err != nil {
		return fmt.Errorf("could not find XFCE desktop configuration file: %w", err)
	}
	return l.run(ctx, "xfconf-query",
		"--channel", "xfce4-desktop",
		"--property", "/backdrop/screen0/monitor0/workspace0/last-image",
		"--set", image.Path())
}

func evaluatePlasmaScript(ctx context.Context, script string) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	defer conn.Close()
	obj := conn.Object("org.kde.plasmashell", "/PlasmaShell")
	if call := obj.CallWithContext(ctx, "org.kde.PlasmaShell.evaluateScript", 0, script); call.Err != nil {
		return fmt.Errorf("evaluating Plasma script: %w", call.Err)
	}
	return nil
}
