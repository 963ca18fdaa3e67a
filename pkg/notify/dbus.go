package notify

import (
	"context"
	"fmt"

	"github.com/dixieflatline76/Potd/config"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsName      = "org.freedesktop.Notifications"
	notificationsPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsInterface = "org.freedesktop.Notifications"
)

// ActionListener receives the signals of shown notifications.
type ActionListener interface {
	Invoke(id uint32, action string)
	Closed(id uint32)
}

// DBusNotifier sends notifications to the desktop notification server.
type DBusNotifier struct {
	conn *dbus.Conn
	icon string
}

// NewDBusNotifier connects to the session bus.
func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return &DBusNotifier{conn: conn, icon: "dialog-error"}, nil
}

// Close closes the bus connection.
func (n *DBusNotifier) Close() error {
	return n.conn.Close()
}

// Notify shows msg.
func (n *DBusNotifier) Notify(ctx context.Context, msg Message) (uint32, error) {
	actions := make([]string, 0, 2*len(msg.Actions))
	for _, a := range msg.Actions {
		actions = append(actions, string(a), a.Label())
	}
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(1)),
		"desktop-entry": dbus.MakeVariant(config.AppID),
	}
	obj := n.conn.Object(notificationsName, notificationsPath)
	call := obj.CallWithContext(ctx, notificationsInterface+".Notify", 0,
		config.AppName, uint32(0), n.icon, msg.Summary, msg.Body, actions, hints, int32(-1))
	if call.Err != nil {
		return 0, fmt.Errorf("sending notification: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("reading notification id: %w", err)
	}
	return id, nil
}

// Listen forwards action and close signals to l until ctx is done.
func (n *DBusNotifier) Listen(ctx context.Context, l ActionListener) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(notificationsPath),
		dbus.WithMatchInterface(notificationsInterface),
	}
	if err := n.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return fmt.Errorf("subscribing to notification signals: %w", err)
	}
	signals := make(chan *dbus.Signal, 16)
	n.conn.Signal(signals)
	defer n.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			dispatchSignal(sig, l)
		}
	}
}

func dispatchSignal(sig *dbus.Signal, l ActionListener) {
	if len(sig.Body) == 0 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}
	switch sig.Name {
	case notificationsInterface + ".ActionInvoked":
		if len(sig.Body) < 2 {
			return
		}
		if action, ok := sig.Body[1].(string); ok {
			l.Invoke(id, action)
		}
	case notificationsInterface + ".NotificationClosed":
		l.Closed(id)
	}
}
