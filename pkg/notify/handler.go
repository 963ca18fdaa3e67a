package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dixieflatline76/Potd/util"
	"github.com/dixieflatline76/Potd/util/log"
)

// notifyTimeout bounds a single call to the notification server.
const notifyTimeout = 5 * time.Second

// LogHandler writes errors to the log.
type LogHandler struct{}

// ShowError logs err with its causes.
func (LogHandler) ShowError(err error) {
	msg := Describe(err)
	log.Printf("%s: %s\n%s", msg.Summary, msg.Body, util.FormatCauses(err))
}

// Notifier displays desktop notifications.
type Notifier interface {
	// Notify shows msg with the given actions and returns its id.
	Notify(ctx context.Context, msg Message) (uint32, error)
}

// DesktopHandler shows errors as desktop notifications with actions.
// It always logs the error as well.
type DesktopHandler struct {
	notifier Notifier
	enabled  func() bool

	mu       sync.Mutex
	handlers map[Action]func()
	shown    map[uint32][]Action
}

// DesktopOption configures a DesktopHandler.
type DesktopOption func(*DesktopHandler)

// WithEnabled shows notifications only while enabled returns true.
func WithEnabled(enabled func() bool) DesktopOption {
	return func(h *DesktopHandler) { h.enabled = enabled }
}

// NewDesktopHandler creates a handler sending notifications through n.
func NewDesktopHandler(n Notifier, opts ...DesktopOption) *DesktopHandler {
	h := &DesktopHandler{
		notifier: n,
		enabled:  func() bool { return true },
		handlers: make(map[Action]func()),
		shown:    make(map[uint32][]Action),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnAction registers fn for a. Actions without handler are not offered.
func (h *DesktopHandler) OnAction(a Action, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[a] = fn
}

// ShowError logs err and shows a notification for it.
func (h *DesktopHandler) ShowError(err error) {
	LogHandler{}.ShowError(err)
	if !h.enabled() {
		return
	}

	msg := Describe(err)
	h.mu.Lock()
	offered := msg.Actions[:0:0]
	for _, a := range msg.Actions {
		if h.handlers[a] != nil {
			offered = append(offered, a)
		}
	}
	h.mu.Unlock()
	msg.Actions = offered

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	id, notifyErr := h.notifier.Notify(ctx, msg)
	if notifyErr != nil {
		log.Printf("Failed to show notification: %v", notifyErr)
		return
	}
	if len(offered) > 0 {
		h.mu.Lock()
		h.shown[id] = offered
		h.mu.Unlock()
	}
}

// Invoke runs the handler of action for the notification id. Unknown
// notifications and actions are ignored.
func (h *DesktopHandler) Invoke(id uint32, action string) {
	h.mu.Lock()
	actions, ok := h.shown[id]
	var fn func()
	if ok {
		for _, a := range actions {
			if string(a) == action {
				fn = h.handlers[a]
				break
			}
		}
		delete(h.shown, id)
	}
	h.mu.Unlock()
	if fn == nil {
		return
	}
	log.Printf("Notification action %s invoked", action)
	fn()
}

// Closed forgets the notification id.
func (h *DesktopHandler) Closed(id uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.shown, id)
}
