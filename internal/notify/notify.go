// Package notify reports status messages to the log, to in-app listeners
// and, when enabled, to the desktop notification service.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/example/papermark/internal/platform"
)

// Kind classifies a status message.
type Kind string

const (
	KindInfo Kind = "info"
	KindOK   Kind = "ok"
	KindErr  Kind = "err"
)

// Event identifies a notification switch in the configuration.
type Event string

const (
	// EventSave covers successful saves and copies.
	EventSave Event = "save"
	// EventUndo covers informational messages such as saved undo and redo.
	EventUndo Event = "undo"
	// EventError covers failures.
	EventError Event = "error"
)

// EventFor maps a status kind onto its configuration switch.
func EventFor(k Kind) Event {
	switch k {
	case KindOK:
		return EventSave
	case KindErr:
		return EventError
	}
	return EventUndo
}

// Message is one status line.
type Message struct {
	Kind Kind
	Text string
}

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "papermark",
		Events: map[Event]EventPreference{
			EventSave:  {Template: "%s"},
			EventUndo:  {Template: "%s"},
			EventError: {Template: "Error: %s"},
		},
	}
}

// LoadPreferences applies environment overrides to the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("PAPERMARK_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			p := prefs.Events[event]
			p.Template = v
			prefs.Events[event] = p
		}
	}
	apply("PAPERMARK_NOTIFY_SAVE_TEXT", EventSave)
	apply("PAPERMARK_NOTIFY_UNDO_TEXT", EventUndo)
	apply("PAPERMARK_NOTIFY_ERROR_TEXT", EventError)
	return prefs
}

// send is swapped in tests.
var send = platform.Notify

// Notifier fans status messages out. A nil Notifier only logs.
type Notifier struct {
	prefs Preferences

	mu        sync.Mutex
	enabled   map[Event]bool
	listeners []func(Message)
	last      Message
}

// New creates a Notifier with every desktop event disabled.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// Enable toggles desktop notifications for event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.enabled[event] = enabled
	n.mu.Unlock()
}

// Subscribe registers fn for every later message.
func (n *Notifier) Subscribe(fn func(Message)) {
	if n == nil || fn == nil {
		return
	}
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Last returns the most recent message.
func (n *Notifier) Last() Message {
	if n == nil {
		return Message{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Status reports text. It is always logged.
func (n *Notifier) Status(kind Kind, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	log.Printf("%s: %s", kind, text)
	if n == nil {
		return
	}
	msg := Message{Kind: kind, Text: text}
	n.mu.Lock()
	n.last = msg
	listeners := slices.Clone(n.listeners)
	n.mu.Unlock()
	for _, fn := range listeners {
		fn(msg)
	}
	opts := platform.Options{}
	if kind == KindErr {
		opts.Urgency = platform.UrgencyCritical
	}
	n.dispatch(EventFor(kind), text, opts)
}

// Statusf formats and reports a message.
func (n *Notifier) Statusf(kind Kind, format string, args ...any) {
	n.Status(kind, fmt.Sprintf(format, args...))
}

// Copied reports an image placed on the clipboard, attaching it as the
// notification icon.
func (n *Notifier) Copied(detail string, img image.Image) {
	if !n.enabledFor(EventSave) {
		log.Printf("%s: copied %s", KindOK, detail)
		return
	}
	opts := platform.Options{}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventSave, "Copied "+detail, opts)
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, detail))
	if body == "" {
		return
	}
	opts.AppName = n.prefs.Title
	if err := send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "papermark-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
