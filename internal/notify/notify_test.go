package notify

import (
	"image"
	"os"
	"testing"

	"github.com/example/papermark/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func capture(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	old := send
	send = func(title, body string, opts platform.Options) error {
		got = append(got, sent{title, body, opts})
		return nil
	}
	t.Cleanup(func() { send = old })
	return &got
}

func TestStatusRespectsSwitches(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Enable(EventError, true)

	n.Status(KindOK, "Saved question 3")
	n.Status(KindErr, "save failed")

	if len(*got) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*got))
	}
	if (*got)[0].body != "Error: save failed" {
		t.Errorf("body %q", (*got)[0].body)
	}
	if (*got)[0].opts.Urgency != platform.UrgencyCritical {
		t.Errorf("errors should be critical")
	}
	if n.Last().Text != "save failed" {
		t.Errorf("last %+v", n.Last())
	}
}

func TestSubscribersSeeEveryMessage(t *testing.T) {
	capture(t)
	n := New(DefaultPreferences())
	var kinds []Kind
	n.Subscribe(func(m Message) { kinds = append(kinds, m.Kind) })
	n.Status(KindInfo, "Undo is for another paper")
	n.Status(KindOK, "ok")
	n.Status(KindInfo, "   ")
	if len(kinds) != 2 || kinds[0] != KindInfo || kinds[1] != KindOK {
		t.Errorf("kinds %v", kinds)
	}
}

func TestListenerMaySubscribeDuringDispatch(t *testing.T) {
	capture(t)
	n := New(DefaultPreferences())
	var late []string
	n.Subscribe(func(m Message) {
		if m.Text == "first" {
			n.Subscribe(func(m Message) { late = append(late, m.Text) })
		}
	})
	n.Status(KindInfo, "first")
	n.Status(KindInfo, "second")
	if len(late) != 1 || late[0] != "second" {
		t.Errorf("late listener saw %v", late)
	}
}

func TestNilNotifierOnlyLogs(t *testing.T) {
	var n *Notifier
	n.Status(KindErr, "boom")
	n.Enable(EventSave, true)
	if n.Last() != (Message{}) {
		t.Errorf("nil notifier has no last message")
	}
}

func TestCopiedAttachesPreview(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Enable(EventSave, true)
	n.Copied("question 4", image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if len(*got) != 1 || (*got)[0].opts.IconPath == "" {
		t.Fatalf("expected preview icon, got %+v", *got)
	}
	if _, err := os.Stat((*got)[0].opts.IconPath); !os.IsNotExist(err) {
		t.Errorf("preview file should be removed after dispatch")
	}
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	t.Setenv("PAPERMARK_NOTIFY_TITLE", "Marker")
	t.Setenv("PAPERMARK_NOTIFY_ERROR_TEXT", "Oops %s")
	p := LoadPreferences()
	if p.Title != "Marker" || p.Events[EventError].Template != "Oops %s" {
		t.Errorf("prefs %+v", p)
	}
}
