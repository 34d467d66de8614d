// Package viewer shows one page of a paper in a desktop window and routes
// pointer and key events to the box editor of a mark or answer view.
package viewer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/clipboard"
	"github.com/example/papermark/internal/geom"
	"github.com/example/papermark/internal/markview"
	"github.com/example/papermark/internal/notify"
	"github.com/example/papermark/internal/render"
	"github.com/example/papermark/internal/theme"
)

const (
	bottomHeight = 24
	bannerFor    = 2 * time.Second
)

var (
	copyBoxes  = clipboard.CopyBoxes
	pasteBoxes = clipboard.PasteBoxes
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// Session is the window state that does not depend on a screen: the page
// layout, event routing and frame composition.
type Session struct {
	adapter  Adapter
	pages    *Pages
	notifier *notify.Notifier
	theme    *theme.Theme
	now      func() time.Time

	size    image.Point
	img     image.Image
	imgKey  pageKey
	pressed bool
	quit    bool

	banner      notify.Message
	bannerUntil time.Time

	actions  map[string]func(ctx context.Context)
	shortcut map[KeyShortcut]string
}

// NewSession binds a to a window of the given size. n may be nil.
func NewSession(a Adapter, pages *Pages, n *notify.Notifier, t *theme.Theme, size image.Point) *Session {
	if t == nil {
		t = theme.Default()
	}
	s := &Session{
		adapter:  a,
		pages:    pages,
		notifier: n,
		theme:    t,
		now:      time.Now,
		size:     size,
	}
	n.Subscribe(func(m notify.Message) {
		s.banner = m
		s.bannerUntil = s.now().Add(bannerFor)
	})
	s.registerActions()
	return s
}

func (s *Session) register(name string, keys KeyboardShortcuts, fn func(ctx context.Context)) {
	s.actions[name] = fn
	for _, sc := range keys.KeyboardShortcuts() {
		s.shortcut[sc] = name
	}
}

func (s *Session) registerActions() {
	s.actions = map[string]func(context.Context){}
	s.shortcut = map[KeyShortcut]string{}
	ctrl := key.ModControl

	s.register("undo", shortcutList{{Rune: 'z', Modifiers: ctrl}}, func(ctx context.Context) {
		s.report(s.adapter.Undo(ctx))
	})
	s.register("redo", shortcutList{{Rune: 'y', Modifiers: ctrl}, {Rune: 'z', Modifiers: ctrl | key.ModShift}}, func(ctx context.Context) {
		s.report(s.adapter.Redo(ctx))
	})
	s.register("save", shortcutList{{Rune: 's', Modifiers: ctrl}}, func(ctx context.Context) {
		s.report(s.adapter.Save(ctx))
	})
	s.register("clear", shortcutList{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}}, func(context.Context) {
		s.adapter.Clear()
	})
	s.register("prev", shortcutList{{Code: key.CodePageUp}}, func(ctx context.Context) {
		s.report(s.adapter.StepPage(ctx, -1))
	})
	s.register("next", shortcutList{{Code: key.CodePageDown}}, func(ctx context.Context) {
		s.report(s.adapter.StepPage(ctx, 1))
	})
	s.register("copy", shortcutList{{Rune: 'c', Modifiers: ctrl}}, func(context.Context) {
		sel := s.adapter.Editor().Selected()
		if sel == nil {
			s.status(notify.KindInfo, "Select a box to copy")
			return
		}
		if err := copyBoxes([]boxes.PageBox{*sel}); err != nil {
			s.status(notify.KindErr, "copy: "+err.Error())
			return
		}
		s.status(notify.KindOK, "Box copied to clipboard")
	})
	s.register("paste", shortcutList{{Rune: 'v', Modifiers: ctrl}}, func(context.Context) {
		bs, err := pasteBoxes()
		if err != nil {
			s.status(notify.KindErr, "paste: "+err.Error())
			return
		}
		s.adapter.Paste(bs)
	})
	s.register("cancel", shortcutList{{Code: key.CodeEscape}}, func(context.Context) {
		s.cancelGesture()
	})
	s.register("quit", shortcutList{{Rune: 'q', Modifiers: ctrl}}, func(context.Context) {
		s.quit = true
	})
}

// status reports through the notifier, or straight to the banner when there
// is none.
func (s *Session) status(kind notify.Kind, text string) {
	if s.notifier != nil {
		s.notifier.Status(kind, text)
		return
	}
	log.Printf("%s: %s", kind, text)
	s.banner = notify.Message{Kind: kind, Text: text}
	s.bannerUntil = s.now().Add(bannerFor)
}

// report shows the quiet outcomes of undo, redo and paging. Backend
// failures have already been reported by the view.
func (s *Session) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, markview.ErrNothingToUndo):
		s.status(notify.KindInfo, "Nothing to undo")
	case errors.Is(err, markview.ErrNothingToRedo):
		s.status(notify.KindInfo, "Nothing to redo")
	case errors.Is(err, markview.ErrCrossPaper):
	case errors.Is(err, markview.ErrBusy):
		s.status(notify.KindInfo, "Still working on the previous change")
	default:
		log.Printf("viewer: %v", err)
	}
}

// Quit reports whether the quit shortcut was pressed.
func (s *Session) Quit() bool { return s.quit }

// Resize records the window size.
func (s *Session) Resize(size image.Point) { s.size = size }

// Title is the window title.
func (s *Session) Title() string { return s.adapter.Title() }

// LoadPage fetches the displayed page image when it changed.
func (s *Session) LoadPage(ctx context.Context) error {
	k := pageKey{s.adapter.Paper(), s.adapter.Page()}
	if s.img != nil && k == s.imgKey {
		return nil
	}
	img, err := s.pages.Get(ctx, k.paper, k.page)
	if err != nil {
		return err
	}
	s.img, s.imgKey = img, k
	return nil
}

// pageRect is where the page image is drawn: scaled to fit above the
// status bar and anchored at the top-left corner.
func (s *Session) pageRect() image.Rectangle {
	if s.img == nil {
		return image.Rectangle{}
	}
	ib := s.img.Bounds()
	availH := s.size.Y - bottomHeight
	if ib.Dx() == 0 || ib.Dy() == 0 || s.size.X <= 0 || availH <= 0 {
		return image.Rectangle{}
	}
	zx := float64(s.size.X) / float64(ib.Dx())
	zy := float64(availH) / float64(ib.Dy())
	zoom := min(zx, zy)
	return image.Rect(0, 0, int(float64(ib.Dx())*zoom), int(float64(ib.Dy())*zoom))
}

// toPage converts window coordinates into clamped page coordinates.
func (s *Session) toPage(x, y float32) (float64, float64, bool) {
	r := s.pageRect()
	if r.Empty() {
		return 0, 0, false
	}
	nx := (float64(x) - float64(r.Min.X)) / float64(r.Dx())
	ny := (float64(y) - float64(r.Min.Y)) / float64(r.Dy())
	return geom.Clamp01(nx), geom.Clamp01(ny), true
}

// HandleMouse routes a mouse event to the editor and reports whether the
// frame needs repainting.
func (s *Session) HandleMouse(e mouse.Event) bool {
	x, y, ok := s.toPage(e.X, e.Y)
	if !ok {
		return false
	}
	ed := s.adapter.Editor()
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		if !s.pageRectContains(e) {
			return false
		}
		s.pressed = true
		ed.PointerDown(s.adapter.Page(), x, y)
	case e.Direction == mouse.DirNone:
		if !s.pressed {
			return false
		}
		ed.PointerMove(x, y)
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		if !s.pressed {
			return false
		}
		s.pressed = false
		ed.PointerUp(x, y)
	default:
		return false
	}
	return true
}

func (s *Session) pageRectContains(e mouse.Event) bool {
	return image.Pt(int(e.X), int(e.Y)).In(s.pageRect())
}

// cancelGesture abandons a live drag or draw.
func (s *Session) cancelGesture() {
	s.pressed = false
	s.adapter.Editor().PointerCancel()
}

// FocusLost cancels the gesture in progress.
func (s *Session) FocusLost() { s.cancelGesture() }

// HandleKey runs the action bound to a key press and reports whether the
// frame needs repainting.
func (s *Session) HandleKey(ctx context.Context, e key.Event) bool {
	if e.Direction != key.DirPress {
		return false
	}
	name, ok := s.shortcut[KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}]
	if !ok {
		// control combinations do not always carry the letter as the rune
		r := unicode.ToLower(e.Rune)
		if e.Modifiers&key.ModControl != 0 && e.Code >= key.CodeA && e.Code <= key.CodeZ {
			r = 'a' + rune(e.Code-key.CodeA)
		}
		name, ok = s.shortcut[KeyShortcut{Rune: r, Modifiers: e.Modifiers}]
	}
	if !ok {
		return false
	}
	s.actions[name](ctx)
	if err := s.LoadPage(ctx); err != nil {
		log.Printf("load page: %v", err)
	}
	return true
}

// Frame is an immutable snapshot handed to the paint goroutine.
type Frame struct {
	size   image.Point
	img    image.Image
	rect   image.Rectangle
	scene  render.Scene
	status string
	banner notify.Message
}

// Snapshot copies everything a paint needs so the event loop can keep
// mutating the editor.
func (s *Session) Snapshot() Frame {
	ed := s.adapter.Editor()
	sc := s.adapter.Scene()
	page := s.adapter.Page()
	sel := ed.Selected()
	for _, b := range ed.Boxes().OnPage(page) {
		c := *b
		sc.Boxes = append(sc.Boxes, &c)
		if b == sel {
			sc.Selected = &c
		}
	}
	if pv, ok := ed.Preview(); ok {
		sc.Preview = &pv
	}
	f := Frame{
		size:   s.size,
		img:    s.img,
		rect:   s.pageRect(),
		scene:  sc,
		status: s.adapter.Status(),
	}
	if s.now().Before(s.bannerUntil) {
		f.banner = s.banner
	}
	return f
}

// Compose renders a frame. It stops early, returning nil, once ctx is done.
func Compose(ctx context.Context, f Frame, t *theme.Theme) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: f.size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(t.Background), image.Point{}, draw.Src)
	if f.img != nil && !f.rect.Empty() {
		page := render.Overlay(f.img, f.rect.Size(), f.scene, t)
		draw.Draw(dst, f.rect, page, image.Point{}, draw.Src)
	}
	if ctx.Err() != nil {
		return nil
	}

	bar := image.Rect(0, f.size.Y-bottomHeight, f.size.X, f.size.Y)
	draw.Draw(dst, bar, image.NewUniform(t.StatusBar), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(t.Foreground), Face: basicfont.Face7x13}
	d.Dot = fixed.P(6, bar.Max.Y-7)
	d.DrawString(f.status)
	if ctx.Err() != nil {
		return nil
	}

	if f.banner.Text != "" {
		drawBanner(dst, f.banner, t)
	}
	return dst
}

func drawBanner(dst *image.RGBA, m notify.Message, t *theme.Theme) {
	var bg color.Color = t.BannerInfo
	switch m.Kind {
	case notify.KindOK:
		bg = t.BannerOK
	case notify.KindErr:
		bg = t.BannerErr
	}
	w, h, _, err := render.MeasureText(m.Text, 16)
	if err != nil {
		return
	}
	b := dst.Bounds()
	x := (b.Dx() - w) / 2
	y := b.Max.Y - bottomHeight - h - 24
	rect := image.Rect(x-10, y-6, x+w+10, y+h+6)
	render.FillRect(dst, rect, bg)
	_ = render.DrawText(dst, x, y, m.Text, t.BannerText, 16)
}
