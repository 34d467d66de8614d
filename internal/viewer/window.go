package viewer

import (
	"context"
	"image"
	"image/draw"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/papermark/internal/notify"
	"github.com/example/papermark/internal/theme"
)

// Run executes the UI loop using shiny's driver.
func (s *Session) Run() { driver.Main(s.Main) }

// Main opens the window and processes events until it closes.
func (s *Session) Main(scr screen.Screen) {
	w, err := scr.NewWindow(&screen.NewWindowOptions{Width: s.size.X, Height: s.size.Y, Title: s.Title()})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()

	ctx := context.Background()
	if err := s.LoadPage(ctx); err != nil {
		s.status(notify.KindErr, err.Error())
	}
	s.notifier.Subscribe(func(notify.Message) {
		time.AfterFunc(bannerFor, func() { w.Send(paint.Event{}) })
	})

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	paintCh := make(chan Frame, 1)
	go func() {
		for f := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, scr, w, f, s.theme)
			paintMu.Lock()
			paintCancel = nil
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	// requestPaint abandons a paint in flight and queues the newest frame.
	requestPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
		f := s.Snapshot()
		select {
		case paintCh <- f:
		default:
			select {
			case <-paintCh:
			default:
			}
			paintCh <- f
		}
	}

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				s.FocusLost()
				requestPaint()
			}
		case size.Event:
			s.Resize(e.Size())
			requestPaint()
		case paint.Event:
			requestPaint()
		case mouse.Event:
			if s.HandleMouse(e) {
				requestPaint()
			}
		case key.Event:
			if s.HandleKey(ctx, e) {
				if s.Quit() {
					return
				}
				requestPaint()
			}
		case error:
			log.Printf("window: %v", e)
		}
	}
}

func drawFrame(ctx context.Context, scr screen.Screen, w screen.Window, f Frame, t *theme.Theme) {
	if f.size.X <= 0 || f.size.Y <= 0 {
		return
	}
	b, err := scr.NewBuffer(f.size)
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	img := Compose(ctx, f, t)
	if img == nil || ctx.Err() != nil {
		return
	}
	draw.Draw(b.RGBA(), b.Bounds(), img, image.Point{}, draw.Src)
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
