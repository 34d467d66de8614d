//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Clipboard owns the CLIPBOARD selection through a hidden window and
// answers conversion requests from a background event loop.
type x11Clipboard struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atomSet

	mu    sync.RWMutex
	owned format
	data  []byte
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

func openBackend() (backend, error) {
	if !hasDisplay() {
		return nil, errNoDisplay
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{eventMask}).Check(); err != nil {
		conn.Close()
		return nil, err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	c := &x11Clipboard{conn: conn, window: window, atoms: atoms}
	go c.eventLoop()
	return c, nil
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "PAPERMARK_CLIPBOARD"}
	atoms := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atomSet{}, fmt.Errorf("intern %s: %w", name, err)
		}
		atoms[i] = reply.Atom
	}
	return atomSet{
		clipboard: atoms[0],
		targets:   atoms[1],
		utf8:      atoms[2],
		textPlain: atoms[3],
		png:       atoms[4],
		property:  atoms[5],
	}, nil
}

func (c *x11Clipboard) target(f format) xproto.Atom {
	if f == formatPNG {
		return c.atoms.png
	}
	return c.atoms.utf8
}

func (c *x11Clipboard) write(f format, data []byte) error {
	c.mu.Lock()
	c.owned = f
	c.data = append([]byte(nil), data...)
	c.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(c.conn, c.window, c.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (c *x11Clipboard) read(f format) ([]byte, error) {
	data, err := c.readSelection(c.target(f))
	if err != nil && f == formatText {
		data, err = c.readSelection(xproto.AtomString)
	}
	if err != nil {
		return nil, err
	}
	// some applications terminate STRING replies with a null byte
	if f == formatText && len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	return data, nil
}

func (c *x11Clipboard) eventLoop() {
	for {
		ev, err := c.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			c.answer(e)
		case xproto.SelectionClearEvent:
			c.mu.Lock()
			c.data = nil
			c.mu.Unlock()
		}
	}
}

// offer returns the property type, format and payload for a requested
// target, or ok=false when nothing matching is held.
func (c *x11Clipboard) offer(target xproto.Atom) (typ xproto.Atom, unit byte, payload []byte, ok bool) {
	c.mu.RLock()
	owned, data := c.owned, c.data
	c.mu.RUnlock()
	if len(data) == 0 {
		return 0, 0, nil, false
	}
	switch target {
	case c.atoms.targets:
		targets := []xproto.Atom{c.atoms.targets}
		if owned == formatPNG {
			targets = append(targets, c.atoms.png)
		} else {
			targets = append(targets, c.atoms.utf8, xproto.AtomString, c.atoms.textPlain)
		}
		buf := make([]byte, len(targets)*4)
		for i, a := range targets {
			xgb.Put32(buf[i*4:], uint32(a))
		}
		return xproto.AtomAtom, 32, buf, true
	case c.atoms.utf8, xproto.AtomString, c.atoms.textPlain:
		if owned != formatText {
			return 0, 0, nil, false
		}
		return c.atoms.utf8, 8, data, true
	case c.atoms.png:
		if owned != formatPNG {
			return 0, 0, nil, false
		}
		return c.atoms.png, 8, data, true
	}
	return 0, 0, nil, false
}

func (c *x11Clipboard) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	if typ, unit, payload, ok := c.offer(e.Target); ok {
		n := uint32(len(payload))
		if unit == 32 {
			n /= 4
		}
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property, typ, unit, n, payload)
	} else {
		property = xproto.AtomNone
	}
	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(c.conn, false, e.Requestor, 0, string(reply.Bytes()))
}

// readSelection converts the selection on a fresh connection so the owner's
// event loop on c.conn is never blocked by our own request.
func (c *x11Clipboard) readSelection(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, c.atoms.clipboard, target, c.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, fmt.Errorf("clipboard target unavailable")
		}
		reply, perr := xproto.GetProperty(conn, true, window, e.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
