package editor

import (
	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
)

// Hit is the result of a hit test against the collection.
type Hit struct {
	Box    *boxes.PageBox
	Handle geom.Handle
	Body   bool
}

// HitTest finds the box under (x, y) on page, newest first. Handles are
// checked before the body of each box; boxes preferred by the hit priority
// are checked before all others.
func (e *Editor) HitTest(page int, x, y float64) (Hit, bool) {
	passes := 1
	if e.priority != nil {
		passes = 2
	}
	for pass := 0; pass < passes; pass++ {
		for i := len(e.boxes) - 1; i >= 0; i-- {
			b := e.boxes[i]
			if b == nil || b.Page != page {
				continue
			}
			if e.priority != nil && e.priority(b) != (pass == 0) {
				continue
			}
			if h := geom.HitHandle(x, y, b.BBox, geom.HandlePad); h != geom.HandleNone {
				return Hit{Box: b, Handle: h}, true
			}
			if geom.PointIn(x, y, b.BBox) {
				return Hit{Box: b, Body: true}, true
			}
		}
	}
	return Hit{}, false
}

// PointerDown starts a gesture on page at normalized (x, y).
func (e *Editor) PointerDown(page int, x, y float64) {
	x, y = geom.Clamp01(x), geom.Clamp01(y)
	if e.state != StateIdle {
		e.abortGesture()
	}
	e.page = page
	if e.pending == nil {
		snap := e.Snapshot()
		e.pending = &snap
	}
	if hit, ok := e.HitTest(page, x, y); ok {
		if e.onHit != nil {
			e.onHit(hit.Box)
		}
		b := hit.Box.BBox
		op := &DragOp{Kind: DragResize, Box: hit.Box, Handle: hit.Handle}
		if hit.Body {
			op = &DragOp{Kind: DragMove, Box: hit.Box, OffX: x - b[0], OffY: y - b[1], W: b.Width(), H: b.Height()}
		}
		e.selected = hit.Box
		e.drag = op
		e.state = StateDragging
		e.changed()
		return
	}
	e.selected = nil
	e.drag = nil
	e.state = StateDrawing
	e.startX, e.startY = x, y
	e.changed()
}

// PointerMove updates the active gesture.
func (e *Editor) PointerMove(x, y float64) {
	x, y = geom.Clamp01(x), geom.Clamp01(y)
	switch e.state {
	case StateDragging:
		e.dragTo(x, y)
		e.changed()
	case StateDrawing:
		candidate := &boxes.PageBox{Page: e.page, BBox: geom.FromPoints(e.startX, e.startY, x, y)}
		e.tagNew(candidate)
		if bounds, ok := e.drawBounds(candidate); ok {
			candidate.BBox = align.Apply(candidate.BBox, bounds)
		}
		e.preview = &candidate.BBox
		e.changed()
	}
}

// PointerUp finishes the gesture and pushes history when it changed anything.
func (e *Editor) PointerUp(x, y float64) {
	x, y = geom.Clamp01(x), geom.Clamp01(y)
	pending := e.pending
	if e.state == StateDrawing {
		final := geom.FromPoints(e.startX, e.startY, x, y)
		if final.Width() > MinDrawWidth && final.Height() > MinDrawHeight {
			candidate := &boxes.PageBox{Page: e.page, BBox: final}
			e.tagNew(candidate)
			bounds, ok := e.drawBounds(candidate)
			if ok {
				candidate.BBox = align.Apply(candidate.BBox, bounds)
			}
			e.boxes = append(e.boxes, candidate)
			e.selected = candidate
			if ok && e.alignAllOnDraw {
				e.alignMembers(candidate, bounds)
			}
		}
	}
	e.state = StateIdle
	e.drag = nil
	e.preview = nil
	e.pending = nil
	e.commit(pending)
	e.changed()
}

// PointerCancel abandons the gesture without touching history. A drag is
// rolled back to the state captured at pointer down; an abandoned draw
// gets back the selection it cleared.
func (e *Editor) PointerCancel() {
	if e.state == StateIdle && e.pending == nil {
		return
	}
	pending := e.pending
	switch {
	case e.state == StateDragging && pending != nil:
		e.restore(*pending)
	case pending != nil:
		e.abortGesture()
		if pending.Selected >= 0 && pending.Selected < len(e.boxes) {
			e.selected = e.boxes[pending.Selected]
		}
	default:
		e.abortGesture()
	}
	e.changed()
}

func (e *Editor) tagNew(b *boxes.PageBox) {
	if e.tag != nil {
		e.tag(b)
	}
}

func (e *Editor) dragTo(x, y float64) {
	op := e.drag
	if op == nil || op.Box == nil {
		return
	}
	b := op.Box
	switch op.Kind {
	case DragMove:
		b.BBox = geom.MoveTo(x-op.OffX, y-op.OffY, op.W, op.H)
	case DragResize:
		b.BBox = geom.Resize(b.BBox, op.Handle, x, y)
	}
	e.alignDragged(op)
}

// alignDragged applies alignment after a drag step. Moving the first box of
// a scope carries every other member with it; resizing it leaves the rest
// alone. Any other box aligns only itself.
func (e *Editor) alignDragged(op *DragOp) {
	if e.scope == nil || !e.scope.Enabled() {
		return
	}
	b := op.Box
	members := e.scope.Members(e.boxes, b)
	ref, hasRef := e.scope.Reference(e.boxes)
	isFirst := len(members) > 0 && members[0] == b

	if isFirst {
		if op.Kind == DragResize {
			if hasRef {
				b.BBox = align.Apply(b.BBox, ref)
			}
			return
		}
		bounds := ref
		if !hasRef {
			var ok bool
			if bounds, ok = align.FromBox(b.BBox); !ok {
				return
			}
		} else {
			b.BBox = align.Apply(b.BBox, bounds)
		}
		for _, m := range members {
			if m != b {
				m.BBox = align.Apply(m.BBox, bounds)
			}
		}
		return
	}

	bounds, ok := ref, hasRef
	if !ok {
		if len(members) == 0 {
			return
		}
		if bounds, ok = align.FromBox(members[0].BBox); !ok {
			return
		}
	}
	b.BBox = align.Apply(b.BBox, bounds)
}

// drawBounds returns the bounds a box being drawn should take.
func (e *Editor) drawBounds(candidate *boxes.PageBox) (align.Bounds, bool) {
	if e.scope == nil || !e.scope.Enabled() {
		return align.Bounds{}, false
	}
	if ref, ok := e.scope.Reference(e.boxes); ok {
		return ref, true
	}
	members := e.scope.Members(e.boxes, candidate)
	if len(members) == 0 {
		return align.Bounds{}, false
	}
	return align.FromBox(members[0].BBox)
}

func (e *Editor) alignMembers(b *boxes.PageBox, bounds align.Bounds) {
	for _, m := range e.scope.Members(e.boxes, b) {
		m.BBox = align.Apply(m.BBox, bounds)
	}
}

// AlignScope realigns every member of b's scope as one undoable step.
func (e *Editor) AlignScope(b *boxes.PageBox) bool {
	if e.scope == nil || !e.scope.Enabled() || e.boxes.IndexOf(b) < 0 {
		return false
	}
	return e.Edit(func(c *boxes.Collection, sel *boxes.PageBox) *boxes.PageBox {
		bounds, ok := e.scope.Reference(*c)
		members := e.scope.Members(*c, b)
		if !ok && len(members) > 0 {
			bounds, ok = align.FromBox(members[0].BBox)
		}
		if ok {
			for _, m := range members {
				m.BBox = align.Apply(m.BBox, bounds)
			}
		}
		return sel
	})
}
