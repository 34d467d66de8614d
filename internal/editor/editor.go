// Package editor turns pointer events on a page into box edits: drawing new
// boxes, moving and resizing existing ones, and the unsaved undo history
// those gestures produce.
package editor

import (
	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
	"github.com/example/papermark/internal/history"
)

// Minimum extent of a drawn box. The height is small so a single text line
// can be boxed.
const (
	MinDrawWidth  = 0.005
	MinDrawHeight = 0.0015
)

// State is the gesture state of the editor.
type State int

const (
	StateIdle State = iota
	StateDrawing
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	}
	return "idle"
}

// DragKind separates body drags from handle drags.
type DragKind int

const (
	DragMove DragKind = iota
	DragResize
)

// DragOp describes the box under an active drag.
type DragOp struct {
	Kind   DragKind
	Box    *boxes.PageBox
	Handle geom.Handle
	OffX   float64
	OffY   float64
	W      float64
	H      float64
}

// Scope decides which boxes share alignment bounds.
type Scope interface {
	// Enabled reports whether any alignment applies.
	Enabled() bool
	// Members returns, oldest first, the boxes of c that share bounds with b.
	// b may be a candidate that is not in c yet.
	Members(c boxes.Collection, b *boxes.PageBox) boxes.Collection
	// Reference returns bounds that take precedence over the first member.
	Reference(c boxes.Collection) (align.Bounds, bool)
}

// Editor owns one in-progress box collection and its gesture state.
type Editor struct {
	boxes    boxes.Collection
	selected *boxes.PageBox

	state   State
	page    int
	startX  float64
	startY  float64
	drag    *DragOp
	preview *geom.Box
	pending *history.Snapshot

	hist *history.Stack

	scope          Scope
	priority       func(*boxes.PageBox) bool
	onHit          func(*boxes.PageBox)
	tag            func(*boxes.PageBox)
	saveExtra      func(*history.Snapshot)
	restoreExtra   func(history.Snapshot)
	alignAllOnDraw bool
	onChange       func()
	onCommit       func()
}

// Option configures an Editor.
type Option func(*Editor)

// WithScope sets the alignment scope.
func WithScope(s Scope) Option { return func(e *Editor) { e.scope = s } }

// WithHitPriority makes boxes matching fn win hit tests over the rest.
func WithHitPriority(fn func(*boxes.PageBox) bool) Option {
	return func(e *Editor) { e.priority = fn }
}

// WithOnHit is called when a gesture grabs an existing box.
func WithOnHit(fn func(*boxes.PageBox)) Option { return func(e *Editor) { e.onHit = fn } }

// WithTagger decorates each newly drawn box before it is stored.
func WithTagger(fn func(*boxes.PageBox)) Option { return func(e *Editor) { e.tag = fn } }

// WithExtraState adds view state to every history snapshot.
func WithExtraState(save func(*history.Snapshot), restore func(history.Snapshot)) Option {
	return func(e *Editor) {
		e.saveExtra = save
		e.restoreExtra = restore
	}
}

// WithAlignAllOnDraw realigns the whole scope after each drawn box.
func WithAlignAllOnDraw(v bool) Option { return func(e *Editor) { e.alignAllOnDraw = v } }

// WithOnChange is called after any visible change.
func WithOnChange(fn func()) Option { return func(e *Editor) { e.onChange = fn } }

// WithOnCommit is called after a gesture or edit pushed a history entry.
func WithOnCommit(fn func()) Option { return func(e *Editor) { e.onCommit = fn } }

// WithHistoryCapacity overrides the undo depth.
func WithHistoryCapacity(n int) Option {
	return func(e *Editor) { e.hist = history.NewStack(n) }
}

// New creates an idle editor with an empty collection.
func New(opts ...Option) *Editor {
	e := &Editor{}
	for _, o := range opts {
		o(e)
	}
	if e.hist == nil {
		e.hist = history.NewStack(history.UnsavedCapacity)
	}
	return e
}

// Boxes returns the live collection. Callers must not mutate it.
func (e *Editor) Boxes() boxes.Collection { return e.boxes }

// Selected returns the selected box or nil.
func (e *Editor) Selected() *boxes.PageBox { return e.selected }

// SelectedIndex returns the position of the selection or -1.
func (e *Editor) SelectedIndex() int { return e.boxes.IndexOf(e.selected) }

// Select sets the selection. A box outside the collection clears it.
func (e *Editor) Select(b *boxes.PageBox) {
	if e.boxes.IndexOf(b) < 0 {
		b = nil
	}
	e.selected = b
	e.changed()
}

// State returns the gesture state.
func (e *Editor) State() State { return e.state }

// Drag returns the active drag or nil.
func (e *Editor) Drag() *DragOp { return e.drag }

// Preview returns the live box of a draw gesture.
func (e *Editor) Preview() (geom.Box, bool) {
	if e.preview == nil {
		return geom.Box{}, false
	}
	return *e.preview, true
}

// HasBoxes reports whether there are unsaved boxes.
func (e *Editor) HasBoxes() bool { return len(e.boxes) > 0 }

// CanUndo reports whether the unsaved stack has an entry.
func (e *Editor) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether the unsaved redo stack has an entry.
func (e *Editor) CanRedo() bool { return e.hist.CanRedo() }

// HistoryLen returns the unsaved undo and redo depths.
func (e *Editor) HistoryLen() (undo, redo int) { return e.hist.Len() }

// Snapshot captures the current state.
func (e *Editor) Snapshot() history.Snapshot {
	s := history.Snapshot{Boxes: e.boxes.Values(), Selected: e.SelectedIndex()}
	if e.saveExtra != nil {
		e.saveExtra(&s)
	}
	return s
}

func (e *Editor) restore(s history.Snapshot) {
	e.restoreBoxes(s.Boxes, s.Selected)
	if e.restoreExtra != nil {
		e.restoreExtra(s)
	}
}

func (e *Editor) restoreBoxes(vs []boxes.PageBox, selected int) {
	e.abortGesture()
	e.boxes = boxes.FromValues(vs)
	e.selected = nil
	if selected >= 0 && selected < len(e.boxes) {
		e.selected = e.boxes[selected]
	}
}

// Load replaces the collection without touching history or the caller's
// extra state.
func (e *Editor) Load(vs []boxes.PageBox, selected int) {
	e.restoreBoxes(vs, selected)
	e.changed()
}

// Reset clears boxes, selection, gesture and history.
func (e *Editor) Reset() {
	e.abortGesture()
	e.boxes = nil
	e.selected = nil
	e.hist.Reset()
	e.changed()
}

// ResetHistory drops the unsaved undo and redo entries.
func (e *Editor) ResetHistory() { e.hist.Reset() }

// Undo restores the previous unsaved state. It returns false when the
// unsaved stack is empty.
func (e *Editor) Undo() bool {
	snap, ok := e.hist.Undo(e.Snapshot())
	if !ok {
		return false
	}
	e.restore(snap)
	e.changed()
	return true
}

// Redo reapplies an undone state. It returns false when nothing is undone.
func (e *Editor) Redo() bool {
	snap, ok := e.hist.Redo(e.Snapshot())
	if !ok {
		return false
	}
	e.restore(snap)
	e.changed()
	return true
}

// Edit runs fn as one undoable step. fn receives the collection to mutate
// and returns the box to select.
func (e *Editor) Edit(fn func(c *boxes.Collection, selected *boxes.PageBox) *boxes.PageBox) bool {
	e.abortGesture()
	before := e.Snapshot()
	e.selected = fn(&e.boxes, e.selected)
	if e.boxes.IndexOf(e.selected) < 0 {
		e.selected = nil
	}
	pushed := e.commit(&before)
	e.changed()
	return pushed
}

func (e *Editor) commit(before *history.Snapshot) bool {
	if !e.hist.Commit(before, e.boxes.Values()) {
		return false
	}
	if e.onCommit != nil {
		e.onCommit()
	}
	return true
}

func (e *Editor) abortGesture() {
	e.state = StateIdle
	e.drag = nil
	e.preview = nil
	e.pending = nil
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}
