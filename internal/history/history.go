// Package history keeps undo and redo stacks for unsaved box edits and for
// edits already written to the backend.
package history

import (
	"github.com/example/papermark/internal/boxes"
)

// UnsavedCapacity bounds the unsaved undo stack.
const UnsavedCapacity = 50

// Snapshot is a deep copy of the editable state.
type Snapshot struct {
	Boxes         []boxes.PageBox
	Selected      int
	Drafts        []boxes.DraftGroup
	SelectedDraft int
}

// Clone deep-copies s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Boxes:         append([]boxes.PageBox(nil), s.Boxes...),
		Selected:      s.Selected,
		Drafts:        boxes.CloneGroups(s.Drafts),
		SelectedDraft: s.SelectedDraft,
	}
}

// Stack is a bounded undo/redo pair of snapshots.
type Stack struct {
	capacity int
	undo     []Snapshot
	redo     []Snapshot
}

// NewStack returns a stack holding at most capacity undo entries.
func NewStack(capacity int) *Stack {
	if capacity <= 0 {
		capacity = UnsavedCapacity
	}
	return &Stack{capacity: capacity}
}

// Commit pushes before when the boxes differ from current and reports
// whether it did. Any push clears the redo side.
func (s *Stack) Commit(before *Snapshot, current []boxes.PageBox) bool {
	if before == nil {
		return false
	}
	if boxes.Equal(before.Boxes, current) {
		return false
	}
	s.Push(before.Clone())
	return true
}

// Push records snap unconditionally, evicting the oldest entry at capacity.
func (s *Stack) Push(snap Snapshot) {
	s.undo = append(s.undo, snap)
	if len(s.undo) > s.capacity {
		s.undo = append([]Snapshot(nil), s.undo[len(s.undo)-s.capacity:]...)
	}
	s.redo = nil
}

// Undo stores current on the redo side and returns the snapshot to restore.
func (s *Stack) Undo(current Snapshot) (Snapshot, bool) {
	if len(s.undo) == 0 {
		return Snapshot{}, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current.Clone())
	return prev, true
}

// Redo stores current on the undo side and returns the snapshot to restore.
func (s *Stack) Redo(current Snapshot) (Snapshot, bool) {
	if len(s.redo) == 0 {
		return Snapshot{}, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, current.Clone())
	if len(s.undo) > s.capacity {
		s.undo = append([]Snapshot(nil), s.undo[len(s.undo)-s.capacity:]...)
	}
	return next, true
}

// Reset drops both sides.
func (s *Stack) Reset() {
	s.undo = nil
	s.redo = nil
}

// CanUndo reports whether Undo would restore something.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would restore something.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Len returns the undo and redo depths.
func (s *Stack) Len() (undo, redo int) { return len(s.undo), len(s.redo) }
