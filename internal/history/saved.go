package history

import (
	"sync"

	"github.com/google/uuid"

	"github.com/example/papermark/internal/boxes"
)

// SavedCapacity bounds the saved-operation undo stack.
const SavedCapacity = 30

// RecordType says which backend write a Record reverses.
type RecordType string

const (
	RecordCreate RecordType = "create"
	RecordUpdate RecordType = "update"
)

// Persisted is the question state the backend holds.
type Persisted struct {
	Sections []string
	Notes    *string
	Boxes    []boxes.PageBox
}

// Clone deep-copies p.
func (p Persisted) Clone() Persisted {
	out := Persisted{
		Sections: append([]string(nil), p.Sections...),
		Boxes:    append([]boxes.PageBox(nil), p.Boxes...),
	}
	if p.Notes != nil {
		n := *p.Notes
		out.Notes = &n
	}
	return out
}

// FocusPage returns the first page the record touches, preferring Before.
func (r *Record) FocusPage() (int, bool) {
	if r.Before != nil && len(r.Before.Boxes) > 0 {
		return r.Before.Boxes[0].Page, true
	}
	if len(r.After.Boxes) > 0 {
		return r.After.Boxes[0].Page, true
	}
	return 0, false
}

// RedoFocusPage is FocusPage preferring After.
func (r *Record) RedoFocusPage() (int, bool) {
	if len(r.After.Boxes) > 0 {
		return r.After.Boxes[0].Page, true
	}
	return r.FocusPage()
}

// Record is a committed backend write. QuestionID is the only field that
// changes after creation, when a redone create gets a new id.
type Record struct {
	ID         string
	Type       RecordType
	PaperID    int64
	QuestionID int64
	Before     *Persisted
	After      Persisted
}

// NewRecord stamps a record with a fresh id.
func NewRecord(typ RecordType, paperID, questionID int64, before *Persisted, after Persisted) *Record {
	r := &Record{
		ID:         uuid.NewString(),
		Type:       typ,
		PaperID:    paperID,
		QuestionID: questionID,
		After:      after.Clone(),
	}
	if before != nil {
		b := before.Clone()
		r.Before = &b
	}
	return r
}

// SavedStack holds saved-operation records. Records move between the two
// sides only after the compensating write succeeded.
type SavedStack struct {
	capacity int

	mu   sync.Mutex
	busy bool
	undo []*Record
	redo []*Record
}

// NewSavedStack returns a stack holding at most capacity undo records.
func NewSavedStack(capacity int) *SavedStack {
	if capacity <= 0 {
		capacity = SavedCapacity
	}
	return &SavedStack{capacity: capacity}
}

// Push records a new write and clears the redo side.
func (s *SavedStack) Push(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append(s.undo, r)
	if len(s.undo) > s.capacity {
		s.undo = append([]*Record(nil), s.undo[len(s.undo)-s.capacity:]...)
	}
	s.redo = nil
}

// Begin claims the stack for one network round trip. It returns false while
// another round trip is in flight.
func (s *SavedStack) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// End releases the claim taken by Begin.
func (s *SavedStack) End() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Busy reports whether a round trip is in flight.
func (s *SavedStack) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// PeekUndo returns the record Undo would reverse.
func (s *SavedStack) PeekUndo() (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		return nil, false
	}
	return s.undo[len(s.undo)-1], true
}

// PeekRedo returns the record Redo would replay.
func (s *SavedStack) PeekRedo() (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.redo) == 0 {
		return nil, false
	}
	return s.redo[len(s.redo)-1], true
}

// CompleteUndo moves r from the undo side to the redo side.
func (s *SavedStack) CompleteUndo(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.undo); n > 0 && s.undo[n-1] == r {
		s.undo = s.undo[:n-1]
		s.redo = append(s.redo, r)
	}
}

// CompleteRedo moves r from the redo side back to the undo side.
func (s *SavedStack) CompleteRedo(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.redo); n > 0 && s.redo[n-1] == r {
		s.redo = s.redo[:n-1]
		s.undo = append(s.undo, r)
	}
}

// Reset drops every record.
func (s *SavedStack) Reset() {
	s.mu.Lock()
	s.undo = nil
	s.redo = nil
	s.mu.Unlock()
}

// Len returns the undo and redo depths.
func (s *SavedStack) Len() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}
