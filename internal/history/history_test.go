package history

import (
	"testing"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
)

func box(page int, x0 float64) boxes.PageBox {
	return boxes.PageBox{Page: page, BBox: geom.Box{x0, 0.1, x0 + 0.1, 0.2}}
}

func TestCommitSkipsNoop(t *testing.T) {
	s := NewStack(UnsavedCapacity)
	before := &Snapshot{Boxes: []boxes.PageBox{box(1, 0.1)}, Selected: -1}
	if s.Commit(before, []boxes.PageBox{box(1, 0.1)}) {
		t.Fatal("identical boxes must not push")
	}
	if s.Commit(nil, nil) {
		t.Fatal("nil snapshot must not push")
	}
	if s.CanUndo() {
		t.Fatal("nothing should be on the stack")
	}
}

func TestCommitClearsRedo(t *testing.T) {
	s := NewStack(UnsavedCapacity)
	s.Commit(&Snapshot{Selected: -1}, []boxes.PageBox{box(1, 0.1)})
	if _, ok := s.Undo(Snapshot{Boxes: []boxes.PageBox{box(1, 0.1)}}); !ok {
		t.Fatal("expected undo")
	}
	if !s.CanRedo() {
		t.Fatal("expected redo entry after undo")
	}
	s.Commit(&Snapshot{Selected: -1}, []boxes.PageBox{box(1, 0.3)})
	if s.CanRedo() {
		t.Fatal("a new edit must clear redo")
	}
}

func TestStackCapacityEvictsOldest(t *testing.T) {
	s := NewStack(3)
	for i := 0; i < 5; i++ {
		s.Push(Snapshot{Selected: i})
	}
	if u, _ := s.Len(); u != 3 {
		t.Fatalf("undo depth = %d, want 3", u)
	}
	var got []int
	for s.CanUndo() {
		snap, _ := s.Undo(Snapshot{})
		got = append(got, snap.Selected)
	}
	want := []int{4, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("undo order = %v, want %v", got, want)
		}
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := NewStack(UnsavedCapacity)
	empty := Snapshot{Selected: -1}
	drawn := Snapshot{Boxes: []boxes.PageBox{box(2, 0.4)}, Selected: 0}
	s.Commit(&empty, drawn.Boxes)

	restored, ok := s.Undo(drawn)
	if !ok || len(restored.Boxes) != 0 {
		t.Fatalf("undo restored %+v", restored)
	}
	again, ok := s.Redo(restored)
	if !ok || !boxes.Equal(again.Boxes, drawn.Boxes) {
		t.Fatalf("redo restored %+v", again)
	}
	if u, r := s.Len(); u != 1 || r != 0 {
		t.Fatalf("depths = %d/%d, want 1/0", u, r)
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	snap := Snapshot{
		Boxes:  []boxes.PageBox{box(1, 0.1)},
		Drafts: []boxes.DraftGroup{{Label: "1", Sections: []string{"A"}}},
	}
	c := snap.Clone()
	c.Boxes[0].Page = 9
	c.Drafts[0].Sections[0] = "B"
	if snap.Boxes[0].Page != 1 || snap.Drafts[0].Sections[0] != "A" {
		t.Fatal("Clone must not alias")
	}
}

func TestSavedStackMovesOnlyOnComplete(t *testing.T) {
	s := NewSavedStack(SavedCapacity)
	rec := NewRecord(RecordCreate, 1, 10, nil, Persisted{Boxes: []boxes.PageBox{box(3, 0.1)}})
	s.Push(rec)
	if rec.ID == "" {
		t.Fatal("record id should be set")
	}

	got, ok := s.PeekUndo()
	if !ok || got != rec {
		t.Fatal("PeekUndo should return the pushed record")
	}
	if u, r := s.Len(); u != 1 || r != 0 {
		t.Fatalf("peek must not move: %d/%d", u, r)
	}
	s.CompleteUndo(rec)
	if u, r := s.Len(); u != 0 || r != 1 {
		t.Fatalf("after undo: %d/%d", u, r)
	}
	s.CompleteRedo(rec)
	if u, r := s.Len(); u != 1 || r != 0 {
		t.Fatalf("after redo: %d/%d", u, r)
	}
	if page, ok := rec.FocusPage(); !ok || page != 3 {
		t.Fatalf("FocusPage = %d %v", page, ok)
	}
}

func TestSavedStackBusy(t *testing.T) {
	s := NewSavedStack(0)
	if !s.Begin() {
		t.Fatal("first Begin should succeed")
	}
	if s.Begin() {
		t.Fatal("second Begin should be refused while busy")
	}
	s.End()
	if s.Busy() {
		t.Fatal("End should release")
	}
}

func TestSavedStackCapacity(t *testing.T) {
	s := NewSavedStack(2)
	for i := 0; i < 4; i++ {
		s.Push(NewRecord(RecordUpdate, 1, int64(i), &Persisted{}, Persisted{}))
	}
	top, _ := s.PeekUndo()
	if u, _ := s.Len(); u != 2 || top.QuestionID != 3 {
		t.Fatalf("depth %d top %d", u, top.QuestionID)
	}
}
