package editor

import (
	"math"
	"testing"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
	"github.com/example/papermark/internal/history"
)

// wholeScope aligns every box in the collection, optionally to a fixed reference.
type wholeScope struct {
	ref *align.Bounds
}

func (s wholeScope) Enabled() bool { return true }

func (s wholeScope) Members(c boxes.Collection, _ *boxes.PageBox) boxes.Collection { return c }

func (s wholeScope) Reference(boxes.Collection) (align.Bounds, bool) {
	if s.ref == nil {
		return align.Bounds{}, false
	}
	return *s.ref, true
}

func boxNear(a, b geom.Box) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func draw(e *Editor, page int, x0, y0, x1, y1 float64) {
	e.PointerDown(page, x0, y0)
	e.PointerMove(x1, y1)
	e.PointerUp(x1, y1)
}

func TestDrawBelowThresholdIsDiscarded(t *testing.T) {
	e := New()
	draw(e, 1, 0.1, 0.1, 0.102, 0.3)
	if e.HasBoxes() {
		t.Fatalf("expected no boxes, got %v", e.Boxes().Values())
	}
	if e.CanUndo() {
		t.Fatal("discarded draw must not push history")
	}
	if e.State() != StateIdle {
		t.Fatalf("state = %v, want idle", e.State())
	}
}

func TestDrawCommitsOneBoxAndOneSnapshot(t *testing.T) {
	e := New()
	draw(e, 2, 0.1, 0.1, 0.3, 0.12)
	if len(e.Boxes()) != 1 {
		t.Fatalf("got %d boxes, want 1", len(e.Boxes()))
	}
	got := e.Boxes()[0]
	if got.Page != 2 || !boxNear(got.BBox, geom.Box{0.1, 0.1, 0.3, 0.12}) {
		t.Fatalf("unexpected box %+v", *got)
	}
	if e.Selected() != got {
		t.Fatal("new box should be selected")
	}
	if u, r := e.HistoryLen(); u != 1 || r != 0 {
		t.Fatalf("history = %d/%d, want 1/0", u, r)
	}
}

func TestUndoRedoDraw(t *testing.T) {
	e := New()
	draw(e, 1, 0.1, 0.1, 0.3, 0.12)
	drawn := e.Boxes().Values()

	if !e.Undo() {
		t.Fatal("Undo = false")
	}
	if e.HasBoxes() {
		t.Fatal("undo should empty the collection")
	}
	if u, r := e.HistoryLen(); u != 0 || r != 1 {
		t.Fatalf("history after undo = %d/%d", u, r)
	}
	if !e.Redo() {
		t.Fatal("Redo = false")
	}
	if !boxes.Equal(e.Boxes().Values(), drawn) {
		t.Fatalf("redo restored %v, want %v", e.Boxes().Values(), drawn)
	}
	if e.Redo() {
		t.Fatal("second Redo should report nothing to do")
	}
}

func TestClickWithoutDragPushesNothing(t *testing.T) {
	e := New()
	e.PointerDown(1, 0.4, 0.4)
	e.PointerUp(0.4, 0.4)
	if u, _ := e.HistoryLen(); u != 0 {
		t.Fatalf("undo depth = %d, want 0", u)
	}

	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.5, 0.5}}}, -1)
	e.PointerDown(1, 0.3, 0.3)
	if e.State() != StateDragging || e.Drag().Kind != DragMove {
		t.Fatalf("expected a move drag, state %v", e.State())
	}
	e.PointerUp(0.3, 0.3)
	if u, _ := e.HistoryLen(); u != 0 {
		t.Fatalf("click on a box pushed history")
	}
}

func TestClickOnEmptySpaceDeselects(t *testing.T) {
	e := New()
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.2, 0.2}}}, 0)
	if e.Selected() == nil {
		t.Fatal("expected selection after Load")
	}
	e.PointerDown(1, 0.8, 0.8)
	if e.Selected() != nil {
		t.Fatal("click on empty space should clear selection")
	}
	e.PointerUp(0.8, 0.8)
}

func TestDrawAlignsToFirstBox(t *testing.T) {
	e := New(WithScope(wholeScope{}))
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0, 0, 0.5, 0.1}}}, -1)
	draw(e, 1, 0.2, 0.2, 0.6, 0.3)
	if len(e.Boxes()) != 2 {
		t.Fatalf("got %d boxes", len(e.Boxes()))
	}
	got := e.Boxes()[1].BBox
	if !boxNear(got, geom.Box{0, 0.2, 0.5, 0.3}) {
		t.Fatalf("aligned box = %v, want [0 0.2 0.5 0.3]", got)
	}
}

func TestPreviewIsAlignedButNotStored(t *testing.T) {
	e := New(WithScope(wholeScope{}))
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0, 0.4, 0.1}}}, -1)
	e.PointerDown(1, 0.5, 0.5)
	e.PointerMove(0.9, 0.7)
	p, ok := e.Preview()
	if !ok || !boxNear(p, geom.Box{0.1, 0.5, 0.4, 0.7}) {
		t.Fatalf("preview = %v %v", p, ok)
	}
	if len(e.Boxes()) != 1 {
		t.Fatal("preview must not be stored")
	}
	e.PointerCancel()
	if _, ok := e.Preview(); ok || e.State() != StateIdle {
		t.Fatal("cancel should clear the preview")
	}
	if e.CanUndo() {
		t.Fatal("cancel must not push history")
	}
}

func twoStacked() []boxes.PageBox {
	return []boxes.PageBox{
		{Page: 1, BBox: geom.Box{0.1, 0.1, 0.5, 0.2}},
		{Page: 1, BBox: geom.Box{0.1, 0.3, 0.5, 0.4}},
	}
}

func TestMovingFirstBoxCascades(t *testing.T) {
	e := New(WithScope(wholeScope{}))
	e.Load(twoStacked(), -1)

	e.PointerDown(1, 0.3, 0.15)
	e.PointerMove(0.4, 0.15)
	e.PointerUp(0.4, 0.15)

	first, second := e.Boxes()[0].BBox, e.Boxes()[1].BBox
	if !boxNear(first, geom.Box{0.2, 0.1, 0.6, 0.2}) {
		t.Fatalf("first = %v", first)
	}
	if !boxNear(second, geom.Box{0.2, 0.3, 0.6, 0.4}) {
		t.Fatalf("second should follow the first, got %v", second)
	}
	if u, _ := e.HistoryLen(); u != 1 {
		t.Fatalf("cascade should be one history entry, got %d", u)
	}
	e.Undo()
	if !boxes.Equal(e.Boxes().Values(), twoStacked()) {
		t.Fatalf("undo should restore both boxes, got %v", e.Boxes().Values())
	}
}

func TestResizingFirstBoxDoesNotCascade(t *testing.T) {
	e := New(WithScope(wholeScope{}))
	e.Load(twoStacked(), -1)

	e.PointerDown(1, 0.5, 0.15)
	if op := e.Drag(); op == nil || op.Kind != DragResize || op.Handle != geom.HandleMR {
		t.Fatalf("expected mr resize, got %+v", op)
	}
	e.PointerMove(0.7, 0.15)
	e.PointerUp(0.7, 0.15)

	if got := e.Boxes()[0].BBox; !boxNear(got, geom.Box{0.1, 0.1, 0.7, 0.2}) {
		t.Fatalf("first = %v", got)
	}
	if got := e.Boxes()[1].BBox; !boxNear(got, geom.Box{0.1, 0.3, 0.5, 0.4}) {
		t.Fatalf("second must not change, got %v", got)
	}
}

func TestMovingLaterBoxAlignsOnlyItself(t *testing.T) {
	e := New(WithScope(wholeScope{}))
	e.Load(twoStacked(), -1)

	e.PointerDown(1, 0.3, 0.35)
	e.PointerMove(0.5, 0.36)
	e.PointerUp(0.5, 0.36)

	if got := e.Boxes()[0].BBox; !boxNear(got, geom.Box{0.1, 0.1, 0.5, 0.2}) {
		t.Fatalf("first must not change, got %v", got)
	}
	if got := e.Boxes()[1].BBox; !boxNear(got, geom.Box{0.1, 0.31, 0.5, 0.41}) {
		t.Fatalf("second = %v", got)
	}
}

func TestPersistedReferenceWins(t *testing.T) {
	ref := align.Bounds{0.05, 0.95}
	e := New(WithScope(wholeScope{ref: &ref}))
	draw(e, 1, 0.3, 0.3, 0.4, 0.4)
	if got := e.Boxes()[0].BBox; !boxNear(got, geom.Box{0.05, 0.3, 0.95, 0.4}) {
		t.Fatalf("box = %v", got)
	}
}

func TestAlignAllOnDraw(t *testing.T) {
	e := New(WithScope(wholeScope{}), WithAlignAllOnDraw(true))
	e.Load([]boxes.PageBox{
		{Page: 1, BBox: geom.Box{0.2, 0.1, 0.6, 0.2}},
		{Page: 1, BBox: geom.Box{0.3, 0.3, 0.9, 0.4}},
	}, -1)
	draw(e, 1, 0.1, 0.5, 0.3, 0.6)
	for i, b := range e.Boxes() {
		if math.Abs(b.BBox[0]-0.2) > 1e-9 || math.Abs(b.BBox[2]-0.6) > 1e-9 {
			t.Fatalf("box %d = %v, want x-extent [0.2 0.6]", i, b.BBox)
		}
	}
}

func TestMoveStaysOnPage(t *testing.T) {
	e := New()
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.3, 0.3}}}, -1)
	e.PointerDown(1, 0.2, 0.2)
	e.PointerMove(1.5, 1.5)
	e.PointerUp(1.5, 1.5)
	got := e.Boxes()[0].BBox
	if !boxNear(got, geom.Box{0.8, 0.8, 1, 1}) {
		t.Fatalf("box = %v, want pinned to the bottom-right corner", got)
	}
}

func TestHitPriority(t *testing.T) {
	var hits []*boxes.PageBox
	e := New(
		WithHitPriority(func(b *boxes.PageBox) bool { return b.DraftIdx == 0 }),
		WithOnHit(func(b *boxes.PageBox) { hits = append(hits, b) }),
	)
	e.Load([]boxes.PageBox{
		{Page: 1, BBox: geom.Box{0.1, 0.1, 0.5, 0.5}, Source: boxes.SourceOCR, DraftIdx: 0},
		{Page: 1, BBox: geom.Box{0.2, 0.2, 0.6, 0.6}, Source: boxes.SourceOCR, DraftIdx: 1},
	}, -1)
	hit, ok := e.HitTest(1, 0.3, 0.3)
	if !ok || hit.Box != e.Boxes()[0] {
		t.Fatalf("expected the priority box, got %+v", hit)
	}
	hit, ok = e.HitTest(1, 0.55, 0.55)
	if !ok || hit.Box != e.Boxes()[1] {
		t.Fatalf("other groups are still reachable, got %+v", hit)
	}
	if _, ok := e.HitTest(2, 0.3, 0.3); ok {
		t.Fatal("boxes on other pages must not be hit")
	}
	e.PointerDown(1, 0.55, 0.55)
	e.PointerCancel()
	if len(hits) != 1 || hits[0].DraftIdx != 1 {
		t.Fatalf("onHit calls = %v", hits)
	}
}

func TestCancelDragRestores(t *testing.T) {
	e := New()
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.3, 0.3}}}, 0)
	e.PointerDown(1, 0.2, 0.2)
	e.PointerMove(0.6, 0.6)
	e.PointerCancel()
	if got := e.Boxes()[0].BBox; !boxNear(got, geom.Box{0.1, 0.1, 0.3, 0.3}) {
		t.Fatalf("cancel should roll the drag back, got %v", got)
	}
	if e.CanUndo() {
		t.Fatal("cancel must not push history")
	}
}

func TestCancelDrawKeepsSelection(t *testing.T) {
	e := New()
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.3, 0.3}}}, 0)
	e.PointerDown(1, 0.6, 0.6)
	e.PointerMove(0.8, 0.8)
	if e.Selected() != nil {
		t.Fatal("starting a draw should clear the selection")
	}
	e.PointerCancel()
	if e.State() != StateIdle || e.Selected() != e.Boxes()[0] {
		t.Fatalf("cancel should restore the selection, state %v", e.State())
	}
	if len(e.Boxes()) != 1 || e.CanUndo() {
		t.Fatal("cancelled draw must not add a box or history")
	}
}

func TestLoadSkipsExtraState(t *testing.T) {
	restored := 0
	e := New(WithExtraState(
		func(s *history.Snapshot) { s.SelectedDraft = 7 },
		func(history.Snapshot) { restored++ },
	))
	e.Load([]boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.3, 0.3}}}, 0)
	if restored != 0 {
		t.Fatalf("Load restored extra state %d times", restored)
	}
	draw(e, 1, 0.4, 0.4, 0.6, 0.6)
	e.Undo()
	if restored != 1 {
		t.Fatalf("undo restored extra state %d times, want 1", restored)
	}
}

func TestEditIsOneStep(t *testing.T) {
	e := New()
	draw(e, 1, 0.1, 0.1, 0.3, 0.3)
	e.Edit(func(c *boxes.Collection, sel *boxes.PageBox) *boxes.PageBox {
		c.Remove(sel)
		return nil
	})
	if e.HasBoxes() || e.Selected() != nil {
		t.Fatal("expected the selected box to be removed")
	}
	if u, _ := e.HistoryLen(); u != 2 {
		t.Fatalf("undo depth = %d, want 2", u)
	}
	e.Undo()
	if len(e.Boxes()) != 1 || e.Selected() != e.Boxes()[0] {
		t.Fatal("undo should bring the box and its selection back")
	}
}
