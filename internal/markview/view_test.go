package markview

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/api/apitest"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/cache"
	"github.com/example/papermark/internal/geom"
	"github.com/example/papermark/internal/notify"
)

type recorder struct{ msgs []notify.Message }

func (r *recorder) Status(kind notify.Kind, text string) {
	r.msgs = append(r.msgs, notify.Message{Kind: kind, Text: text})
}

func (r *recorder) last() notify.Message {
	if len(r.msgs) == 0 {
		return notify.Message{}
	}
	return r.msgs[len(r.msgs)-1]
}

type fixture struct {
	srv   *apitest.Server
	view  *View
	refs  *align.FileStore
	notes *recorder
	set   *align.Settings
}

func newFixture(t *testing.T, settings align.Settings) *fixture {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddPaper(1, 1, 2, 3)
	srv.AddPaper(2, 1)

	f := &fixture{srv: srv, refs: align.NewMemoryStore(), notes: &recorder{}, set: &settings}
	f.view = New(Config{
		Client:   srv.Client(),
		Refs:     f.refs,
		Settings: f.set,
		Drafts:   cache.New[int64, Stash](4),
		Notifier: f.notes,
	})
	require.NoError(t, f.view.Open(context.Background(), 1))
	return f
}

func draw(v *View, x0, y0, x1, y1 float64) {
	ed := v.Editor()
	ed.PointerDown(v.Page(), x0, y0)
	ed.PointerMove(x1, y1)
	ed.PointerUp(x1, y1)
}

func TestSaveCreateThenUndoRedo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	require.True(t, v.HasUnsavedBoxes())
	require.NoError(t, v.SaveCurrent(ctx, []string{"1a"}, nil))
	require.False(t, v.HasUnsavedBoxes())
	require.Equal(t, 1, f.srv.Count())
	require.Len(t, v.Questions(), 1)

	rec, ok := v.saved.PeekUndo()
	require.True(t, ok)
	firstID := rec.QuestionID
	require.Equal(t, int64(1), firstID)

	require.NoError(t, v.Undo(ctx))
	require.Equal(t, 0, f.srv.Count())
	undo, redo := v.SavedLen()
	require.Equal(t, 0, undo)
	require.Equal(t, 1, redo)

	require.NoError(t, v.Redo(ctx))
	require.Equal(t, 1, f.srv.Count())
	require.NotEqual(t, firstID, rec.QuestionID)
	q, ok := f.srv.Question(rec.QuestionID)
	require.True(t, ok)
	require.Equal(t, []string{"1a"}, q.Sections)
	require.Equal(t, geom.Box{0.1, 0.1, 0.5, 0.2}, q.Boxes[0].BBox)
}

func TestUnsavedUndoComesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	require.NoError(t, v.SaveCurrent(ctx, nil, nil))
	draw(v, 0.1, 0.3, 0.5, 0.4)

	require.NoError(t, v.Undo(ctx))
	require.False(t, v.HasUnsavedBoxes())
	require.Equal(t, 1, f.srv.Count(), "saved question survives the unsaved undo")

	require.NoError(t, v.Undo(ctx))
	require.Equal(t, 0, f.srv.Count())
	require.ErrorIs(t, v.Undo(ctx), ErrNothingToUndo)
}

func TestCrossPaperGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	require.NoError(t, v.SaveCurrent(ctx, nil, nil))
	require.NoError(t, v.Open(ctx, 2))

	require.ErrorIs(t, v.Undo(ctx), ErrCrossPaper)
	undo, redo := v.SavedLen()
	require.Equal(t, 1, undo)
	require.Equal(t, 0, redo)
	require.Equal(t, 1, f.srv.Count())
	require.Equal(t, notify.KindInfo, f.notes.last().Kind)

	require.NoError(t, v.Open(ctx, 1))
	require.NoError(t, v.Undo(ctx))
	require.Equal(t, 0, f.srv.Count())
}

func TestBusyGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	require.NoError(t, v.SaveCurrent(ctx, nil, nil))

	require.True(t, v.saved.Begin())
	require.ErrorIs(t, v.Undo(ctx), ErrBusy)
	v.saved.End()

	undo, _ := v.SavedLen()
	require.Equal(t, 1, undo)
	require.Equal(t, 1, f.srv.Count())
}

func TestFailedSaveChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	f.srv.FailNext(http.MethodPost, "/papers/{paper}/questions", http.StatusInternalServerError)

	require.Error(t, v.SaveCurrent(ctx, nil, nil))
	undo, _ := v.SavedLen()
	require.Equal(t, 0, undo)
	require.True(t, v.HasUnsavedBoxes())
	require.True(t, v.Editor().CanUndo())
	require.Equal(t, notify.KindErr, f.notes.last().Kind)
}

func TestFailedUndoKeepsRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	require.NoError(t, v.SaveCurrent(ctx, nil, nil))
	f.srv.FailNext(http.MethodDelete, "/questions/{id}", http.StatusBadGateway)

	require.Error(t, v.Undo(ctx))
	undo, redo := v.SavedLen()
	require.Equal(t, 1, undo)
	require.Equal(t, 0, redo)
	require.False(t, v.saved.Busy())
}

func TestEditUpdateUndoRestoresBefore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	notes := "original"
	id := f.srv.Seed(1, api.Question{
		Sections: []string{"2"},
		Notes:    &notes,
		Boxes:    []boxes.PageBox{{Page: 2, BBox: geom.Box{0.1, 0.1, 0.4, 0.2}}},
	})

	require.NoError(t, v.EditQuestion(ctx, id))
	got, editing := v.Editing()
	require.True(t, editing)
	require.Equal(t, id, got)
	require.NotNil(t, v.Selected())
	require.Empty(t, v.PersistedOnPage())

	v.Editor().Edit(func(c *boxes.Collection, sel *boxes.PageBox) *boxes.PageBox {
		(*c)[0].BBox = geom.Box{0.2, 0.1, 0.6, 0.3}
		return sel
	})
	require.NoError(t, v.SaveCurrent(ctx, []string{"2b"}, nil))
	_, editing = v.Editing()
	require.False(t, editing)

	q, _ := f.srv.Question(id)
	require.Equal(t, []string{"2b"}, q.Sections)
	require.Equal(t, "original", *q.Notes)
	require.Equal(t, geom.Box{0.2, 0.1, 0.6, 0.3}, q.Boxes[0].BBox)

	require.NoError(t, v.Undo(ctx))
	q, _ = f.srv.Question(id)
	require.Equal(t, []string{"2"}, q.Sections)
	require.Equal(t, geom.Box{0.1, 0.1, 0.4, 0.2}, q.Boxes[0].BBox)
	require.Equal(t, 2, v.Page(), "undo focuses the page of the restored boxes")

	require.NoError(t, v.Redo(ctx))
	q, _ = f.srv.Question(id)
	require.Equal(t, []string{"2b"}, q.Sections)
}

func TestSaveAlignsPayloadToFirstBox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.NewSettings(false, false, true))
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	draw(v, 0.3, 0.3, 0.7, 0.4)
	f.set.SetLeft(true)
	require.NoError(t, v.SaveCurrent(ctx, nil, nil))

	q, _ := f.srv.Question(1)
	require.Equal(t, geom.Box{0.1, 0.3, 0.5, 0.4}, q.Boxes[1].BBox)
}

func TestPaperReferenceEstablishedOnFirstSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.NewSettings(false, true, true))
	v := f.view

	draw(v, 0.2, 0.1, 0.6, 0.2)
	require.NoError(t, v.SaveCurrent(ctx, nil, nil))
	ref, ok := f.refs.PaperRef(1)
	require.True(t, ok)
	require.Equal(t, align.Bounds{0.2, 0.6}, ref)

	draw(v, 0.1, 0.5, 0.3, 0.6)
	b := v.Editor().Boxes()[0].BBox
	require.Equal(t, 0.2, b[0])
	require.Equal(t, 0.6, b[2])
}

func TestOpenEstablishesPaperReferenceFromLowestID(t *testing.T) {
	ctx := context.Background()
	settings := align.NewSettings(false, true, true)
	srv := apitest.New()
	defer srv.Close()
	srv.AddPaper(5, 1)
	srv.Seed(5, api.Question{Boxes: []boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.3, 0.2}}, {Page: 1, BBox: geom.Box{0.2, 0.3, 0.7, 0.4}}}})
	srv.Seed(5, api.Question{Boxes: []boxes.PageBox{{Page: 1, BBox: geom.Box{0, 0.5, 1, 0.6}}}})

	refs := align.NewMemoryStore()
	v := New(Config{Client: srv.Client(), Refs: refs, Settings: &settings})
	require.NoError(t, v.Open(ctx, 5))

	ref, ok := refs.PaperRef(5)
	require.True(t, ok)
	require.Equal(t, align.Bounds{0.1, 0.7}, ref)
}

func TestEditRefusedInDraftMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view
	id := f.srv.Seed(1, api.Question{Boxes: []boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.2, 0.2}}}})

	require.NoError(t, v.LoadDrafts([]boxes.DraftGroup{{Label: "1"}}, nil))
	require.ErrorIs(t, v.EditQuestion(ctx, id), ErrOCRDraftMode)
	require.ErrorIs(t, v.SaveCurrent(ctx, nil, nil), ErrOCRDraftMode)
}

func TestDeletingLastBoxEndsEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view
	id := f.srv.Seed(1, api.Question{Boxes: []boxes.PageBox{{Page: 1, BBox: geom.Box{0.1, 0.1, 0.2, 0.2}}}})

	require.NoError(t, v.EditQuestion(ctx, id))
	require.True(t, v.DeleteSelected())
	_, editing := v.Editing()
	require.False(t, editing)
	require.Equal(t, notify.KindInfo, f.notes.last().Kind)
}

func TestClearBoxesWithoutSelectionClearsAll(t *testing.T) {
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	draw(v, 0.1, 0.1, 0.5, 0.2)
	draw(v, 0.1, 0.3, 0.5, 0.4)
	v.Editor().Select(nil)

	require.True(t, v.ClearBoxes())
	require.False(t, v.HasUnsavedBoxes())
	require.NoError(t, v.Undo(context.Background()))
	require.Len(t, v.Editor().Boxes(), 2)
}

func TestStepPageStopsAtEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, align.DefaultSettings())
	v := f.view

	require.Equal(t, 1, v.Page())
	require.NoError(t, v.StepPage(ctx, -1))
	require.Equal(t, 1, v.Page())
	require.NoError(t, v.StepPage(ctx, 5))
	require.Equal(t, 3, v.Page())
	require.Error(t, v.SetPage(ctx, 9))
}
