package viewer

import (
	"context"
	"fmt"

	"github.com/example/papermark/internal/answerview"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/editor"
	"github.com/example/papermark/internal/markview"
	"github.com/example/papermark/internal/render"
)

// Adapter is the screen a window edits: the mark view or the answer view.
type Adapter interface {
	Editor() *editor.Editor
	// Paper and Page name the displayed page image.
	Paper() int64
	Page() int
	Title() string
	Status() string
	StepPage(ctx context.Context, delta int) error
	// Scene returns the persisted layer and mode flags for the current page.
	Scene() render.Scene
	Save(ctx context.Context) error
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
	Clear() bool
	Paste(bs []boxes.PageBox) bool
}

// Mark adapts a markview.View.
type Mark struct{ View *markview.View }

var _ Adapter = Mark{}

func (m Mark) Editor() *editor.Editor { return m.View.Editor() }
func (m Mark) Paper() int64           { return m.View.PaperID() }
func (m Mark) Page() int              { return m.View.Page() }

func (m Mark) Title() string { return fmt.Sprintf("papermark: paper %d", m.View.PaperID()) }

func (m Mark) Status() string {
	s := fmt.Sprintf("paper %d  page %d/%d  unsaved %d", m.View.PaperID(), m.View.Page(), len(m.View.Pages()), len(m.View.Editor().Boxes()))
	if id, ok := m.View.Editing(); ok {
		s += fmt.Sprintf("  editing Q%d", id)
	}
	if m.View.DraftMode() {
		groups, active := m.View.Drafts()
		s += fmt.Sprintf("  OCR draft %d/%d", active+1, len(groups))
	}
	return s
}

func (m Mark) StepPage(ctx context.Context, delta int) error { return m.View.StepPage(ctx, delta) }

func (m Mark) Scene() render.Scene {
	var sc render.Scene
	for _, p := range m.View.PersistedOnPage() {
		sc.Persisted = append(sc.Persisted, render.Persisted{Box: p.Box.BBox, Status: p.Status})
	}
	_, editing := m.View.Editing()
	sc.HidePersisted = editing || m.View.DraftMode()
	sc.DraftMode = m.View.DraftMode()
	_, sc.ActiveDraft = m.View.Drafts()
	return sc
}

// Save writes OCR drafts in draft mode, else the current question keeping
// the edited question's sections and notes.
func (m Mark) Save(ctx context.Context) error {
	if m.View.DraftMode() {
		return m.View.SaveDrafts(ctx)
	}
	return m.View.SaveCurrent(ctx, nil, nil)
}

func (m Mark) Undo(ctx context.Context) error { return m.View.Undo(ctx) }
func (m Mark) Redo(ctx context.Context) error { return m.View.Redo(ctx) }
func (m Mark) Clear() bool                    { return m.View.ClearBoxes() }
func (m Mark) Paste(bs []boxes.PageBox) bool  { return m.View.PasteBoxes(bs) }

// Answer adapts an answerview.View.
type Answer struct{ View *answerview.View }

var _ Adapter = Answer{}

func (a Answer) Editor() *editor.Editor { return a.View.Editor() }
func (a Answer) Paper() int64           { return a.View.Target().MSPaperID }
func (a Answer) Page() int              { return a.View.Page() }

func (a Answer) Title() string {
	return fmt.Sprintf("papermark: answer of question %d", a.View.Target().QuestionID)
}

func (a Answer) Status() string {
	t := a.View.Target()
	s := fmt.Sprintf("question %d  mark scheme %d  page %d/%d  existing %d  new %d",
		t.QuestionID, t.MSPaperID, a.View.Page(), len(a.View.Pages()), len(a.View.Existing()), len(a.View.Editor().Boxes()))
	if a.View.ReplaceMode() {
		s += "  replace"
	}
	return s
}

func (a Answer) StepPage(_ context.Context, delta int) error { return a.View.StepPage(delta) }

func (a Answer) Scene() render.Scene {
	var sc render.Scene
	for _, b := range a.View.ExistingOnPage() {
		sc.Persisted = append(sc.Persisted, render.Persisted{Box: b.BBox})
	}
	return sc
}

func (a Answer) Save(ctx context.Context) error { return a.View.SaveCurrent(ctx) }

func (a Answer) Undo(context.Context) error {
	if !a.View.Undo() {
		return markview.ErrNothingToUndo
	}
	return nil
}

func (a Answer) Redo(context.Context) error {
	if !a.View.Redo() {
		return markview.ErrNothingToRedo
	}
	return nil
}

func (a Answer) Clear() bool                   { return a.View.ClearAnswerBoxes() }
func (a Answer) Paste(bs []boxes.PageBox) bool { return a.View.PasteBoxes(bs) }
