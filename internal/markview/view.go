// Package markview binds the box editor to the question-marking screen: the
// boxes of one question over the pages of a source paper, OCR draft groups,
// saving to the backend and undoing saved changes.
package markview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/cache"
	"github.com/example/papermark/internal/editor"
	"github.com/example/papermark/internal/geom"
	"github.com/example/papermark/internal/history"
	"github.com/example/papermark/internal/notify"
)

var (
	ErrNoPaper       = errors.New("no paper is open")
	ErrNoBoxes       = errors.New("no boxes to save")
	ErrCrossPaper    = errors.New("saved change belongs to another paper")
	ErrBusy          = errors.New("a saved undo or redo is in progress")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrOCRDraftMode  = errors.New("not available in OCR draft mode")
)

// DefaultStashSize bounds how many papers keep an unsaved OCR draft.
const DefaultStashSize = 32

// Notifier receives user-facing status messages.
type Notifier interface {
	Status(kind notify.Kind, text string)
}

// Stash is the unsaved OCR draft state of one paper.
type Stash struct {
	Groups   []boxes.DraftGroup
	Boxes    []boxes.PageBox
	Selected int
}

// Config wires a View to its collaborators. Client and Refs are required.
type Config struct {
	Client   *api.Client
	Refs     align.RefStore
	Settings *align.Settings
	Drafts   *cache.Cache[int64, Stash]
	Notifier Notifier
}

type editState struct {
	questionID int64
	before     history.Persisted
}

// View is the mark screen state. It is not safe for concurrent use; the
// saved-operation stack guards its own round trips.
type View struct {
	client   *api.Client
	refs     align.RefStore
	settings *align.Settings
	stash    *cache.Cache[int64, Stash]
	notifier Notifier

	ed    *editor.Editor
	saved *history.SavedStack

	paperID   int64
	pages     []int
	page      int
	questions []api.Question

	editing     *editState
	draftMode   bool
	drafts      []boxes.DraftGroup
	activeDraft int
}

// New creates a view with no paper open.
func New(cfg Config) *View {
	v := &View{
		client:   cfg.Client,
		refs:     cfg.Refs,
		settings: cfg.Settings,
		stash:    cfg.Drafts,
		notifier: cfg.Notifier,
		saved:    history.NewSavedStack(history.SavedCapacity),
	}
	if v.settings == nil {
		s := align.DefaultSettings()
		v.settings = &s
	}
	if v.refs == nil {
		v.refs = align.NewMemoryStore()
	}
	if v.stash == nil {
		v.stash = cache.New[int64, Stash](DefaultStashSize)
	}
	if v.notifier == nil {
		v.notifier = (*notify.Notifier)(nil)
	}
	v.ed = editor.New(
		editor.WithScope(scope{v}),
		editor.WithHitPriority(v.inActiveDraft),
		editor.WithOnHit(v.activateDraftOf),
		editor.WithTagger(v.tagDraft),
		editor.WithExtraState(v.saveDraftState, v.restoreDraftState),
		editor.WithOnCommit(v.stashDrafts),
	)
	return v
}

// Editor exposes the gesture state machine for pointer routing.
func (v *View) Editor() *editor.Editor { return v.ed }

// PaperID returns the open paper or zero.
func (v *View) PaperID() int64 { return v.paperID }

// Pages returns the page numbers of the open paper.
func (v *View) Pages() []int { return v.pages }

// Page returns the displayed page number.
func (v *View) Page() int { return v.page }

// Questions returns the persisted questions with a box on the current page.
func (v *View) Questions() []api.Question { return v.questions }

// Settings returns the live alignment switches.
func (v *View) Settings() *align.Settings { return v.settings }

// HasUnsavedBoxes reports whether the collection is non-empty.
func (v *View) HasUnsavedBoxes() bool { return v.ed.HasBoxes() }

// Selected returns the selected unsaved box.
func (v *View) Selected() *boxes.PageBox { return v.ed.Selected() }

// Editing returns the id of the question being edited.
func (v *View) Editing() (int64, bool) {
	if v.editing == nil {
		return 0, false
	}
	return v.editing.questionID, true
}

// DraftMode reports whether OCR draft groups are being edited.
func (v *View) DraftMode() bool { return v.draftMode }

// CanUndo reports whether Undo has anything to do.
func (v *View) CanUndo() bool {
	if v.ed.CanUndo() {
		return true
	}
	_, ok := v.saved.PeekUndo()
	return ok
}

// CanRedo reports whether Redo has anything to do.
func (v *View) CanRedo() bool {
	if v.ed.CanRedo() {
		return true
	}
	_, ok := v.saved.PeekRedo()
	return ok
}

// SavedLen returns the saved-operation undo and redo depths.
func (v *View) SavedLen() (undo, redo int) { return v.saved.Len() }

// Open binds the view to paperID and loads its first page.
func (v *View) Open(ctx context.Context, paperID int64) error {
	if paperID == 0 {
		return ErrNoPaper
	}
	pages, err := v.client.Papers.Pages(ctx, paperID)
	if err != nil {
		return fmt.Errorf("open paper %d: %w", paperID, err)
	}
	if paperID != v.paperID {
		v.paperID = paperID
		v.editing = nil
		v.leaveDraftMode()
		v.ed.Reset()
		if s, ok := v.stash.Get(paperID); ok {
			v.enterDraftMode(s.Groups, s.Boxes, s.Selected)
		}
		v.page = 0
	}
	v.pages = pages
	if !v.hasPage(v.page) {
		v.page = 0
		if len(pages) > 0 {
			v.page = pages[0]
		}
	}
	v.ensurePaperRef(ctx)
	return v.Refresh(ctx)
}

func (v *View) hasPage(p int) bool {
	for _, n := range v.pages {
		if n == p {
			return true
		}
	}
	return false
}

// SetPage switches the displayed page. Unsaved boxes on other pages stay.
func (v *View) SetPage(ctx context.Context, page int) error {
	if v.paperID == 0 {
		return ErrNoPaper
	}
	if !v.hasPage(page) {
		return fmt.Errorf("paper %d has no page %d", v.paperID, page)
	}
	v.ed.PointerCancel()
	v.page = page
	return v.Refresh(ctx)
}

// StepPage moves delta pages forward or back, stopping at either end.
func (v *View) StepPage(ctx context.Context, delta int) error {
	if len(v.pages) == 0 {
		return ErrNoPaper
	}
	i := sort.SearchInts(v.pages, v.page) + delta
	if i < 0 {
		i = 0
	}
	if i >= len(v.pages) {
		i = len(v.pages) - 1
	}
	if v.pages[i] == v.page {
		return nil
	}
	return v.SetPage(ctx, v.pages[i])
}

// Refresh reloads the persisted questions of the current page.
func (v *View) Refresh(ctx context.Context) error {
	if v.paperID == 0 {
		return ErrNoPaper
	}
	qs, err := v.client.Questions.ListPage(ctx, v.paperID, v.page)
	if err != nil {
		return fmt.Errorf("load page %d questions: %w", v.page, err)
	}
	v.questions = qs
	return nil
}

// PersistedOnPage returns the persisted boxes to draw on the current page,
// paired with their question status. It is empty while editing or in OCR
// draft mode.
func (v *View) PersistedOnPage() []PersistedBox {
	if v.editing != nil || v.draftMode {
		return nil
	}
	var out []PersistedBox
	for _, q := range v.questions {
		for _, b := range q.Boxes {
			if b.Page == v.page {
				out = append(out, PersistedBox{QuestionID: q.ID, Status: q.Status, Box: b})
			}
		}
	}
	return out
}

// PersistedBox is one saved box shown under the editor.
type PersistedBox struct {
	QuestionID int64
	Status     string
	Box        boxes.PageBox
}

// ensurePaperRef establishes the per-paper reference from the lowest-id
// question when per-paper alignment is on and none exists yet.
func (v *View) ensurePaperRef(ctx context.Context) {
	if v.settings.MarkPolicy() != align.PolicyPaperFirst {
		return
	}
	if _, ok := v.refs.PaperRef(v.paperID); ok {
		return
	}
	qs, err := v.client.Questions.List(ctx, v.paperID)
	if err != nil {
		log.Printf("paper %d align reference: %v", v.paperID, err)
		return
	}
	var first *api.Question
	for i := range qs {
		if first == nil || qs[i].ID < first.ID {
			first = &qs[i]
		}
	}
	if first == nil {
		return
	}
	v.setPaperRefFrom(first.Boxes)
}

func (v *View) setPaperRefFrom(bs []boxes.PageBox) (align.Bounds, bool) {
	bounds, ok := align.Union(bbox(bs))
	if !ok {
		return align.Bounds{}, false
	}
	if err := v.refs.SetPaperRef(v.paperID, &bounds); err != nil {
		log.Printf("save paper %d align reference: %v", v.paperID, err)
	}
	return bounds, true
}

// DeleteSelected removes the selected unsaved box as one undoable step.
func (v *View) DeleteSelected() bool {
	sel := v.ed.Selected()
	if sel == nil {
		return false
	}
	groupIdx := -1
	if v.draftMode && sel.IsDraft() {
		groupIdx = sel.DraftIdx
	}
	pushed := v.ed.Edit(func(c *boxes.Collection, selected *boxes.PageBox) *boxes.PageBox {
		c.Remove(selected)
		if groupIdx >= 0 {
			v.dropEmptyGroup(c, groupIdx)
		}
		return nil
	})
	if v.editing != nil && !v.ed.HasBoxes() {
		v.editing = nil
		v.ed.ResetHistory()
		v.notifier.Status(notify.KindInfo, "Edit cancelled: every box was deleted")
	}
	return pushed
}

// ClearBoxes deletes the selected box, or every unsaved box and draft group
// when nothing is selected.
func (v *View) ClearBoxes() bool {
	if v.ed.Selected() != nil {
		return v.DeleteSelected()
	}
	if !v.ed.HasBoxes() {
		v.notifier.Status(notify.KindInfo, "No boxes to clear")
		return false
	}
	drafts := v.draftMode
	pushed := v.ed.Edit(func(c *boxes.Collection, _ *boxes.PageBox) *boxes.PageBox {
		*c = nil
		if drafts {
			v.drafts = nil
			v.activeDraft = 0
		}
		return nil
	})
	if drafts {
		v.stash.Remove(v.paperID)
	}
	v.notifier.Status(notify.KindOK, "Cleared")
	return pushed
}

// PasteBoxes adds boxes onto the current page as one undoable step.
func (v *View) PasteBoxes(bs []boxes.PageBox) bool {
	if len(bs) == 0 {
		return false
	}
	return v.ed.Edit(func(c *boxes.Collection, selected *boxes.PageBox) *boxes.PageBox {
		var last *boxes.PageBox
		for _, b := range bs {
			nb := boxes.PageBox{Page: v.page, BBox: b.BBox}
			v.tagDraft(&nb)
			last = c.Add(nb)
		}
		return last
	})
}

// Undo reverts the last unsaved edit, or the last saved change when there
// are no unsaved edits.
func (v *View) Undo(ctx context.Context) error {
	if v.ed.Undo() {
		v.stashDrafts()
		return nil
	}
	return v.undoSaved(ctx)
}

// Redo reapplies the last undone unsaved edit, or the last undone saved
// change.
func (v *View) Redo(ctx context.Context) error {
	if v.ed.Redo() {
		v.stashDrafts()
		return nil
	}
	return v.redoSaved(ctx)
}

func bbox(bs []boxes.PageBox) []geom.Box {
	out := make([]geom.Box, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.BBox)
	}
	return out
}
