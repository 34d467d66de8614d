// Package answerview binds the box editor to the answer-marking screen:
// answer boxes for one question drawn over the pages of its mark scheme.
package answerview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/editor"
	"github.com/example/papermark/internal/notify"
)

var (
	ErrNoQuestion = errors.New("no question is open")
	ErrNoBoxes    = errors.New("no answer boxes to save")
)

// Notifier receives user-facing status messages.
type Notifier interface {
	Status(kind notify.Kind, text string)
}

// Target names the answer being marked.
type Target struct {
	QuestionID int64
	QPPaperID  int64
	MSPaperID  int64
}

// Config wires a View to its collaborators.
type Config struct {
	Client   *api.Client
	Refs     align.RefStore
	Settings *align.Settings
	Notifier Notifier
}

// View holds existing answer boxes and an editor for new ones.
type View struct {
	client   *api.Client
	refs     align.RefStore
	settings *align.Settings
	notifier Notifier

	ed *editor.Editor

	target   Target
	pages    []int
	page     int
	existing []boxes.PageBox
	replace  bool

	// index is the question's position in its question paper, or -1.
	// Only the first question may establish the pair reference.
	index int
}

// New creates a view with nothing open.
func New(cfg Config) *View {
	v := &View{
		index:    -1,
		client:   cfg.Client,
		refs:     cfg.Refs,
		settings: cfg.Settings,
		notifier: cfg.Notifier,
	}
	if v.settings == nil {
		s := align.DefaultSettings()
		v.settings = &s
	}
	if v.refs == nil {
		v.refs = align.NewMemoryStore()
	}
	if v.notifier == nil {
		v.notifier = (*notify.Notifier)(nil)
	}
	v.ed = editor.New(
		editor.WithScope(scope{v}),
		editor.WithAlignAllOnDraw(true),
	)
	return v
}

// scope aligns every new box to the pair reference, else the first new box,
// else the first existing box.
type scope struct{ v *View }

func (s scope) Enabled() bool { return s.v.settings.Answer() }

func (s scope) Members(c boxes.Collection, _ *boxes.PageBox) boxes.Collection { return c }

func (s scope) Reference(c boxes.Collection) (align.Bounds, bool) {
	if b, ok := s.v.pairRef(); ok {
		return b, true
	}
	if len(c) == 0 && len(s.v.existing) > 0 {
		return align.FromBox(s.v.existing[0].BBox)
	}
	return align.Bounds{}, false
}

func (v *View) pairRef() (align.Bounds, bool) {
	if v.target.QPPaperID == 0 || v.target.MSPaperID == 0 {
		return align.Bounds{}, false
	}
	return v.refs.AnswerRef(v.target.QPPaperID, v.target.MSPaperID)
}

func (v *View) setPairRef(b align.Bounds) {
	if err := v.refs.SetAnswerRef(v.target.QPPaperID, v.target.MSPaperID, &b); err != nil {
		log.Printf("save answer align reference: %v", err)
	}
}

// bounds is the alignment the next save or draw would use.
func (v *View) bounds() (align.Bounds, bool) {
	if b, ok := v.pairRef(); ok {
		return b, true
	}
	if bs := v.ed.Boxes(); len(bs) > 0 {
		return align.FromBox(bs[0].BBox)
	}
	if len(v.existing) > 0 {
		return align.FromBox(v.existing[0].BBox)
	}
	return align.Bounds{}, false
}

// Editor exposes the gesture state machine for pointer routing.
func (v *View) Editor() *editor.Editor { return v.ed }

// Target returns the open answer.
func (v *View) Target() Target { return v.target }

// Existing returns the persisted answer boxes.
func (v *View) Existing() []boxes.PageBox { return v.existing }

// ExistingOnPage returns the persisted boxes on the displayed page.
func (v *View) ExistingOnPage() []boxes.PageBox {
	var out []boxes.PageBox
	for _, b := range v.existing {
		if b.Page == v.page {
			out = append(out, b)
		}
	}
	return out
}

// Pages returns the mark-scheme page numbers.
func (v *View) Pages() []int { return v.pages }

// Page returns the displayed mark-scheme page.
func (v *View) Page() int { return v.page }

// ReplaceMode reports whether a save overwrites the existing boxes.
func (v *View) ReplaceMode() bool { return v.replace }

// HasUnsavedBoxes reports whether there are new boxes.
func (v *View) HasUnsavedBoxes() bool { return v.ed.HasBoxes() }

// Selected returns the selected new box.
func (v *View) Selected() *boxes.PageBox { return v.ed.Selected() }

// CanUndo reports whether the unsaved stack has an entry.
func (v *View) CanUndo() bool { return v.ed.CanUndo() }

// CanRedo reports whether the unsaved redo stack has an entry.
func (v *View) CanRedo() bool { return v.ed.CanRedo() }

// Open loads the existing answer of t and shows the page of its last box.
func (v *View) Open(ctx context.Context, t Target) error {
	if t.QuestionID == 0 {
		return ErrNoQuestion
	}
	pages, err := v.client.Papers.Pages(ctx, t.MSPaperID)
	if err != nil {
		return fmt.Errorf("open mark scheme %d: %w", t.MSPaperID, err)
	}
	index, first, err := v.position(ctx, t)
	if err != nil {
		return err
	}
	a, err := v.client.Answers.Get(ctx, t.QuestionID)
	if err != nil {
		return fmt.Errorf("load answer of question %d: %w", t.QuestionID, err)
	}

	v.target = t
	v.index = index
	v.pages = pages
	v.replace = false
	v.existing = nil
	v.ed.Reset()
	if a != nil {
		v.existing = boxes.FromValues(a.Boxes).Plain()
	}

	if v.settings.Answer() {
		if _, ok := v.pairRef(); !ok && index > 0 {
			v.seedPairRef(ctx, first)
		}
		if ref, ok := v.pairRef(); ok {
			for i := range v.existing {
				v.existing[i].BBox = align.Apply(v.existing[i].BBox, ref)
			}
		} else if index == 0 && len(v.existing) > 0 {
			if ref, ok := align.FromBox(v.existing[0].BBox); ok {
				v.setPairRef(ref)
			}
		}
	}

	v.page = 0
	if len(pages) > 0 {
		v.page = pages[0]
	}
	for _, b := range v.existing {
		if b.Page > v.page {
			v.page = b.Page
		}
	}
	return nil
}

// position finds t's question in its question paper, returning its index and
// the id of the paper's first question. Without a question paper the index
// is -1.
func (v *View) position(ctx context.Context, t Target) (int, int64, error) {
	if t.QPPaperID == 0 {
		return -1, 0, nil
	}
	qs, err := v.client.Questions.List(ctx, t.QPPaperID)
	if err != nil {
		return -1, 0, fmt.Errorf("list questions of paper %d: %w", t.QPPaperID, err)
	}
	for i, q := range qs {
		if q.ID == t.QuestionID {
			return i, qs[0].ID, nil
		}
	}
	return -1, 0, fmt.Errorf("question %d is not on paper %d", t.QuestionID, t.QPPaperID)
}

// seedPairRef establishes the pair reference from the first saved answer box
// of the paper's first question.
func (v *View) seedPairRef(ctx context.Context, firstID int64) {
	a, err := v.client.Answers.Get(ctx, firstID)
	if err != nil {
		log.Printf("answer align reference from question %d: %v", firstID, err)
		return
	}
	if a == nil || len(a.Boxes) == 0 {
		return
	}
	if ref, ok := align.FromBox(a.Boxes[0].BBox); ok {
		v.setPairRef(ref)
	}
}

// Index returns the open question's position in its question paper, or -1.
func (v *View) Index() int { return v.index }

// SetPage switches the displayed mark-scheme page.
func (v *View) SetPage(page int) error {
	i := sort.SearchInts(v.pages, page)
	if i >= len(v.pages) || v.pages[i] != page {
		return fmt.Errorf("mark scheme %d has no page %d", v.target.MSPaperID, page)
	}
	v.ed.PointerCancel()
	v.page = page
	return nil
}

// StepPage moves delta pages, stopping at either end.
func (v *View) StepPage(delta int) error {
	if len(v.pages) == 0 {
		return ErrNoQuestion
	}
	i := sort.SearchInts(v.pages, v.page) + delta
	i = max(0, min(i, len(v.pages)-1))
	return v.SetPage(v.pages[i])
}

// SetReplaceMode moves the existing boxes into the editor so a save
// replaces them, or puts them back.
func (v *View) SetReplaceMode(on bool) {
	if on == v.replace {
		return
	}
	v.replace = on
	if on {
		moved := v.existing
		v.existing = nil
		if v.settings.Answer() && len(moved) >= 2 {
			bs := v.boundsFor(moved)
			for i := range moved {
				moved[i].BBox = align.Apply(moved[i].BBox, bs)
			}
		}
		sel := -1
		if len(moved) > 0 {
			sel = 0
		}
		v.ed.Load(moved, sel)
		v.ed.ResetHistory()
		return
	}
	v.existing = append(v.existing, v.ed.Boxes().Plain()...)
	v.ed.Reset()
}

func (v *View) boundsFor(bs []boxes.PageBox) align.Bounds {
	if b, ok := v.pairRef(); ok {
		return b
	}
	b, _ := align.FromBox(bs[0].BBox)
	return b
}

// ClearAnswerBoxes deletes the selected new box, or every new box when none
// is selected. Emptying the editor ends replace mode.
func (v *View) ClearAnswerBoxes() bool {
	if v.ed.Selected() == nil && !v.ed.HasBoxes() {
		return false
	}
	pushed := v.ed.Edit(func(c *boxes.Collection, sel *boxes.PageBox) *boxes.PageBox {
		if sel != nil {
			c.Remove(sel)
		} else {
			*c = nil
		}
		return nil
	})
	if v.replace && !v.ed.HasBoxes() {
		v.replace = false
		v.notifier.Status(notify.KindInfo, "Replace cancelled: every box was deleted")
	}
	return pushed
}

// PasteBoxes adds boxes onto the displayed page as one undoable step.
func (v *View) PasteBoxes(bs []boxes.PageBox) bool {
	if len(bs) == 0 {
		return false
	}
	return v.ed.Edit(func(c *boxes.Collection, _ *boxes.PageBox) *boxes.PageBox {
		var last *boxes.PageBox
		for _, b := range bs {
			last = c.Add(boxes.PageBox{Page: v.page, BBox: b.BBox})
		}
		return last
	})
}

// Undo reverts the last unsaved edit.
func (v *View) Undo() bool { return v.ed.Undo() }

// Redo reapplies the last undone edit.
func (v *View) Redo() bool { return v.ed.Redo() }

// SaveCurrent stores existing boxes (unless replacing) followed by new boxes.
// On success the saved boxes become the existing ones.
func (v *View) SaveCurrent(ctx context.Context) error {
	t := v.target
	if t.QuestionID == 0 {
		return ErrNoQuestion
	}
	var merged []boxes.PageBox
	if !v.replace {
		merged = append(merged, v.existing...)
	}
	merged = append(merged, v.ed.Boxes().Plain()...)
	if len(merged) == 0 {
		return ErrNoBoxes
	}

	if v.settings.Answer() {
		if _, ok := v.pairRef(); !ok && v.index == 0 {
			if ref, ok := align.FromBox(merged[0].BBox); ok {
				v.setPairRef(ref)
			}
		}
		if bs, ok := v.bounds(); ok {
			for i := range merged {
				merged[i].BBox = align.Apply(merged[i].BBox, bs)
			}
		}
	}

	if err := v.client.Answers.Save(ctx, t.QuestionID, t.MSPaperID, merged); err != nil {
		v.notifier.Status(notify.KindErr, fmt.Sprintf("save answer of question %d: %v", t.QuestionID, err))
		return fmt.Errorf("save answer: %w", err)
	}
	v.existing = merged
	v.replace = false
	v.ed.Reset()
	v.notifier.Status(notify.KindOK, fmt.Sprintf("Saved answer of question %d", t.QuestionID))
	return nil
}
