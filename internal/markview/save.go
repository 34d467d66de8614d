package markview

import (
	"context"
	"fmt"
	"log"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/history"
	"github.com/example/papermark/internal/notify"
)

// EditQuestion loads a persisted question's boxes into the editor. The
// question is written back by SaveCurrent.
func (v *View) EditQuestion(ctx context.Context, id int64) error {
	if v.paperID == 0 {
		return ErrNoPaper
	}
	if v.draftMode {
		return ErrOCRDraftMode
	}
	q, err := v.client.Questions.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load question %d: %w", id, err)
	}
	v.editing = &editState{
		questionID: q.ID,
		before:     persistedOf(q),
	}
	sel := -1
	if len(q.Boxes) > 0 {
		sel = 0
	}
	v.ed.Load(boxes.FromValues(q.Boxes).Plain(), sel)
	v.ed.ResetHistory()
	return nil
}

// CancelEdit leaves edit mode and drops the unsaved boxes.
func (v *View) CancelEdit() {
	if v.editing == nil {
		return
	}
	v.editing = nil
	v.ed.Reset()
}

func persistedOf(q *api.Question) history.Persisted {
	return history.Persisted{
		Sections: append([]string{}, q.Sections...),
		Notes:    q.Notes,
		Boxes:    boxes.FromValues(q.Boxes).Plain(),
	}.Clone()
}

// alignPayload applies the active mark policy to the boxes about to be saved.
func (v *View) alignPayload(bs []boxes.PageBox) []boxes.PageBox {
	switch v.settings.MarkPolicy() {
	case align.PolicyLeft:
		if len(bs) < 2 {
			return bs
		}
		if bounds, ok := align.FromBox(bs[0].BBox); ok {
			applyBounds(bs, bounds)
		}
	case align.PolicyPaperFirst:
		bounds, ok := v.refs.PaperRef(v.paperID)
		if !ok {
			bounds, ok = align.Union(bbox(bs))
		}
		if ok {
			applyBounds(bs, bounds)
		}
	}
	return bs
}

func applyBounds(bs []boxes.PageBox, bounds align.Bounds) {
	for i := range bs {
		bs[i].BBox = align.Apply(bs[i].BBox, bounds)
	}
}

// SaveCurrent writes the unsaved boxes as a new question, or back to the
// question being edited. Empty sections or nil notes keep the edited
// question's values. A successful save pushes a saved-operation record; a
// failed one changes nothing.
func (v *View) SaveCurrent(ctx context.Context, sections []string, notes *string) error {
	if v.paperID == 0 {
		return ErrNoPaper
	}
	if v.draftMode {
		return ErrOCRDraftMode
	}
	if !v.ed.HasBoxes() {
		return ErrNoBoxes
	}
	payload := v.alignPayload(v.ed.Boxes().Plain())
	if sections == nil {
		sections = []string{}
	}

	var rec *history.Record
	if e := v.editing; e != nil {
		if len(sections) == 0 {
			sections = e.before.Sections
		}
		if notes == nil {
			notes = e.before.Notes
		}
		after := history.Persisted{Sections: sections, Notes: notes, Boxes: payload}
		if err := v.applyPersisted(ctx, e.questionID, after); err != nil {
			v.notifier.Status(notify.KindErr, fmt.Sprintf("save question %d: %v", e.questionID, err))
			return err
		}
		rec = history.NewRecord(history.RecordUpdate, v.paperID, e.questionID, &e.before, after)
	} else {
		q, err := v.client.Questions.Create(ctx, v.paperID, api.QuestionInput{
			Sections: sections,
			Status:   api.StatusConfirmed,
			Notes:    notes,
			Boxes:    payload,
		})
		if err != nil {
			v.notifier.Status(notify.KindErr, fmt.Sprintf("save question: %v", err))
			return fmt.Errorf("create question: %w", err)
		}
		rec = history.NewRecord(history.RecordCreate, v.paperID, q.ID, nil,
			history.Persisted{Sections: sections, Notes: notes, Boxes: payload})
		if v.settings.MarkPolicy() == align.PolicyPaperFirst {
			if _, ok := v.refs.PaperRef(v.paperID); !ok {
				v.setPaperRefFrom(payload)
			}
		}
	}
	v.saved.Push(rec)

	v.editing = nil
	v.ed.Reset()
	if err := v.Refresh(ctx); err != nil {
		log.Printf("refresh after save: %v", err)
	}
	v.notifier.Status(notify.KindOK, fmt.Sprintf("Saved question %d", rec.QuestionID))
	return nil
}

// applyPersisted writes sections and notes, then boxes.
func (v *View) applyPersisted(ctx context.Context, id int64, p history.Persisted) error {
	p = p.Clone()
	if p.Sections == nil {
		p.Sections = []string{}
	}
	if err := v.client.Questions.UpdateMeta(ctx, id, p.Sections, p.Notes); err != nil {
		return fmt.Errorf("update question %d: %w", id, err)
	}
	if err := v.client.Questions.SetBoxes(ctx, id, p.Boxes); err != nil {
		return fmt.Errorf("update question %d boxes: %w", id, err)
	}
	return nil
}

// undoSaved reverses the newest saved change. It refuses records of another
// paper and calls made while another round trip is in flight.
func (v *View) undoSaved(ctx context.Context) error {
	rec, ok := v.saved.PeekUndo()
	if !ok {
		return ErrNothingToUndo
	}
	if !v.saved.Begin() {
		return ErrBusy
	}
	defer v.saved.End()
	if rec.PaperID != v.paperID {
		v.notifier.Status(notify.KindInfo, fmt.Sprintf("Open paper %d to undo its saved change", rec.PaperID))
		return ErrCrossPaper
	}

	var err error
	switch rec.Type {
	case history.RecordCreate:
		err = v.client.Questions.Delete(ctx, rec.QuestionID)
	case history.RecordUpdate:
		if rec.Before == nil {
			return fmt.Errorf("undo update of question %d: no previous state", rec.QuestionID)
		}
		err = v.applyPersisted(ctx, rec.QuestionID, *rec.Before)
	default:
		return fmt.Errorf("undo: unknown record type %q", rec.Type)
	}
	if err != nil {
		v.notifier.Status(notify.KindErr, fmt.Sprintf("undo: %v", err))
		return fmt.Errorf("undo question %d: %w", rec.QuestionID, err)
	}

	v.saved.CompleteUndo(rec)
	page, _ := rec.FocusPage()
	v.afterSavedChange(ctx, page)
	v.notifier.Status(notify.KindOK, "Undone")
	return nil
}

// redoSaved replays the newest undone saved change. A redone create gets a
// new question id, which is written back into the record.
func (v *View) redoSaved(ctx context.Context) error {
	rec, ok := v.saved.PeekRedo()
	if !ok {
		return ErrNothingToRedo
	}
	if !v.saved.Begin() {
		return ErrBusy
	}
	defer v.saved.End()
	if rec.PaperID != v.paperID {
		v.notifier.Status(notify.KindInfo, fmt.Sprintf("Open paper %d to redo its saved change", rec.PaperID))
		return ErrCrossPaper
	}

	switch rec.Type {
	case history.RecordCreate:
		after := rec.After.Clone()
		q, err := v.client.Questions.Create(ctx, rec.PaperID, api.QuestionInput{
			Sections: after.Sections,
			Status:   api.StatusConfirmed,
			Notes:    after.Notes,
			Boxes:    after.Boxes,
		})
		if err != nil {
			v.notifier.Status(notify.KindErr, fmt.Sprintf("redo: %v", err))
			return fmt.Errorf("redo create: %w", err)
		}
		rec.QuestionID = q.ID
	case history.RecordUpdate:
		if err := v.applyPersisted(ctx, rec.QuestionID, rec.After); err != nil {
			v.notifier.Status(notify.KindErr, fmt.Sprintf("redo: %v", err))
			return fmt.Errorf("redo question %d: %w", rec.QuestionID, err)
		}
	default:
		return fmt.Errorf("redo: unknown record type %q", rec.Type)
	}

	v.saved.CompleteRedo(rec)
	page, _ := rec.RedoFocusPage()
	v.afterSavedChange(ctx, page)
	v.notifier.Status(notify.KindOK, "Redone")
	return nil
}

// afterSavedChange shows the page a saved undo or redo touched and reloads
// its questions.
func (v *View) afterSavedChange(ctx context.Context, page int) {
	if page != v.page && v.hasPage(page) {
		v.ed.PointerCancel()
		v.page = page
	}
	if err := v.Refresh(ctx); err != nil {
		log.Printf("refresh after saved history change: %v", err)
	}
}
