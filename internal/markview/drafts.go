package markview

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/example/papermark/internal/align"
	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/history"
	"github.com/example/papermark/internal/notify"
)

// scope implements editor.Scope for the mark screen.
type scope struct{ v *View }

func (s scope) Enabled() bool { return s.v.settings.MarkPolicy() != align.PolicyNone }

// Members is the active draft group under per-question alignment in OCR
// draft mode, else the whole collection.
func (s scope) Members(c boxes.Collection, b *boxes.PageBox) boxes.Collection {
	v := s.v
	if !v.draftMode || v.settings.MarkPolicy() != align.PolicyLeft {
		return c
	}
	idx := v.activeDraft
	if b.IsDraft() {
		idx = b.DraftIdx
	}
	var out boxes.Collection
	for _, m := range c {
		if m.IsDraft() && m.DraftIdx == idx {
			out = append(out, m)
		}
	}
	return out
}

func (s scope) Reference(boxes.Collection) (align.Bounds, bool) {
	v := s.v
	if v.paperID == 0 || v.settings.MarkPolicy() != align.PolicyPaperFirst {
		return align.Bounds{}, false
	}
	return v.refs.PaperRef(v.paperID)
}

func (v *View) inActiveDraft(b *boxes.PageBox) bool {
	return v.draftMode && b.IsDraft() && b.DraftIdx == v.activeDraft
}

func (v *View) activateDraftOf(b *boxes.PageBox) {
	if !v.draftMode || !b.IsDraft() || len(v.drafts) == 0 {
		return
	}
	v.activeDraft = clampIndex(b.DraftIdx, len(v.drafts))
}

func (v *View) tagDraft(b *boxes.PageBox) {
	if !v.draftMode || len(v.drafts) == 0 {
		return
	}
	b.Source = boxes.SourceOCR
	b.DraftIdx = v.activeDraft
	b.Label = v.drafts[v.activeDraft].Label
}

func (v *View) saveDraftState(s *history.Snapshot) {
	s.Drafts = boxes.CloneGroups(v.drafts)
	s.SelectedDraft = v.activeDraft
}

func (v *View) restoreDraftState(s history.Snapshot) {
	if !v.draftMode {
		return
	}
	v.drafts = boxes.CloneGroups(s.Drafts)
	v.activeDraft = clampIndex(s.SelectedDraft, len(v.drafts))
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// LoadDrafts enters OCR draft mode with externally recognised groups. Each
// box is tagged with its group's label; boxes pointing at no group are
// dropped. Unsaved history is reset.
func (v *View) LoadDrafts(groups []boxes.DraftGroup, bs []boxes.PageBox) error {
	if v.paperID == 0 {
		return ErrNoPaper
	}
	if v.editing != nil {
		return fmt.Errorf("finish editing question %d first", v.editing.questionID)
	}
	v.enterDraftMode(groups, bs, 0)
	v.ed.ResetHistory()
	v.stashDrafts()
	return nil
}

func (v *View) enterDraftMode(groups []boxes.DraftGroup, bs []boxes.PageBox, selected int) {
	v.draftMode = true
	v.drafts = boxes.CloneGroups(groups)
	if v.drafts == nil {
		v.drafts = []boxes.DraftGroup{}
	}
	for i := range v.drafts {
		if v.drafts[i].Label == "" {
			v.drafts[i].Label = "?"
		}
	}
	v.activeDraft = clampIndex(selected, len(v.drafts))
	tagged := make([]boxes.PageBox, 0, len(bs))
	for _, b := range bs {
		if b.DraftIdx < 0 || b.DraftIdx >= len(v.drafts) || !b.BBox.Valid() {
			continue
		}
		b.Source = boxes.SourceOCR
		b.Label = v.drafts[b.DraftIdx].Label
		tagged = append(tagged, b)
	}
	sel := -1
	if len(tagged) > 0 {
		sel = 0
	}
	v.ed.Load(tagged, sel)
}

func (v *View) leaveDraftMode() {
	v.draftMode = false
	v.drafts = nil
	v.activeDraft = 0
}

// Drafts returns the draft groups and the active index.
func (v *View) Drafts() ([]boxes.DraftGroup, int) { return v.drafts, v.activeDraft }

// AddDraft appends an empty group and makes it active.
func (v *View) AddDraft() error {
	if !v.draftMode {
		return fmt.Errorf("add draft: not in OCR draft mode")
	}
	v.drafts = append(v.drafts, boxes.DraftGroup{Label: strconv.Itoa(len(v.drafts) + 1), Sections: []string{}})
	v.activeDraft = len(v.drafts) - 1
	v.stashDrafts()
	return nil
}

// SelectDraft makes group i active and selects its first box, returning the
// page that box is on.
func (v *View) SelectDraft(i int) (int, bool) {
	if !v.draftMode || i < 0 || i >= len(v.drafts) {
		return 0, false
	}
	v.activeDraft = i
	v.stashDrafts()
	for _, b := range v.ed.Boxes() {
		if b.IsDraft() && b.DraftIdx == i {
			v.ed.Select(b)
			return b.Page, true
		}
	}
	return 0, false
}

// dropEmptyGroup removes group idx when no box refers to it any more and
// shifts later groups down.
func (v *View) dropEmptyGroup(c *boxes.Collection, idx int) {
	for _, b := range *c {
		if b.IsDraft() && b.DraftIdx == idx {
			return
		}
	}
	if idx >= len(v.drafts) {
		return
	}
	v.drafts = append(v.drafts[:idx], v.drafts[idx+1:]...)
	for _, b := range *c {
		if b.IsDraft() && b.DraftIdx > idx {
			b.DraftIdx--
		}
	}
	if v.activeDraft >= idx {
		v.activeDraft = clampIndex(v.activeDraft-1, len(v.drafts))
	}
}

// stashDrafts keeps the draft state of the open paper in the bounded cache.
func (v *View) stashDrafts() {
	if v.paperID == 0 {
		return
	}
	if !v.draftMode {
		v.stash.Remove(v.paperID)
		return
	}
	v.stash.Put(v.paperID, Stash{
		Groups:   boxes.CloneGroups(v.drafts),
		Boxes:    v.ed.Boxes().Values(),
		Selected: v.activeDraft,
	})
}

// SaveDrafts creates one question per non-empty draft group. Boxes are
// sorted by page then top edge and, under per-paper alignment, aligned to
// the paper reference, which group 0 establishes when missing.
func (v *View) SaveDrafts(ctx context.Context) error {
	if v.paperID == 0 {
		return ErrNoPaper
	}
	if !v.draftMode {
		return fmt.Errorf("save drafts: not in OCR draft mode")
	}
	byGroup := map[int][]boxes.PageBox{}
	for _, b := range v.ed.Boxes() {
		if !b.IsDraft() {
			continue
		}
		if b.DraftIdx >= len(v.drafts) {
			return fmt.Errorf("save drafts: box on page %d refers to missing group %d", b.Page, b.DraftIdx)
		}
		byGroup[b.DraftIdx] = append(byGroup[b.DraftIdx], b.Plain())
	}

	var bounds align.Bounds
	paperFirst := v.settings.MarkPolicy() == align.PolicyPaperFirst
	if paperFirst {
		var ok bool
		if bounds, ok = v.refs.PaperRef(v.paperID); !ok {
			if bounds, ok = v.setPaperRefFrom(byGroup[0]); !ok {
				paperFirst = false
			}
		}
	}

	saved := 0
	for i, g := range v.drafts {
		bs := byGroup[i]
		if len(bs) == 0 {
			continue
		}
		sort.SliceStable(bs, func(a, b int) bool {
			if bs[a].Page != bs[b].Page {
				return bs[a].Page < bs[b].Page
			}
			return bs[a].BBox[1] < bs[b].BBox[1]
		})
		if paperFirst {
			for j := range bs {
				bs[j].BBox = align.Apply(bs[j].BBox, bounds)
			}
		}
		_, err := v.client.Questions.Create(ctx, v.paperID, api.QuestionInput{
			Sections: append([]string{}, g.Sections...),
			Status:   api.StatusConfirmed,
			Boxes:    bs,
		})
		if err != nil {
			v.notifier.Status(notify.KindErr, fmt.Sprintf("save draft %s: %v", g.Label, err))
			return fmt.Errorf("save draft %s: %w", g.Label, err)
		}
		saved++
	}

	v.leaveDraftMode()
	v.ed.Reset()
	v.stash.Remove(v.paperID)
	if err := v.Refresh(ctx); err != nil {
		log.Printf("refresh after draft save: %v", err)
	}
	v.notifier.Status(notify.KindOK, fmt.Sprintf("Saved %d draft questions", saved))
	return nil
}
