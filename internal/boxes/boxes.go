// Package boxes models the in-progress box collection of a question or answer.
package boxes

import (
	"github.com/example/papermark/internal/geom"
)

// SourceOCR tags boxes that belong to an OCR draft group.
const SourceOCR = "ocr"

// PageBox is one rectangle on one page. Source, DraftIdx and Label are only
// set in OCR-draft mode.
type PageBox struct {
	Page     int      `json:"page"`
	BBox     geom.Box `json:"bbox"`
	Source   string   `json:"source,omitempty"`
	DraftIdx int      `json:"draftIdx,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// IsDraft reports whether b is tagged with an OCR draft group.
func (b *PageBox) IsDraft() bool { return b != nil && b.Source == SourceOCR }

// Plain returns the page and bbox without draft tags, as sent to the backend.
func (b PageBox) Plain() PageBox { return PageBox{Page: b.Page, BBox: b.BBox} }

// DraftGroup is one prospective question in OCR-draft mode.
type DraftGroup struct {
	Label    string   `json:"label"`
	Sections []string `json:"sections"`
}

// Collection is the ordered set of unsaved boxes. Entries are pointers so a
// drag keeps its reference while other entries come and go. Duplicates are
// allowed.
type Collection []*PageBox

// Add appends b and returns the stored pointer.
func (c *Collection) Add(b PageBox) *PageBox {
	p := &b
	*c = append(*c, p)
	return p
}

// IndexOf returns the position of b by identity, or -1.
func (c Collection) IndexOf(b *PageBox) int {
	if b == nil {
		return -1
	}
	for i, p := range c {
		if p == b {
			return i
		}
	}
	return -1
}

// Remove deletes b by identity and reports whether it was present.
func (c *Collection) Remove(b *PageBox) bool {
	i := c.IndexOf(b)
	if i < 0 {
		return false
	}
	*c = append((*c)[:i], (*c)[i+1:]...)
	return true
}

// OnPage returns the boxes on page, oldest first.
func (c Collection) OnPage(page int) Collection {
	var out Collection
	for _, b := range c {
		if b != nil && b.Page == page {
			out = append(out, b)
		}
	}
	return out
}

// Values copies the collection into plain values.
func (c Collection) Values() []PageBox {
	out := make([]PageBox, 0, len(c))
	for _, b := range c {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}

// Plain copies the collection without draft tags.
func (c Collection) Plain() []PageBox {
	out := make([]PageBox, 0, len(c))
	for _, b := range c {
		if b != nil {
			out = append(out, b.Plain())
		}
	}
	return out
}

// FromValues builds a fresh collection from values.
func FromValues(vs []PageBox) Collection {
	out := make(Collection, 0, len(vs))
	for _, v := range vs {
		v := v
		out = append(out, &v)
	}
	return out
}

// Equal compares two box lists entry by entry on page, bbox and draft tags.
func Equal(a, b []PageBox) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CloneGroups deep-copies draft groups.
func CloneGroups(gs []DraftGroup) []DraftGroup {
	if gs == nil {
		return nil
	}
	out := make([]DraftGroup, len(gs))
	for i, g := range gs {
		out[i] = DraftGroup{Label: g.Label, Sections: append([]string(nil), g.Sections...)}
	}
	return out
}
