// Package render draws box overlays on page images and builds cropped
// previews of questions.
package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
	"github.com/example/papermark/internal/theme"
)

const (
	// LineWidth is the stroke width of every box outline.
	LineWidth = 2
	// HandleHalf is half the side of a selection handle square.
	HandleHalf = 6
	dashOn     = 6
	dashOff    = 4
	labelPad   = 4
	labelH     = 14
)

// StatusDraft marks a persisted question that still needs review.
const StatusDraft = "draft"

// Persisted is one saved box drawn beneath the unsaved ones.
type Persisted struct {
	Box    geom.Box
	Status string
}

// Scene is everything drawn over one page.
type Scene struct {
	// Persisted boxes on this page.
	Persisted []Persisted
	// HidePersisted suppresses layer one while editing or in OCR draft mode.
	HidePersisted bool
	// Boxes are the unsaved boxes on this page.
	Boxes []*boxes.PageBox
	// Selected receives the eight handles when it is among Boxes.
	Selected *boxes.PageBox
	// DraftMode hides untagged boxes and dims groups other than ActiveDraft.
	DraftMode   bool
	ActiveDraft int
	// Preview is the live draw or resize rectangle.
	Preview *geom.Box
}

// Overlay returns a copy of page scaled to size with the scene drawn on top.
// A zero size keeps the page's own dimensions.
func Overlay(page image.Image, size image.Point, sc Scene, t *theme.Theme) *image.RGBA {
	if t == nil {
		t = theme.Default()
	}
	if size.X <= 0 || size.Y <= 0 {
		size = page.Bounds().Size()
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(t.Background), image.Point{}, draw.Src)
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), page, page.Bounds(), draw.Over, nil)
	Draw(dst, sc, t)
	return dst
}

// Draw paints the scene onto dst, which is taken to be the displayed page.
func Draw(dst *image.RGBA, sc Scene, t *theme.Theme) {
	size := dst.Bounds().Size()
	off := dst.Bounds().Min

	if !sc.HidePersisted {
		for _, p := range sc.Persisted {
			col := t.Confirmed
			if p.Status == StatusDraft {
				col = t.Draft
			}
			StrokeRect(dst, toPixels(p.Box, size).Add(off), col, LineWidth)
		}
	}

	for _, b := range sc.Boxes {
		if sc.DraftMode && !b.IsDraft() {
			continue
		}
		r := toPixels(b.BBox, size).Add(off)
		col := t.Edit
		if sc.DraftMode && b.DraftIdx != sc.ActiveDraft {
			col = t.EditInactive
		}
		StrokeRect(dst, r, col, LineWidth)
		if b.Label != "" {
			drawLabel(dst, r, b.Label, t)
		}
		if b == sc.Selected {
			drawHandles(dst, b.BBox, size, off, t.Handle)
		}
	}

	if sc.Preview != nil {
		DashedRect(dst, toPixels(*sc.Preview, size).Add(off), dashOn, dashOff, LineWidth, t.Preview)
	}
}

// drawLabel puts a filled tag with the label text inside the bottom-left
// corner of r.
func drawLabel(dst *image.RGBA, r image.Rectangle, label string, t *theme.Theme) {
	w, h, _, err := MeasureText(label, LabelSize)
	if err != nil {
		return
	}
	x := r.Min.X + 2
	bottom := r.Max.Y - 2
	tag := image.Rect(x, bottom-labelH, x+w+labelPad*2, bottom)
	FillRect(dst, tag, t.LabelFill)
	_ = DrawText(dst, x+labelPad, bottom-labelH+(labelH-h)/2, label, t.LabelText, LabelSize)
}

func drawHandles(dst *image.RGBA, b geom.Box, size, off image.Point, col color.Color) {
	for _, r := range HandleRects(b, size) {
		FillRect(dst, r.Add(off), col)
	}
}

// HandleRects returns the eight handle squares of b on an image of the given
// size, in geom.Handles order.
func HandleRects(b geom.Box, size image.Point) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(geom.Handles))
	for _, h := range geom.Handles {
		x, y := geom.HandlePoint(b, h)
		p := toPixels(geom.Box{x, y, x, y}, size).Min
		out = append(out, image.Rect(p.X-HandleHalf, p.Y-HandleHalf, p.X+HandleHalf, p.Y+HandleHalf))
	}
	return out
}
