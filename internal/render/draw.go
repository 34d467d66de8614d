package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"sync"

	"github.com/example/papermark/internal/geom"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// LabelSize is the point size of OCR draft label tags.
const LabelSize = 12

var (
	goregularFont *opentype.Font
	faces         sync.Map // map[float64]font.Face
)

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Printf("parse font: %v", err)
		return
	}
	goregularFont = f
}

func faceForSize(size float64) (font.Face, error) {
	if size <= 0 {
		size = LabelSize
	}
	if goregularFont == nil {
		return nil, fmt.Errorf("text font not initialised")
	}
	if face, ok := faces.Load(size); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(goregularFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	faces.Store(size, face)
	return face, nil
}

// MeasureText returns the dimensions of text rendered at the provided size.
// The returned width and height represent the bounding box, while baseline is
// the offset from the top to the text baseline.
func MeasureText(text string, size float64) (width, height, baseline int, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, 0, err
	}
	drawer := &font.Drawer{Face: face}
	width = drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	baseline = ascent
	height = ascent + metrics.Descent.Ceil()
	return
}

// DrawText renders the provided text with its top-left corner at (x, y).
func DrawText(img *image.RGBA, x, y int, text string, col color.Color, size float64) error {
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(text)
	return nil
}

// FillRect blends col over r, clipped to img.
func FillRect(img *image.RGBA, r image.Rectangle, col color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// StrokeRect outlines r with a line thick pixels wide centred on its edges.
// The four sides never overlap so translucent colours blend once.
func StrokeRect(img *image.RGBA, r image.Rectangle, col color.Color, thick int) {
	if thick < 1 {
		thick = 1
	}
	o := r.Inset(-thick / 2)
	i := o.Inset(thick)
	if i.Empty() {
		FillRect(img, o, col)
		return
	}
	FillRect(img, image.Rect(o.Min.X, o.Min.Y, o.Max.X, i.Min.Y), col)
	FillRect(img, image.Rect(o.Min.X, i.Max.Y, o.Max.X, o.Max.Y), col)
	FillRect(img, image.Rect(o.Min.X, i.Min.Y, i.Min.X, i.Max.Y), col)
	FillRect(img, image.Rect(i.Max.X, i.Min.Y, o.Max.X, i.Max.Y), col)
}

// dashedLine draws an axis aligned line from (x0, y0) towards (x1, y1)
// alternating dash pixels on and gap pixels off.
func dashedLine(img *image.RGBA, x0, y0, x1, y1, dash, gap, thick int, col color.Color) {
	horiz := y0 == y1
	length := x1 - x0
	if !horiz {
		length = y1 - y0
	}
	step := 1
	if length < 0 {
		length, step = -length, -1
	}
	h := thick / 2
	for i := 0; i <= length; i += dash + gap {
		end := min(i+dash, length+1)
		a, b := i*step, (end-1)*step
		if a > b {
			a, b = b, a
		}
		if horiz {
			FillRect(img, image.Rect(x0+a, y0-h, x0+b+1, y0-h+thick), col)
		} else {
			FillRect(img, image.Rect(x0-h, y0+a, x0-h+thick, y0+b+1), col)
		}
	}
}

// DashedRect outlines r with a dash pattern, clockwise from the top-left.
func DashedRect(img *image.RGBA, r image.Rectangle, dash, gap, thick int, col color.Color) {
	dashedLine(img, r.Min.X, r.Min.Y, r.Max.X, r.Min.Y, dash, gap, thick, col)
	dashedLine(img, r.Max.X, r.Min.Y, r.Max.X, r.Max.Y, dash, gap, thick, col)
	dashedLine(img, r.Max.X, r.Max.Y, r.Min.X, r.Max.Y, dash, gap, thick, col)
	dashedLine(img, r.Min.X, r.Max.Y, r.Min.X, r.Min.Y, dash, gap, thick, col)
}

// toPixels maps a normalized box onto an image of the given size.
func toPixels(b geom.Box, size image.Point) image.Rectangle {
	w, h := float64(size.X), float64(size.Y)
	return image.Rect(
		int(math.Round(b[0]*w)),
		int(math.Round(b[1]*h)),
		int(math.Round(b[2]*w)),
		int(math.Round(b[3]*h)),
	)
}
