package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/papermark/internal/geom"
)

// MinCropSize is the smallest normalized width or height of a crop.
const MinCropSize = 0.001

// Crop copies the normalized region b of img at the image's own resolution.
// Degenerate boxes are widened to MinCropSize.
func Crop(img image.Image, b geom.Box) *image.RGBA {
	b = geom.Normalize(b)
	wN := math.Max(MinCropSize, b.Width())
	hN := math.Max(MinCropSize, b.Height())
	bounds := img.Bounds()
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	sw := max(1, int(math.Round(wN*iw)))
	sh := max(1, int(math.Round(hN*ih)))
	sx := bounds.Min.X + int(math.Round(b[0]*iw))
	sy := bounds.Min.Y + int(math.Round(b[1]*ih))

	out := image.NewRGBA(image.Rect(0, 0, sw, sh))
	src := image.Rect(sx, sy, sx+sw, sy+sh).Intersect(bounds)
	if !src.Empty() {
		draw.Draw(out, src.Sub(image.Pt(sx, sy)), img, src.Min, draw.Src)
	}
	return out
}

// Fit scales img to a width clamped to [minW, maxW], keeping its aspect
// ratio. A zero bound is ignored.
func Fit(img *image.RGBA, minW, maxW int) *image.RGBA {
	w := img.Bounds().Dx()
	target := w
	if minW > 0 && target < minW {
		target = minW
	}
	if maxW > 0 && target > maxW {
		target = maxW
	}
	if target == w || w == 0 {
		return img
	}
	h := max(1, int(math.Round(float64(img.Bounds().Dy())*float64(target)/float64(w))))
	out := image.NewRGBA(image.Rect(0, 0, target, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

// Stack joins images top to bottom with gap pixels between them on a bg
// filled canvas as wide as the widest image.
func Stack(imgs []*image.RGBA, gap int, bg color.Color) *image.RGBA {
	w, h := 0, 0
	for i, im := range imgs {
		w = max(w, im.Bounds().Dx())
		h += im.Bounds().Dy()
		if i > 0 {
			h += gap
		}
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	y := 0
	for _, im := range imgs {
		r := image.Rect(0, y, im.Bounds().Dx(), y+im.Bounds().Dy())
		draw.Draw(out, r, im, im.Bounds().Min, draw.Over)
		y = r.Max.Y + gap
	}
	return out
}
