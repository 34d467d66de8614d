package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow under an exported preview.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
	// Color of the shadow; the alpha channel is replaced by Opacity.
	Color color.RGBA
}

// ShadowResult captures the output of ApplyShadow.
type ShadowResult struct {
	Image *image.RGBA
	// Offset is where the preview's top-left corner landed on the expanded
	// canvas.
	Offset image.Point
}

// DefaultShadowOptions returns a soft shadow sized for question previews.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  12,
		Offset:  image.Pt(6, 8),
		Opacity: 0.4,
	}
}

// ApplyShadow composites img over a blurred copy of its alpha. The result has
// a zero origin and grows to hold the whole shadow.
func ApplyShadow(img *image.RGBA, opts ShadowOptions) ShadowResult {
	if img == nil {
		return ShadowResult{}
	}
	if img.Bounds().Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: img}
	}
	opacity := min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	src := img.Bounds()
	padded := src.Inset(-radius)
	shadow := padded.Add(opts.Offset)
	canvas := src.Union(shadow)

	mask := image.NewGray(padded.Sub(padded.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			mask.Pix[mask.PixOffset(x-padded.Min.X, y-padded.Min.Y)] = img.RGBAAt(x, y).A
		}
	}
	mask = blurGray(mask, radius)

	dst := image.NewRGBA(canvas.Sub(canvas.Min))
	col := opts.Color
	col.A = uint8(opacity*255 + 0.5)
	if col.A > 0 {
		// premultiply so the uniform source is a valid RGBA colour
		col.R = uint8(uint16(col.R) * uint16(col.A) / 255)
		col.G = uint8(uint16(col.G) * uint16(col.A) / 255)
		col.B = uint8(uint16(col.B) * uint16(col.A) / 255)
		draw.DrawMask(dst, mask.Bounds().Add(shadow.Min.Sub(canvas.Min)), image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
	}
	shift := src.Min.Sub(canvas.Min)
	draw.Draw(dst, src.Sub(canvas.Min), img, src.Min, draw.Over)
	return ShadowResult{Image: dst, Offset: shift}
}

// blurGray applies a separable box blur of the given radius.
func blurGray(src *image.Gray, radius int) *image.Gray {
	out := image.NewGray(src.Bounds())
	if radius <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tmp := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		boxBlur(tmp.Pix[y*tmp.Stride:], src.Pix[y*src.Stride:], w, 1, radius)
	}
	for x := 0; x < w; x++ {
		boxBlur(out.Pix[x:], tmp.Pix[x:], h, out.Stride, radius)
	}
	return out
}

// boxBlur averages n samples spaced step apart over a window clipped to the
// run.
func boxBlur(dst, src []uint8, n, step, radius int) {
	prefix := make([]int, n+1)
	for i := 0; i < n; i++ {
		prefix[i+1] = prefix[i] + int(src[i*step])
	}
	for i := 0; i < n; i++ {
		lo := max(i-radius, 0)
		hi := min(i+radius, n-1)
		dst[i*step] = uint8((prefix[hi+1] - prefix[lo]) / (hi - lo + 1))
	}
}
