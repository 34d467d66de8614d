// Package geom holds the normalized box arithmetic shared by the editor,
// the alignment engine and the renderer. All coordinates are fractions of a
// page image's width and height.
package geom

import "math"

// Box is a rectangle [x0, y0, x1, y1] in page-relative coordinates.
type Box [4]float64

// X0 returns the left edge.
func (b Box) X0() float64 { return b[0] }

// Y0 returns the top edge.
func (b Box) Y0() float64 { return b[1] }

// X1 returns the right edge.
func (b Box) X1() float64 { return b[2] }

// Y1 returns the bottom edge.
func (b Box) Y1() float64 { return b[3] }

// Width returns x1-x0.
func (b Box) Width() float64 { return b[2] - b[0] }

// Height returns y1-y0.
func (b Box) Height() float64 { return b[3] - b[1] }

// Valid reports whether all four components are finite.
func (b Box) Valid() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalize sorts each axis pair and clamps the result to [0, 1].
func Normalize(b Box) Box {
	x0, x1 := b[0], b[2]
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := b[1], b[3]
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Box{Clamp01(x0), Clamp01(y0), Clamp01(x1), Clamp01(y1)}
}

// FromPoints builds a normalized box spanning two corner points.
func FromPoints(ax, ay, bx, by float64) Box {
	return Normalize(Box{ax, ay, bx, by})
}

// PointIn reports whether (x, y) lies inside b, boundaries included.
func PointIn(x, y float64, b Box) bool {
	return x >= b[0] && x <= b[2] && y >= b[1] && y <= b[3]
}
