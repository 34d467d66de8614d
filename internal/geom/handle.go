package geom

import "math"

// HandlePad is the hit tolerance around a handle, in normalized units.
const HandlePad = 0.01

// Handle identifies one of the eight resize handles of a box.
type Handle int

const (
	HandleNone Handle = iota
	HandleTL
	HandleTR
	HandleBL
	HandleBR
	HandleTM
	HandleBM
	HandleML
	HandleMR
)

var handleNames = map[Handle]string{
	HandleTL: "tl",
	HandleTR: "tr",
	HandleBL: "bl",
	HandleBR: "br",
	HandleTM: "tm",
	HandleBM: "bm",
	HandleML: "ml",
	HandleMR: "mr",
}

func (h Handle) String() string {
	if n, ok := handleNames[h]; ok {
		return n
	}
	return "none"
}

// Handles lists every handle, corners first then edge midpoints. Hit testing
// walks them in this order so a corner wins over a nearby midpoint.
var Handles = []Handle{HandleTL, HandleTR, HandleBL, HandleBR, HandleTM, HandleBM, HandleML, HandleMR}

// HandlePoint returns the position of h on b.
func HandlePoint(b Box, h Handle) (float64, float64) {
	cx := (b[0] + b[2]) / 2
	cy := (b[1] + b[3]) / 2
	switch h {
	case HandleTL:
		return b[0], b[1]
	case HandleTR:
		return b[2], b[1]
	case HandleBL:
		return b[0], b[3]
	case HandleBR:
		return b[2], b[3]
	case HandleTM:
		return cx, b[1]
	case HandleBM:
		return cx, b[3]
	case HandleML:
		return b[0], cy
	case HandleMR:
		return b[2], cy
	}
	return cx, cy
}

// HitHandle returns the first handle of b within pad of (x, y), or HandleNone.
func HitHandle(x, y float64, b Box, pad float64) Handle {
	for _, h := range Handles {
		hx, hy := HandlePoint(b, h)
		if math.Abs(x-hx) <= pad && math.Abs(y-hy) <= pad {
			return h
		}
	}
	return HandleNone
}

// Resize moves the coordinates controlled by h to (x, y) and renormalizes.
func Resize(b Box, h Handle, x, y float64) Box {
	nx0, ny0, nx1, ny1 := b[0], b[1], b[2], b[3]
	switch h {
	case HandleTL:
		nx0, ny0 = x, y
	case HandleTR:
		nx1, ny0 = x, y
	case HandleBL:
		nx0, ny1 = x, y
	case HandleBR:
		nx1, ny1 = x, y
	case HandleTM:
		ny0 = y
	case HandleBM:
		ny1 = y
	case HandleML:
		nx0 = x
	case HandleMR:
		nx1 = x
	}
	return Normalize(Box{nx0, ny0, nx1, ny1})
}

// MoveTo places a w by h box with its origin at (x0, y0), keeping it on the
// page without changing its size.
func MoveTo(x0, y0, w, h float64) Box {
	fx0 := Clamp01(math.Min(Clamp01(x0), 1-w))
	fy0 := Clamp01(math.Min(Clamp01(y0), 1-h))
	return Normalize(Box{fx0, fy0, fx0 + w, fy0 + h})
}
