// Package align keeps the left and right edges of related boxes in step.
package align

import (
	"math"

	"github.com/example/papermark/internal/geom"
)

// MinWidth is the narrowest box alignment will produce.
const MinWidth = 0.01

// Bounds is a shared [x0, x1] extent.
type Bounds [2]float64

// NewBounds orders and clamps a raw pair. ok is false for non-finite input.
func NewBounds(a, b float64) (Bounds, bool) {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return Bounds{}, false
	}
	return Bounds{geom.Clamp01(math.Min(a, b)), geom.Clamp01(math.Max(a, b))}, true
}

// FromBox takes the horizontal extent of b.
func FromBox(b geom.Box) (Bounds, bool) {
	if !b.Valid() {
		return Bounds{}, false
	}
	return NewBounds(b[0], b[2])
}

// Compute picks the persisted reference when there is one, else the first
// box in scope. It returns false when neither exists.
func Compute(persisted *Bounds, scope []geom.Box) (Bounds, bool) {
	if persisted != nil {
		if b, ok := NewBounds(persisted[0], persisted[1]); ok {
			return b, true
		}
	}
	if len(scope) == 0 {
		return Bounds{}, false
	}
	return FromBox(scope[0])
}

// Apply replaces the x-extent of b with bounds, keeping y.
func Apply(b geom.Box, bounds Bounds) geom.Box {
	x0 := geom.Clamp01(bounds[0])
	x1 := math.Max(geom.Clamp01(bounds[1]), x0+MinWidth)
	return geom.Normalize(geom.Box{x0, b[1], x1, b[3]})
}

// Union returns [min x0, max x1] over bs. A result narrower than MinWidth is
// widened from its left edge.
func Union(bs []geom.Box) (Bounds, bool) {
	found := false
	minX, maxX := 0.0, 0.0
	for _, b := range bs {
		if !b.Valid() {
			continue
		}
		n := geom.Normalize(b)
		if !found {
			minX, maxX = n[0], n[2]
			found = true
			continue
		}
		minX = math.Min(minX, n[0])
		maxX = math.Max(maxX, n[2])
	}
	if !found {
		return Bounds{}, false
	}
	nx0 := geom.Clamp01(minX)
	nx1 := geom.Clamp01(maxX)
	if nx1-nx0 < MinWidth {
		return Bounds{nx0, geom.Clamp01(nx0 + MinWidth)}, true
	}
	return Bounds{nx0, nx1}, true
}

// All aligns every box to bounds.
func All(bs []geom.Box, bounds Bounds) []geom.Box {
	out := make([]geom.Box, len(bs))
	for i, b := range bs {
		out[i] = Apply(b, bounds)
	}
	return out
}
