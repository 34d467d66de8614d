package geom

import (
	"math"
	"testing"
)

func TestNormalizeSortsAndClamps(t *testing.T) {
	got := Normalize(Box{0.8, -0.2, 0.3, 1.5})
	want := Box{0.3, 0, 0.8, 1}
	if got != want {
		t.Fatalf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []Box{
		{0.8, -0.2, 0.3, 1.5},
		{1, 1, 0, 0},
		{0.25, 0.5, 0.25, 0.5},
		{-3, 7, 2, -1},
		{math.NaN(), 0.2, 0.4, 0.1},
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%v) not idempotent: %v then %v", in, once, twice)
		}
		if once[0] > once[2] || once[1] > once[3] {
			t.Errorf("Normalize(%v) = %v not ordered", in, once)
		}
		for _, v := range once {
			if v < 0 || v > 1 {
				t.Errorf("Normalize(%v) = %v out of range", in, once)
			}
		}
	}
}

func TestPointInInclusive(t *testing.T) {
	unit := Box{0, 0, 1, 1}
	if !PointIn(0, 0, unit) {
		t.Error("expected (0,0) inside")
	}
	if !PointIn(1, 1, unit) {
		t.Error("expected (1,1) inside")
	}
	if PointIn(0.5, 1.01, unit) {
		t.Error("expected (0.5,1.01) outside")
	}
}

func TestHitHandlePrefersCorners(t *testing.T) {
	// A short box puts the tm handle within pad of tl.
	b := Box{0.1, 0.1, 0.11, 0.2}
	if h := HitHandle(0.105, 0.1, b, HandlePad); h != HandleTL {
		t.Fatalf("HitHandle = %v, want tl", h)
	}
	if h := HitHandle(0.5, 0.5, b, HandlePad); h != HandleNone {
		t.Fatalf("HitHandle = %v, want none", h)
	}
}

func TestResizeEdges(t *testing.T) {
	b := Box{0.2, 0.2, 0.6, 0.6}
	tests := []struct {
		h    Handle
		x, y float64
		want Box
	}{
		{HandleTL, 0.1, 0.1, Box{0.1, 0.1, 0.6, 0.6}},
		{HandleTM, 0.9, 0.3, Box{0.2, 0.3, 0.6, 0.6}},
		{HandleMR, 0.7, 0.9, Box{0.2, 0.2, 0.7, 0.6}},
		{HandleBR, 0.1, 0.1, Box{0.1, 0.1, 0.2, 0.2}},
	}
	for _, tc := range tests {
		if got := Resize(b, tc.h, tc.x, tc.y); got != tc.want {
			t.Errorf("Resize(%v) = %v, want %v", tc.h, got, tc.want)
		}
	}
}

func TestMoveToKeepsSizeOnPage(t *testing.T) {
	got := MoveTo(0.95, 0.5, 0.25, 0.25)
	if got[2] != 1 || math.Abs(got.Width()-0.25) > 1e-9 {
		t.Fatalf("MoveTo = %v, want right edge pinned at 1 with width 0.25", got)
	}
	got = MoveTo(-0.3, -0.1, 0.2, 0.1)
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("MoveTo = %v, want origin clamped to 0", got)
	}
}
