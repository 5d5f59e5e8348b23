package placement

import (
	"testing"

	"github.com/dgallion1/barcoder/internal/layout"
	"github.com/google/go-cmp/cmp"
)

const (
	pageW = 600
	pageH = 800
)

func TestChoose_EmptyPageUsesBottomLeft(t *testing.T) {
	got := Choose(nil, DefaultStamp(), pageW, pageH)
	if got.X != 10 || got.Y != 10 {
		t.Errorf("expected (10, 10), got (%g, %g)", got.X, got.Y)
	}
	if got.Candidate != BottomLeft {
		t.Errorf("expected candidate %q, got %q", BottomLeft, got.Candidate)
	}
}

func TestChoose_BlockedBottomLeftMovesRight(t *testing.T) {
	regions := []layout.Rect{{X0: 10, Y0: 10, X1: 110, Y1: 60}}
	got := Choose(regions, DefaultStamp(), pageW, pageH)
	if got.X != 490 || got.Y != 10 {
		t.Errorf("expected (490, 10), got (%g, %g)", got.X, got.Y)
	}
	if got.Candidate != BottomRight {
		t.Errorf("expected candidate %q, got %q", BottomRight, got.Candidate)
	}
}

func TestChoose_PriorityOrder(t *testing.T) {
	s := DefaultStamp()
	slots := Candidates(s, pageW, pageH)

	// Block every slot before index i; slot i must win.
	for i, want := range slots {
		var regions []layout.Rect
		for _, blocked := range slots[:i] {
			regions = append(regions, layout.Rect{
				X0: blocked.Point.X + 1, Y0: blocked.Point.Y + 1,
				X1: blocked.Point.X + 2, Y1: blocked.Point.Y + 2,
			})
		}
		got := Choose(regions, s, pageW, pageH)
		if got.Candidate != want.Candidate || got.Point != want.Point {
			t.Errorf("slot %d: expected %s at %+v, got %s at %+v", i, want.Candidate, want.Point, got.Candidate, got.Point)
		}
	}
}

func TestChoose_AllBlockedFallsBack(t *testing.T) {
	regions := []layout.Rect{{X0: 0, Y0: 0, X1: pageW, Y1: pageH}}
	got := Choose(regions, DefaultStamp(), pageW, pageH)
	if got.X != 10 || got.Y != 10 {
		t.Errorf("expected fallback (10, 10), got (%g, %g)", got.X, got.Y)
	}
	if got.Candidate != Fallback {
		t.Errorf("expected candidate %q, got %q", Fallback, got.Candidate)
	}
}

func TestChoose_Deterministic(t *testing.T) {
	regions := []layout.Rect{
		{X0: 0, Y0: 0, X1: 300, Y1: 100},
		{X0: 400, Y0: 700, X1: 600, Y1: 800},
	}
	first := Choose(regions, DefaultStamp(), pageW, pageH)
	for range 10 {
		if got := Choose(regions, DefaultStamp(), pageW, pageH); got != first {
			t.Fatalf("expected stable result %+v, got %+v", first, got)
		}
	}
}

func TestCandidates_Geometry(t *testing.T) {
	got := Candidates(DefaultStamp(), pageW, pageH)
	want := []Slot{
		{BottomLeft, Point{10, 10}},
		{BottomRight, Point{490, 10}},
		{TopLeft, Point{10, 740}},
		{TopRight, Point{490, 740}},
		{BottomCenter, Point{250, 10}},
		{TopCenter, Point{250, 740}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlaps_Boundaries(t *testing.T) {
	r := layout.Rect{X0: 200, Y0: 200, X1: 300, Y1: 300}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 210, 210, true},
		{"right edge touches left side", 100, 210, true},   // x+w == X0
		{"left edge touches right side", 300, 210, true},   // x == X1
		{"top edge touches bottom side", 210, 150, true},   // y+h == Y0
		{"bottom edge touches top side", 210, 300, true},   // y == Y1
		{"just left", 99.5, 210, false},
		{"just right", 300.5, 210, false},
		{"just below", 210, 149.5, false},
		{"just above", 210, 300.5, false},
	}
	for _, tt := range tests {
		if got := Overlaps(tt.x, tt.y, 100, 50, r); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	a := layout.Rect{X0: 0, Y0: 0, X1: 100, Y1: 50}
	b := layout.Rect{X0: 50, Y0: 25, X1: 150, Y1: 75}
	ab := Overlaps(a.X0, a.Y0, a.Width(), a.Height(), b)
	ba := Overlaps(b.X0, b.Y0, b.Width(), b.Height(), a)
	if ab != ba {
		t.Errorf("expected symmetric result, got %v and %v", ab, ba)
	}
	if !Overlaps(a.X0, a.Y0, a.Width(), a.Height(), a) {
		t.Error("expected a rectangle to overlap itself")
	}
}

func TestIsFree_NoRegions(t *testing.T) {
	if !IsFree(0, 0, DefaultStamp(), nil) {
		t.Error("expected stamp to be free on an empty page")
	}
}
