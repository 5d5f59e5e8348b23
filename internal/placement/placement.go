// Package placement picks where a fixed-size stamp goes on a page so that it
// avoids the page's existing content.
package placement

import "github.com/dgallion1/barcoder/internal/layout"

// Stamp is the fixed geometry of the barcode stamp, in points.
type Stamp struct {
	Width  float64
	Height float64
	Margin float64
}

// DefaultStamp is a 100x50pt stamp kept 10pt from the page edges.
func DefaultStamp() Stamp {
	return Stamp{Width: 100, Height: 50, Margin: 10}
}

// Candidate names one of the fixed stamp positions.
type Candidate string

const (
	BottomLeft   Candidate = "bottom-left"
	BottomRight  Candidate = "bottom-right"
	TopLeft      Candidate = "top-left"
	TopRight     Candidate = "top-right"
	BottomCenter Candidate = "bottom-center"
	TopCenter    Candidate = "top-center"
	Fallback     Candidate = "fallback"
)

// Point is the lower-left origin of the stamp.
type Point struct {
	X, Y float64
}

// Placement is the chosen origin and the slot it came from.
type Placement struct {
	Point
	Candidate Candidate
}

// Slot is a candidate position with its origin.
type Slot struct {
	Candidate Candidate
	Point     Point
}

// Candidates returns the positions in the order they are tried.
func Candidates(s Stamp, pageW, pageH float64) []Slot {
	right := pageW - s.Width - s.Margin
	top := pageH - s.Height - s.Margin
	center := (pageW - s.Width) / 2
	return []Slot{
		{BottomLeft, Point{s.Margin, s.Margin}},
		{BottomRight, Point{right, s.Margin}},
		{TopLeft, Point{s.Margin, top}},
		{TopRight, Point{right, top}},
		{BottomCenter, Point{center, s.Margin}},
		{TopCenter, Point{center, top}},
	}
}

// Overlaps reports whether the w x h rectangle at (x, y) intersects r.
// Rectangles that only touch along an edge overlap.
func Overlaps(x, y, w, h float64, r layout.Rect) bool {
	return !(x+w < r.X0 || x > r.X1 || y+h < r.Y0 || y > r.Y1)
}

// IsFree reports whether the stamp at (x, y) clears every region.
func IsFree(x, y float64, s Stamp, regions []layout.Rect) bool {
	for _, r := range regions {
		if Overlaps(x, y, s.Width, s.Height, r) {
			return false
		}
	}
	return true
}

// Choose returns the first candidate that clears every region. When all six
// are blocked the stamp goes bottom-left anyway, overlapping content.
func Choose(regions []layout.Rect, s Stamp, pageW, pageH float64) Placement {
	for _, c := range Candidates(s, pageW, pageH) {
		if IsFree(c.Point.X, c.Point.Y, s, regions) {
			return Placement{Point: c.Point, Candidate: c.Candidate}
		}
	}
	return Placement{Point: Point{s.Margin, s.Margin}, Candidate: Fallback}
}
