// Package layout extracts the occupied regions of each PDF page: text blocks
// and placed images/forms, in PDF user space (origin bottom-left).
package layout

import "math"

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X0, Y0 float64 // lower-left
	X1, Y1 float64 // upper-right
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X0: r.X0 + dx, Y0: r.Y0 + dy, X1: r.X1 + dx, Y1: r.Y1 + dy}
}

// Intersects reports whether r and o share any point. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X1 < o.X0 || r.X0 > o.X1 || r.Y1 < o.Y0 || r.Y0 > o.Y1)
}

// normalize orders the corners so X0 <= X1 and Y0 <= Y1.
func (r Rect) normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// PageRegions holds the occupied regions of every page, indexed by 0-based page.
type PageRegions [][]Rect

// Page returns the regions of page i, or nil when i is out of range.
func (p PageRegions) Page(i int) []Rect {
	if i < 0 || i >= len(p) {
		return nil
	}
	return p[i]
}

// Element is one item found while walking a page. The concrete types are
// TextBox, Figure and Other.
type Element interface {
	element()
}

// TextBox is a block of horizontally laid out text.
type TextBox struct {
	Box  Rect
	Text string
}

// Figure is a placed image or form XObject.
type Figure struct {
	Box  Rect
	Name string
}

// Other is content that does not occupy space for placement purposes,
// e.g. vector rectangles.
type Other struct {
	Kind string
}

func (TextBox) element() {}
func (Figure) element()  {}
func (Other) element()   {}

// Regions returns the boxes of the elements that block placement.
func Regions(elems []Element) []Rect {
	var out []Rect
	for _, e := range elems {
		switch e := e.(type) {
		case TextBox:
			out = append(out, e.Box)
		case Figure:
			out = append(out, e.Box)
		}
	}
	return out
}
