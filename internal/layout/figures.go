package layout

import (
	"math"

	pdflib "github.com/ledongthuc/pdf"
)

// matrix is a PDF affine transform [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m followed by n, i.e. the matrix product m×n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// transformRect maps r through m and returns the axis-aligned bounds.
func (m matrix) transformRect(r Rect) Rect {
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = m.apply(r.X0, r.Y0)
	xs[1], ys[1] = m.apply(r.X1, r.Y0)
	xs[2], ys[2] = m.apply(r.X0, r.Y1)
	xs[3], ys[3] = m.apply(r.X1, r.Y1)
	out := Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for i := range xs {
		out.X0 = math.Min(out.X0, xs[i])
		out.Y0 = math.Min(out.Y0, ys[i])
		out.X1 = math.Max(out.X1, xs[i])
		out.Y1 = math.Max(out.Y1, ys[i])
	}
	return out
}

func valueMatrix(v pdflib.Value) (matrix, bool) {
	if v.Kind() != pdflib.Array || v.Len() != 6 {
		return identity, false
	}
	var m matrix
	for i := range m {
		m[i] = v.Index(i).Float64()
	}
	return m, true
}

func valueRect(v pdflib.Value) (Rect, bool) {
	if v.Kind() != pdflib.Array || v.Len() != 4 {
		return Rect{}, false
	}
	return Rect{
		X0: v.Index(0).Float64(),
		Y0: v.Index(1).Float64(),
		X1: v.Index(2).Float64(),
		Y1: v.Index(3).Float64(),
	}.normalize(), true
}

// figureWalker tracks the graphics state across a page's content streams
// and reports every image or form XObject painted with Do.
type figureWalker struct {
	resources pdflib.Value
	ctm       matrix
	saved     []matrix
	elems     []Element
}

func (w *figureWalker) walk(contents pdflib.Value) {
	if contents.Kind() == pdflib.Array {
		for i := 0; i < contents.Len(); i++ {
			w.walk(contents.Index(i))
		}
		return
	}
	if contents.Kind() != pdflib.Stream {
		return
	}
	pdflib.Interpret(contents, func(stk *pdflib.Stack, op string) {
		n := stk.Len()
		args := make([]pdflib.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			w.saved = append(w.saved, w.ctm)
		case "Q":
			if len(w.saved) > 0 {
				w.ctm = w.saved[len(w.saved)-1]
				w.saved = w.saved[:len(w.saved)-1]
			}
		case "cm":
			if n != 6 {
				return
			}
			var m matrix
			for i := range m {
				m[i] = args[i].Float64()
			}
			w.ctm = m.mul(w.ctm)
		case "re":
			w.elems = append(w.elems, Other{Kind: "rect"})
		case "Do":
			if n != 1 {
				return
			}
			w.paint(args[0].Name())
		}
	})
}

func (w *figureWalker) paint(name string) {
	xobj := w.resources.Key("XObject").Key(name)
	if xobj.IsNull() {
		w.elems = append(w.elems, Other{Kind: "missing-xobject"})
		return
	}
	switch xobj.Key("Subtype").Name() {
	case "Image":
		// Images occupy the unit square in their own space.
		box := w.ctm.transformRect(Rect{X0: 0, Y0: 0, X1: 1, Y1: 1})
		w.elems = append(w.elems, Figure{Box: box, Name: name})
	case "Form":
		bbox, ok := valueRect(xobj.Key("BBox"))
		if !ok {
			w.elems = append(w.elems, Other{Kind: "form-without-bbox"})
			return
		}
		fm, _ := valueMatrix(xobj.Key("Matrix"))
		w.elems = append(w.elems, Figure{Box: fm.mul(w.ctm).transformRect(bbox), Name: name})
	default:
		w.elems = append(w.elems, Other{Kind: "xobject"})
	}
}
