package compositor

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/dgallion1/barcoder/internal/layout"
	"github.com/dgallion1/barcoder/internal/placement"
	"github.com/dgallion1/barcoder/internal/symbol"
	"github.com/dgallion1/barcoder/internal/testpdf"
)

func open(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Open(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return doc
}

func raster(t *testing.T, payload string) []byte {
	t.Helper()
	r, err := symbol.NewRenderer(symbol.Options{Width: 100, Height: 50, Scale: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if err := r.RenderPNG(&buf, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return buf.Bytes()
}

func TestOpen_PageCountAndSize(t *testing.T) {
	doc := open(t, testpdf.Blank(2, 600, 800))
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	box, err := doc.PageBox(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (layout.Rect{X1: 600, Y1: 800}); box != want {
		t.Errorf("expected %+v, got %+v", want, box)
	}
	if _, err := doc.PageBox(2); !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition for out-of-range page, got %v", err)
	}
}

func TestOpen_Garbage(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("not a pdf")), nil)
	if !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}

func TestStamp_PreservesPageSize(t *testing.T) {
	doc := open(t, testpdf.Blank(1, 595, 842))
	s := placement.DefaultStamp()
	if err := doc.Stamp(0, raster(t, "24512001"), placement.Point{X: 10, Y: 10}, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() == 0 {
		t.Fatal("expected output bytes")
	}

	reopened := open(t, out.Bytes())
	box, err := reopened.PageBox(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if box.Width() != 595 || box.Height() != 842 {
		t.Errorf("expected 595x842 after stamping, got %gx%g", box.Width(), box.Height())
	}
}

func TestOpen_PageBoxOffOrigin(t *testing.T) {
	tests := []struct {
		name string
		page testpdf.Page
		want layout.Rect
	}{
		{
			name: "media box",
			page: testpdf.Page{Width: 600, Height: 800, X0: 50, Y0: 100},
			want: layout.Rect{X0: 50, Y0: 100, X1: 650, Y1: 900},
		},
		{
			name: "crop box",
			page: testpdf.Page{Width: 600, Height: 800, CropBox: []float64{20, 30, 520, 730}},
			want: layout.Rect{X0: 20, Y0: 30, X1: 520, Y1: 730},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, err := open(t, testpdf.Build(tt.page)).PageBox(0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if box != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, box)
			}
		})
	}
}

// stampedRegions stamps page 0 at pt and returns the regions found on the
// written page.
func stampedRegions(t *testing.T, page testpdf.Page, pt placement.Point) []layout.Rect {
	t.Helper()
	doc := open(t, testpdf.Build(page))
	if err := doc.Stamp(0, raster(t, "24512001"), pt, placement.DefaultStamp()); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}
	regions, err := layout.NewAnalyzer(layout.DefaultBlockConfig(), nil).Analyze(bytes.NewReader(out.Bytes()), int64(out.Len()))
	if err != nil {
		t.Fatalf("analyze stamped output: %v", err)
	}
	return regions.Page(0)
}

func TestStamp_LandsAtRequestedPoint(t *testing.T) {
	tests := []struct {
		name string
		page testpdf.Page
		pt   placement.Point
	}{
		{"origin bottom-left", testpdf.Page{Width: 600, Height: 800}, placement.Point{X: 10, Y: 10}},
		{"origin top-right", testpdf.Page{Width: 600, Height: 800}, placement.Point{X: 490, Y: 740}},
		{"offset media box", testpdf.Page{Width: 600, Height: 800, X0: 50, Y0: 100}, placement.Point{X: 60, Y: 110}},
		{"crop box", testpdf.Page{Width: 600, Height: 800, CropBox: []float64{20, 30, 520, 730}}, placement.Point{X: 400, Y: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions := stampedRegions(t, tt.page, tt.pt)
			if len(regions) != 1 {
				t.Fatalf("expected 1 region, got %v", regions)
			}
			want := layout.Rect{X0: tt.pt.X, Y0: tt.pt.Y, X1: tt.pt.X + 100, Y1: tt.pt.Y + 50}
			got := regions[0]
			if math.Abs(got.X0-want.X0) > 0.01 || math.Abs(got.Y0-want.Y0) > 0.01 ||
				math.Abs(got.X1-want.X1) > 0.01 || math.Abs(got.Y1-want.Y1) > 0.01 {
				t.Errorf("expected stamp at %+v, got %+v", want, got)
			}
		})
	}
}

func TestStamp_OutputGrowsWithStamp(t *testing.T) {
	src := testpdf.Blank(1, 600, 800)

	plain := open(t, src)
	var before bytes.Buffer
	if err := plain.Write(&before); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stamped := open(t, src)
	if err := stamped.Stamp(0, raster(t, "24512001"), placement.Point{X: 10, Y: 10}, placement.DefaultStamp()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var after bytes.Buffer
	if err := stamped.Write(&after); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Len() <= before.Len() {
		t.Errorf("expected stamped output (%d bytes) to be larger than plain (%d bytes)", after.Len(), before.Len())
	}
}

func TestStamp_RejectsMismatchedRaster(t *testing.T) {
	doc := open(t, testpdf.Blank(1, 600, 800))
	s := placement.Stamp{Width: 100, Height: 100, Margin: 10}
	err := doc.Stamp(0, raster(t, "24512001"), placement.Point{X: 10, Y: 10}, s)
	if !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}

func TestStamp_RejectsBadPage(t *testing.T) {
	doc := open(t, testpdf.Blank(1, 600, 800))
	err := doc.Stamp(3, raster(t, "24512001"), placement.Point{X: 10, Y: 10}, placement.DefaultStamp())
	if !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}

func TestStamp_RejectsNonImage(t *testing.T) {
	doc := open(t, testpdf.Blank(1, 600, 800))
	err := doc.Stamp(0, []byte("nope"), placement.Point{X: 10, Y: 10}, placement.DefaultStamp())
	if !errors.Is(err, ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}
