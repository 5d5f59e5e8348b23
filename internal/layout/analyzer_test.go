package layout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dgallion1/barcoder/internal/testpdf"
)

func analyze(t *testing.T, data []byte) PageRegions {
	t.Helper()
	a := NewAnalyzer(DefaultBlockConfig(), nil)
	regions, err := a.Analyze(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return regions
}

func TestAnalyzer_BlankPages(t *testing.T) {
	regions := analyze(t, testpdf.Blank(3, 600, 800))
	if len(regions) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(regions))
	}
	for i, r := range regions {
		if len(r) != 0 {
			t.Errorf("page %d: expected no regions, got %d", i, len(r))
		}
	}
}

func TestAnalyzer_FindsImage(t *testing.T) {
	data := testpdf.Build(testpdf.Page{
		Width: 600, Height: 800,
		Content: testpdf.Image(300, 400, 100, 50),
	})
	regions := analyze(t, data)
	if len(regions) != 1 || len(regions[0]) != 1 {
		t.Fatalf("expected 1 region on 1 page, got %v", regions)
	}
	want := Rect{300, 400, 400, 450}
	if regions[0][0] != want {
		t.Errorf("expected %+v, got %+v", want, regions[0][0])
	}
}

func TestAnalyzer_FindsText(t *testing.T) {
	data := testpdf.Build(testpdf.Page{
		Width: 600, Height: 800,
		Content: testpdf.Text(50, 700, "Hello"),
	})
	regions := analyze(t, data)
	if len(regions[0]) == 0 {
		t.Fatal("expected a text region")
	}
	r := regions[0][0]
	if r.X0 > 50 || r.X1 <= 50 || r.Y0 > 700 || r.Y1 <= 700 {
		t.Errorf("expected region around (50, 700), got %+v", r)
	}
}

func TestAnalyzer_TextAndImageOnSamePage(t *testing.T) {
	data := testpdf.Build(testpdf.Page{
		Width: 600, Height: 800,
		Content: testpdf.Text(50, 700, "Title") + testpdf.Image(10, 10, 100, 50),
	})
	regions := analyze(t, data)
	if len(regions[0]) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions[0]))
	}
}

func TestAnalyzer_RejectsGarbage(t *testing.T) {
	a := NewAnalyzer(DefaultBlockConfig(), nil)
	data := []byte("definitely not a pdf")
	_, err := a.Analyze(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}
