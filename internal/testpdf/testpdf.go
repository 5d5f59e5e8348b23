// Package testpdf builds small, valid PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
)

// Page describes one generated page. Content is a raw content stream; the
// page resources always provide font /F1 (Helvetica) and image /Im1 (1x1 gray).
type Page struct {
	Width, Height float64
	Content       string

	// X0 and Y0 move the media box's lower-left corner off the origin.
	X0, Y0 float64
	// CropBox, when set, is written as [llx lly urx ury].
	CropBox []float64
}

// Blank returns a document with n empty pages of the given size.
func Blank(n int, width, height float64) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Width: width, Height: height}
	}
	return Build(pages...)
}

// Text returns a content stream showing s at (x, y) in 12pt Helvetica.
func Text(x, y float64, s string) string {
	return fmt.Sprintf("BT /F1 12 Tf %g %g Td (%s) Tj ET\n", x, y, s)
}

// Image returns a content stream painting /Im1 into the given rectangle.
func Image(x, y, w, h float64) string {
	return fmt.Sprintf("q %g 0 0 %g %g %g cm /Im1 Do Q\n", w, h, x, y)
}

// Build writes a PDF containing the given pages.
func Build(pages ...Page) []byte {
	const (
		catalogObj = 1
		pagesObj   = 2
		fontObj    = 3
		imageObj   = 4
		firstPage  = 5
	)
	total := firstPage + 2*len(pages)
	offsets := make([]int, total)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	obj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	stream := func(num int, dict string, data string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n%s\nendstream\nendobj\n", num, dict, len(data), data)
	}

	obj(catalogObj, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))

	var kids bytes.Buffer
	for i := range pages {
		fmt.Fprintf(&kids, "%d 0 R ", firstPage+2*i)
	}
	obj(pagesObj, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), len(pages)))
	obj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	stream(imageObj, "/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "\x80")

	for i, p := range pages {
		pageNum := firstPage + 2*i
		contentNum := pageNum + 1
		var crop string
		if len(p.CropBox) == 4 {
			crop = fmt.Sprintf(" /CropBox [%g %g %g %g]", p.CropBox[0], p.CropBox[1], p.CropBox[2], p.CropBox[3])
		}
		obj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [%g %g %g %g]%s /Resources << /Font << /F1 %d 0 R >> /XObject << /Im1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, p.X0, p.Y0, p.X0+p.Width, p.Y0+p.Height, crop, fontObj, imageObj, contentNum))
		stream(contentNum, "", p.Content)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i < total; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", total, catalogObj, xref)
	return buf.Bytes()
}
