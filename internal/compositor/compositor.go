// Package compositor merges barcode rasters onto the pages of a PDF.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"math"

	"github.com/dgallion1/barcoder/internal/layout"
	"github.com/dgallion1/barcoder/internal/placement"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrComposition marks failures reading, stamping or writing the document.
var ErrComposition = errors.New("composition failed")

// Document is an opened PDF whose pages are stamped in place.
type Document struct {
	ctx   *model.Context
	boxes []layout.Rect
}

// Open reads and validates a PDF. A nil conf uses pdfcpu's defaults.
func Open(rs io.ReadSeeker, conf *model.Configuration) (*Document, error) {
	if conf == nil {
		conf = model.NewDefaultConfiguration()
	}
	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrComposition, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: validate: %w", ErrComposition, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: page count: %w", ErrComposition, err)
	}
	boxes, err := visibleBoxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: page boundaries: %w", ErrComposition, err)
	}
	return &Document{ctx: ctx, boxes: boxes}, nil
}

// visibleBoxes returns the crop box of every page, falling back to the media
// box, in user space. Rotated pages get the box pdfcpu stamps into: width and
// height swapped around the same lower-left corner.
func visibleBoxes(ctx *model.Context) ([]layout.Rect, error) {
	pbs, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, err
	}
	boxes := make([]layout.Rect, len(pbs))
	for i, pb := range pbs {
		r := pb.CropBox()
		if r == nil {
			return nil, fmt.Errorf("page %d has no media box", i+1)
		}
		w, h := r.Width(), r.Height()
		if pb.Rot%180 != 0 {
			w, h = h, w
		}
		boxes[i] = layout.Rect{X0: r.LL.X, Y0: r.LL.Y, X1: r.LL.X + w, Y1: r.LL.Y + h}
	}
	return boxes, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// PageBox returns the visible area of page i (0-based) in user space points.
// Its lower-left corner is not necessarily the origin.
func (d *Document) PageBox(i int) (layout.Rect, error) {
	if i < 0 || i >= len(d.boxes) {
		return layout.Rect{}, fmt.Errorf("%w: page %d out of range (1-%d)", ErrComposition, i+1, len(d.boxes))
	}
	return d.boxes[i], nil
}

// Stamp draws the PNG raster onto page i (0-based) with its lower-left
// corner at pt in user space, sized to exactly s.Width x s.Height. The
// barcode is layered above the existing content. The raster must have the
// stamp's aspect ratio.
func (d *Document) Stamp(i int, raster []byte, pt placement.Point, s placement.Stamp) error {
	if i < 0 || i >= d.PageCount() {
		return fmt.Errorf("%w: page %d out of range (1-%d)", ErrComposition, i+1, d.PageCount())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raster))
	if err != nil {
		return fmt.Errorf("%w: page %d: read raster: %w", ErrComposition, i+1, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%w: page %d: empty raster", ErrComposition, i+1)
	}
	scale := s.Width / float64(cfg.Width)
	if math.Abs(float64(cfg.Height)*scale-s.Height) > 0.5 {
		return fmt.Errorf("%w: page %d: raster %dx%d does not match stamp %gx%g",
			ErrComposition, i+1, cfg.Width, cfg.Height, s.Width, s.Height)
	}

	// pdfcpu offsets are relative to the lower-left of the visible box.
	box := d.boxes[i]
	desc := fmt.Sprintf("position:bl, offset:%.4f %.4f, scalefactor:%.6f abs, rotation:0, opacity:1",
		pt.X-box.X0, pt.Y-box.Y0, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(raster), desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("%w: page %d: watermark: %w", ErrComposition, i+1, err)
	}
	if err := pdfcpu.AddWatermarks(d.ctx, types.IntSet{i + 1: true}, wm); err != nil {
		return fmt.Errorf("%w: page %d: merge: %w", ErrComposition, i+1, err)
	}
	return nil
}

// Write serializes the document.
func (d *Document) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("%w: write: %w", ErrComposition, err)
	}
	return nil
}
