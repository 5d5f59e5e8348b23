// Package symbol renders barcode payloads as Code 128 raster images with the
// payload printed under the bars.
package symbol

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrPayloadTooLong means the encoded bars do not fit the stamp width.
var ErrPayloadTooLong = errors.New("payload does not fit the stamp")

// Options sets the output size. Width and Height are the stamp size in
// points; Scale is pixels per point.
type Options struct {
	Width  float64
	Height float64
	Scale  float64
}

// Renderer draws Code 128 symbols onto a white canvas.
type Renderer struct {
	opts Options
	face font.Face

	canvas image.Rectangle
	bars   image.Rectangle
	text   image.Rectangle
}

func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid stamp size %gx%g", opts.Width, opts.Height)
	}
	if opts.Scale <= 0 {
		opts.Scale = 4
	}

	w := int(math.Round(opts.Width * opts.Scale))
	h := int(math.Round(opts.Height * opts.Scale))

	// Proportions follow the usual linear barcode label: quiet zone on both
	// sides, bars on top, and the caption below with a generous gap.
	quiet := w / 20
	pad := h / 20
	textPx := h * 16 / 100
	gap := h / 10
	barsBottom := h - pad - textPx - gap

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse caption font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(textPx),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create caption face: %w", err)
	}

	return &Renderer{
		opts:   opts,
		face:   face,
		canvas: image.Rect(0, 0, w, h),
		bars:   image.Rect(quiet, pad, w-quiet, barsBottom),
		text:   image.Rect(quiet, h-pad-textPx, w-quiet, h-pad),
	}, nil
}

// Size returns the raster size in pixels.
func (r *Renderer) Size() image.Point {
	return r.canvas.Size()
}

// Render encodes payload and returns the label image.
func (r *Renderer) Render(payload string) (image.Image, error) {
	code, err := code128.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", payload, err)
	}
	if code.Bounds().Dx() > r.bars.Dx() {
		return nil, fmt.Errorf("%w: %q needs %d modules, %d px available", ErrPayloadTooLong, payload, code.Bounds().Dx(), r.bars.Dx())
	}
	scaled, err := barcode.Scale(code, r.bars.Dx(), r.bars.Dy())
	if err != nil {
		return nil, fmt.Errorf("scale %q: %w", payload, err)
	}

	img := image.NewRGBA(r.canvas)
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, r.bars, scaled, scaled.Bounds().Min, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: r.face}
	advance := d.MeasureString(payload).Round()
	x := r.text.Min.X + (r.text.Dx()-advance)/2
	baseline := r.text.Max.Y - r.face.Metrics().Descent.Round()
	d.Dot = fixed.P(x, baseline)
	d.DrawString(payload)

	return img, nil
}

// RenderPNG renders payload and writes it as PNG with the white background
// keyed out to transparency.
func (r *Renderer) RenderPNG(w io.Writer, payload string) error {
	img, err := r.Render(payload)
	if err != nil {
		return err
	}
	if err := png.Encode(w, ColorKey(img, color.White)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ColorKey returns a copy of img where pixels equal to key are fully
// transparent and every other pixel is opaque.
func ColorKey(img image.Image, key color.Color) *image.NRGBA {
	kr, kg, kb, _ := key.RGBA()
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r == kr && g == kg && bl == kb {
				continue
			}
			out.SetNRGBA(x, y, color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 0xff})
		}
	}
	return out
}
