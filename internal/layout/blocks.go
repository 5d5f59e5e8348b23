package layout

import (
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// BlockConfig controls how glyphs are grouped into text blocks. Thresholds
// are fractions of the font size.
type BlockConfig struct {
	// BaselineTolerance is how far apart two baselines may be and still
	// belong to the same line.
	BaselineTolerance float64

	// CharMargin is the largest horizontal gap between glyphs of one line.
	CharMargin float64

	// LineMargin is the largest vertical gap between lines of one block.
	LineMargin float64
}

// DefaultBlockConfig mirrors the usual layout-analysis defaults.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		BaselineTolerance: 0.5,
		CharMargin:        2.0,
		LineMargin:        0.5,
	}
}

type glyph struct {
	box  Rect
	base float64
	size float64
	s    string
}

type line struct {
	box  Rect
	base float64
	size float64
	text strings.Builder
}

type block struct {
	box   Rect
	size  float64
	lines []string
}

// glyphBox estimates the box of one shown glyph from its baseline origin.
func glyphBox(t pdflib.Text) (glyph, bool) {
	if strings.TrimSpace(t.S) == "" {
		return glyph{}, false
	}
	size := t.FontSize
	if size < 0 {
		size = -size
	}
	if size == 0 {
		size = 1
	}
	w := t.W
	if w <= 0 {
		w = 0.5 * size * float64(len([]rune(t.S)))
	}
	return glyph{
		box: Rect{
			X0: t.X,
			Y0: t.Y - 0.2*size,
			X1: t.X + w,
			Y1: t.Y + 0.8*size,
		}.normalize(),
		base: t.Y,
		size: size,
		s:    t.S,
	}, true
}

// groupText turns the glyphs of a page into text blocks: glyphs join lines
// by baseline and horizontal proximity, lines join blocks by vertical
// proximity and horizontal overlap.
func groupText(texts []pdflib.Text, cfg BlockConfig) []TextBox {
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		if g, ok := glyphBox(t); ok {
			glyphs = append(glyphs, g)
		}
	}
	if len(glyphs) == 0 {
		return nil
	}

	sort.SliceStable(glyphs, func(i, j int) bool {
		if glyphs[i].base != glyphs[j].base {
			return glyphs[i].base > glyphs[j].base
		}
		return glyphs[i].box.X0 < glyphs[j].box.X0
	})

	var lines []*line
	for _, g := range glyphs {
		var target *line
		for _, l := range lines {
			size := max(l.size, g.size)
			if abs(l.base-g.base) > cfg.BaselineTolerance*size {
				continue
			}
			if g.box.X0-l.box.X1 > cfg.CharMargin*size || l.box.X0-g.box.X1 > cfg.CharMargin*size {
				continue
			}
			target = l
			break
		}
		if target == nil {
			target = &line{box: g.box, base: g.base, size: g.size}
			lines = append(lines, target)
		} else {
			target.box = target.box.Union(g.box)
			target.size = max(target.size, g.size)
		}
		target.text.WriteString(g.s)
	}

	var blocks []*block
	for _, l := range lines {
		var target *block
		for _, b := range blocks {
			size := max(b.size, l.size)
			gap := b.box.Y0 - l.box.Y1
			if l.box.Y0 > b.box.Y1 {
				gap = l.box.Y0 - b.box.Y1
			}
			if gap > cfg.LineMargin*size {
				continue
			}
			if l.box.X1 < b.box.X0 || l.box.X0 > b.box.X1 {
				continue
			}
			target = b
			break
		}
		if target == nil {
			target = &block{box: l.box, size: l.size}
			blocks = append(blocks, target)
		} else {
			target.box = target.box.Union(l.box)
			target.size = max(target.size, l.size)
		}
		target.lines = append(target.lines, l.text.String())
	}

	blocks = mergeOverlapping(blocks)

	out := make([]TextBox, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, TextBox{Box: b.box, Text: strings.Join(b.lines, "\n")})
	}
	return out
}

// mergeOverlapping unions blocks whose boxes intersect until none do.
func mergeOverlapping(blocks []*block) []*block {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(blocks) && !merged; i++ {
			for j := i + 1; j < len(blocks); j++ {
				if !blocks[i].box.Intersects(blocks[j].box) {
					continue
				}
				blocks[i].box = blocks[i].box.Union(blocks[j].box)
				blocks[i].size = max(blocks[i].size, blocks[j].size)
				blocks[i].lines = append(blocks[i].lines, blocks[j].lines...)
				blocks = append(blocks[:j], blocks[j+1:]...)
				merged = true
				break
			}
		}
	}
	return blocks
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
