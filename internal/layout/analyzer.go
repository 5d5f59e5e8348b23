package layout

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrExtraction marks a page or document whose layout could not be read.
var ErrExtraction = errors.New("layout extraction failed")

// Analyzer finds the text blocks and placed images of every page.
type Analyzer struct {
	cfg BlockConfig
	log *slog.Logger
}

func NewAnalyzer(cfg BlockConfig, log *slog.Logger) *Analyzer {
	if cfg.BaselineTolerance <= 0 {
		cfg.BaselineTolerance = 0.5
	}
	if cfg.CharMargin <= 0 {
		cfg.CharMargin = 2.0
	}
	if cfg.LineMargin <= 0 {
		cfg.LineMargin = 0.5
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{cfg: cfg, log: log}
}

// AnalyzeFile opens path and analyzes every page.
func (a *Analyzer) AnalyzeFile(path string) (PageRegions, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrExtraction, path, err)
	}
	defer f.Close()
	return a.analyze(reader)
}

// Analyze reads a PDF of the given size and returns the occupied regions of
// each page. Any page that cannot be interpreted fails the whole document.
func (a *Analyzer) Analyze(r io.ReaderAt, size int64) (PageRegions, error) {
	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrExtraction, err)
	}
	return a.analyze(reader)
}

func (a *Analyzer) analyze(reader *pdflib.Reader) (PageRegions, error) {
	var numPages int
	if err := safely(func() { numPages = reader.NumPage() }); err != nil {
		return nil, fmt.Errorf("%w: page tree: %w", ErrExtraction, err)
	}

	regions := make(PageRegions, numPages)
	for i := 1; i <= numPages; i++ {
		elems, err := a.PageElements(reader.Page(i))
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrExtraction, i, err)
		}
		regions[i-1] = Regions(elems)
		a.log.Debug("page layout", "page", i, "elements", len(elems), "regions", len(regions[i-1]))
	}
	return regions, nil
}

// PageElements walks one page and returns its text blocks, figures and
// other content.
func (a *Analyzer) PageElements(p pdflib.Page) ([]Element, error) {
	if p.V.IsNull() {
		return nil, errors.New("missing page object")
	}

	var elems []Element
	err := safely(func() {
		content := p.Content()
		for _, tb := range groupText(content.Text, a.cfg) {
			elems = append(elems, tb)
		}

		w := &figureWalker{resources: p.Resources(), ctm: identity}
		w.walk(p.V.Key("Contents"))
		elems = append(elems, w.elems...)
	})
	if err != nil {
		return nil, err
	}
	return elems, nil
}

// safely runs fn, turning a panic from the PDF reader into an error.
func safely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content: %v", r)
		}
	}()
	fn()
	return nil
}
