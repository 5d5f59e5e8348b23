package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgallion1/barcoder/internal/compositor"
	"github.com/dgallion1/barcoder/internal/identity"
	"github.com/dgallion1/barcoder/internal/layout"
	"github.com/dgallion1/barcoder/internal/placement"
	"github.com/dgallion1/barcoder/internal/state"
	"github.com/google/uuid"
)

// Analyzer extracts the occupied regions of every page.
type Analyzer interface {
	Analyze(r io.ReaderAt, size int64) (layout.PageRegions, error)
}

// Renderer writes the barcode raster for a payload as PNG.
type Renderer interface {
	RenderPNG(w io.Writer, payload string) error
}

// Document is an opened PDF stamped page by page.
type Document interface {
	PageCount() int
	PageBox(i int) (layout.Rect, error)
	Stamp(i int, raster []byte, pt placement.Point, s placement.Stamp) error
	Write(w io.Writer) error
}

// Opener opens the source document.
type Opener func(rs io.ReadSeeker) (Document, error)

// OpenPDF opens documents with pdfcpu.
func OpenPDF(rs io.ReadSeeker) (Document, error) {
	doc, err := compositor.Open(rs, nil)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Request describes one stamping run.
type Request struct {
	RunID       string
	Source      []byte
	BaseID      string
	StartNumber int
	Output      Output
	Progress    Progress
}

// PageResult records what happened to one page.
type PageResult struct {
	Index     int // 0-based
	Identity  string
	Placement placement.Placement
	Duration  time.Duration
}

// Result summarizes a successful run. StateWarning is set when the document
// was written but the last barcode could not be saved.
type Result struct {
	RunID         string
	Pages         []PageResult
	FirstIdentity string
	LastIdentity  string
	StateWarning  error
}

// Runner stamps every page of a document with its own barcode.
type Runner struct {
	analyzer Analyzer
	renderer Renderer
	open     Opener
	store    state.Store
	stamp    placement.Stamp
	stats    *Stats
	log      *slog.Logger

	scratch scratch
}

func NewRunner(analyzer Analyzer, renderer Renderer, open Opener, store state.Store, stamp placement.Stamp, stats *Stats, log *slog.Logger) *Runner {
	if open == nil {
		open = OpenPDF
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Runner{
		analyzer: analyzer,
		renderer: renderer,
		open:     open,
		store:    store,
		stamp:    stamp,
		stats:    stats,
		log:      log,
	}
}

// Stats returns the page latency collector.
func (r *Runner) Stats() *Stats {
	return r.stats
}

// Store returns the state store the runner saves to.
func (r *Runner) Store() state.Store {
	return r.store
}

// Run analyzes the source once, stamps pages in order, commits the output
// and then saves the last issued identity. Any failure aborts the run before
// the output is committed or the state is touched.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Output == nil {
		return nil, errors.New("pipeline: request has no output")
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	progress := req.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	log := r.log.With("run_id", req.RunID, "base_id", req.BaseID)

	fail := func(err error) (*Result, error) {
		progress.AddError(err.Error())
		progress.SetStatus(StatusFailed, "failed")
		log.Error("run failed", "error", err)
		return nil, err
	}

	// Phase 1: Load
	progress.SetStatus(StatusAnalyzing, "analyzing")
	doc, err := r.open(bytes.NewReader(req.Source))
	if err != nil {
		return fail(stepErr(StepRead, 0, err))
	}
	regions, err := r.analyzer.Analyze(bytes.NewReader(req.Source), int64(len(req.Source)))
	if err != nil {
		return fail(stepErr(StepLayout, 0, err))
	}
	pages := doc.PageCount()
	if len(regions) != pages {
		return fail(stepErr(StepLayout, 0, fmt.Errorf("%w: analyzer found %d pages, document has %d",
			layout.ErrExtraction, len(regions), pages)))
	}
	if err := identity.CheckRange(req.StartNumber, pages); err != nil {
		return fail(stepErr(StepIdentity, 0, err))
	}
	progress.SetTotalPages(pages)
	log.Info("document loaded", "pages", pages, "start", req.StartNumber)

	// Phase 2: Stamp
	progress.SetStatus(StatusStamping, "stamping")
	result := &Result{RunID: req.RunID, Pages: make([]PageResult, 0, pages)}
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return fail(stepErr(StepCanceled, i+1, err))
		}
		pr, err := r.stampPage(doc, i, req.BaseID, req.StartNumber+i, regions[i])
		if err != nil {
			return fail(err)
		}
		result.Pages = append(result.Pages, pr)
		progress.PageStamped(pr)
		r.stats.Record(pr.Duration.Milliseconds(), pr.Placement.Candidate)
		log.Debug("page stamped",
			"page", i+1,
			"identity", pr.Identity,
			"slot", pr.Placement.Candidate,
			"x", pr.Placement.X,
			"y", pr.Placement.Y,
		)
	}

	// Phase 3: Write
	progress.SetStatus(StatusWriting, "writing")
	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		return fail(stepErr(StepWrite, 0, err))
	}
	if err := req.Output.Commit(out.Bytes()); err != nil {
		return fail(stepErr(StepWrite, 0, err))
	}

	// Phase 4: Remember where the sequence stopped.
	if pages > 0 {
		result.FirstIdentity = result.Pages[0].Identity
		result.LastIdentity, _ = identity.Derive(req.BaseID, req.StartNumber+pages-1)
		if err := r.store.Save(ctx, result.LastIdentity); err != nil {
			result.StateWarning = fmt.Errorf("save last barcode: %w", err)
			log.Warn("document written but last barcode not saved", "error", err)
		}
	}

	progress.SetStatus(StatusCompleted, "done")
	log.Info("run complete", "pages", pages, "first", result.FirstIdentity, "last", result.LastIdentity)
	return result, nil
}

// stampPage derives the identity for page i, renders it into a scratch
// buffer, picks the placement and merges the stamp onto the page.
func (r *Runner) stampPage(doc Document, i int, base string, n int, regions []layout.Rect) (PageResult, error) {
	start := time.Now()
	page := i + 1

	id, err := identity.Derive(base, n)
	if err != nil {
		return PageResult{}, stepErr(StepIdentity, page, err)
	}

	buf := r.scratch.acquire()
	defer r.scratch.release(buf)

	if err := r.renderer.RenderPNG(buf, id); err != nil {
		return PageResult{}, stepErr(StepRender, page, fmt.Errorf("%w: %w", compositor.ErrComposition, err))
	}

	box, err := doc.PageBox(i)
	if err != nil {
		return PageResult{}, stepErr(StepPlace, page, err)
	}
	p := placement.Choose(shift(regions, -box.X0, -box.Y0), r.stamp, box.Width(), box.Height())
	p.X += box.X0
	p.Y += box.Y0

	if err := doc.Stamp(i, buf.Bytes(), p.Point, r.stamp); err != nil {
		return PageResult{}, stepErr(StepStamp, page, err)
	}

	return PageResult{
		Index:     i,
		Identity:  id,
		Placement: p,
		Duration:  time.Since(start),
	}, nil
}

// shift moves regions into the coordinate space of a box whose lower-left
// corner is the origin.
func shift(regions []layout.Rect, dx, dy float64) []layout.Rect {
	if dx == 0 && dy == 0 {
		return regions
	}
	out := make([]layout.Rect, len(regions))
	for i, r := range regions {
		out[i] = r.Translate(dx, dy)
	}
	return out
}

// scratch hands out the per-page raster buffers and counts the live ones.
type scratch struct {
	live atomic.Int64
}

func (s *scratch) acquire() *bytes.Buffer {
	s.live.Add(1)
	return new(bytes.Buffer)
}

func (s *scratch) release(b *bytes.Buffer) {
	b.Reset()
	s.live.Add(-1)
}
