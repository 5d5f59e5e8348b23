package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Orchestrator runs stamping requests for the HTTP service one document at
// a time and keeps a short-lived record of each run.
type Orchestrator struct {
	runner *Runner
	runs   *RunStore
	log    *slog.Logger

	// mu serializes runs; pages of one document are never interleaved with
	// another document or with another state update.
	mu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stamped is the outcome of one orchestrated run. Run is set even when the
// run failed.
type Stamped struct {
	Run    *Run
	Result *Result
	PDF    []byte
}

func NewOrchestrator(runner *Runner, runTTL time.Duration, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		runs:   NewRunStore(runTTL),
		log:    log,
	}
}

// Start launches the run record cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop shuts down the cleanup loop and waits for any in-flight run.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.mu.Lock()
	defer o.mu.Unlock()
}

// Stamp runs the pipeline over source and returns the stamped document.
func (o *Orchestrator) Stamp(ctx context.Context, filename string, source []byte, baseID string, start int) (Stamped, error) {
	run := NewRun(uuid.NewString(), filename, baseID, start, source)
	o.runs.Put(run)

	o.mu.Lock()
	defer o.mu.Unlock()

	out := &MemoryOutput{}
	res, err := o.runner.Run(ctx, Request{
		RunID:       run.ID,
		Source:      source,
		BaseID:      baseID,
		StartNumber: start,
		Output:      out,
		Progress:    run,
	})
	if err != nil {
		return Stamped{Run: run}, err
	}
	if res.StateWarning != nil {
		run.setWarning(res.StateWarning.Error())
	}
	return Stamped{Run: run, Result: res, PDF: out.Data}, nil
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// Runner returns the pipeline runner for direct use by API handlers.
func (o *Orchestrator) Runner() *Runner {
	return o.runner
}
