package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// RunStatus represents the state of a stamping run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusAnalyzing RunStatus = "analyzing"
	StatusStamping  RunStatus = "stamping"
	StatusWriting   RunStatus = "writing"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Progress receives updates while a run executes.
type Progress interface {
	SetStatus(status RunStatus, phase string)
	SetTotalPages(n int)
	PageStamped(pr PageResult)
	AddError(err string)
}

type nopProgress struct{}

func (nopProgress) SetStatus(RunStatus, string) {}
func (nopProgress) SetTotalPages(int)           {}
func (nopProgress) PageStamped(PageResult)      {}
func (nopProgress) AddError(string)             {}

// Run tracks the state of a single stamping run.
type Run struct {
	mu sync.Mutex

	ID       string
	Filename string
	BaseID   string
	Start    int

	Status RunStatus
	Phase  string

	TotalPages   int
	PagesStamped int
	First        string
	Last         string
	Warning      string

	SourceHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	errors []string
}

// NewRun creates a queued run record for the given source.
func NewRun(id, filename, baseID string, start int, source []byte) *Run {
	now := time.Now()
	return &Run{
		ID:         id,
		Filename:   filename,
		BaseID:     baseID,
		Start:      start,
		Status:     StatusQueued,
		Phase:      "queued",
		SourceHash: ContentHashHex(source),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

func (r *Run) SetTotalPages(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TotalPages = n
	r.UpdatedAt = time.Now()
}

// PageStamped records one finished page.
func (r *Run) PageStamped(pr PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PagesStamped++
	if r.First == "" {
		r.First = pr.Identity
	}
	r.Last = pr.Identity
	r.UpdatedAt = time.Now()
}

// AddError records an error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.UpdatedAt = time.Now()
}

func (r *Run) setWarning(w string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warning = w
	r.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID           string    `json:"run_id"`
	Filename     string    `json:"filename"`
	BaseID       string    `json:"base_id"`
	Start        int       `json:"start"`
	Status       RunStatus `json:"status"`
	Phase        string    `json:"phase"`
	TotalPages   int       `json:"total_pages"`
	PagesStamped int       `json:"pages_stamped"`
	First        string    `json:"first,omitempty"`
	Last         string    `json:"last,omitempty"`
	Warning      string    `json:"warning,omitempty"`
	SourceHash   string    `json:"source_hash"`
	Errors       []string  `json:"errors"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]string, len(r.errors))
	copy(errs, r.errors)
	return RunSnapshot{
		ID:           r.ID,
		Filename:     r.Filename,
		BaseID:       r.BaseID,
		Start:        r.Start,
		Status:       r.Status,
		Phase:        r.Phase,
		TotalPages:   r.TotalPages,
		PagesStamped: r.PagesStamped,
		First:        r.First,
		Last:         r.Last,
		Warning:      r.Warning,
		SourceHash:   r.SourceHash,
		Errors:       errs,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *Run) updatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpdatedAt
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if now.Sub(run.updatedAt()) > s.ttl {
			delete(s.runs, id)
		}
	}
}

// Len returns the number of tracked runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
