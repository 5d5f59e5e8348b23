package pipeline

import (
	"errors"
	"fmt"
)

// ErrMissingInput means the source document does not exist.
var ErrMissingInput = errors.New("input file not found")

// Step names the pipeline phase that failed.
type Step string

const (
	StepRead     Step = "read"
	StepLayout   Step = "layout"
	StepIdentity Step = "identity"
	StepRender   Step = "render"
	StepPlace    Step = "place"
	StepStamp    Step = "stamp"
	StepWrite    Step = "write"
	StepCanceled Step = "canceled"
)

// StepError is the single terminal error of a failed run. Page is 1-based,
// or 0 when the failure is not tied to a page.
type StepError struct {
	Step Step
	Page int
	Err  error
}

func (e *StepError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s page %d: %v", e.Step, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step Step, page int, err error) error {
	return &StepError{Step: step, Page: page, Err: err}
}
