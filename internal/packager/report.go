package packager

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/fwpack/internal/fsops"
)

const banner = "++++++++++++++++++++++++++++++++++++++++++++++++++"

// StepResult is the outcome of one packaging step.
type StepResult struct {
	Step     string
	Source   string
	Dest     string
	Err      error
	Duration time.Duration
}

// OK reports whether the step succeeded.
func (s StepResult) OK() bool { return s.Err == nil }

// Report collects every step of a run in execution order.
type Report struct {
	RunID     string
	Plan      Plan
	StartedAt time.Time
	Duration  time.Duration
	Steps     []StepResult
	// Listing is the output dir content after the run; nil when it could not be read.
	Listing []string
}

// Failures returns the steps that failed.
func (r *Report) Failures() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if !s.OK() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Succeeded reports whether every step succeeded.
func (r *Report) Succeeded() bool {
	return len(r.Failures()) == 0
}

// Outcome is "success" or "partial".
func (r *Report) Outcome() string {
	if r.Succeeded() {
		return "success"
	}
	return "partial"
}

// Produced lists the versioned outputs that exist after the run.
func (r *Report) Produced() []string {
	var files []string
	for _, f := range r.Plan.Outputs() {
		if fsops.IsFile(f) {
			files = append(files, f)
		}
	}
	return files
}

// Step returns the first result recorded for name.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// WriteListing prints the output dir content framed by banners.
func (r *Report) WriteListing(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\nGenerated distribution files\n", banner); err != nil {
		return err
	}
	for _, p := range r.Listing {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, banner)
	return err
}
