// Package report aggregates per-script outcomes into the final account of a
// bootstrap run.
//
// The report is created empty when a run starts, grows monotonically as
// scripts are decided, and is finalized read-only when the run ends. The
// overall verdict is derived, never stored: a run succeeded iff no outcome
// failed. Summarization is a pure function over the outcome sequence so the
// ordering contract can be tested independently of execution.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/AntoniaR/tkp/pkg/manifest"
)

type (
	// Status represents the decided fate of a single script.
	Status string

	// Outcome records one attempted script. Outcomes are appended in
	// execution order and are immutable once recorded.
	Outcome struct {
		// Entry identifies the script: path, category, manifest position.
		Entry manifest.Entry

		// Status is the decided fate of this script.
		Status Status

		// ErrorDetail carries the underlying database error message for
		// failed scripts. Empty otherwise.
		ErrorDetail string

		// Duration is how long the script's unit of work took.
		Duration time.Duration
	}

	// Report is the ordered sequence of outcomes for a run plus the derived
	// overall verdict.
	Report struct {
		// ContinueOnError records whether the run collected failures instead
		// of halting at the first one. When set, failures after the first
		// may be downstream casualties of missing preconditions rather than
		// defects in the failing script itself.
		ContinueOnError bool

		outcomes  []*Outcome
		finalized bool
	}

	// Summary is the condensed verdict of a run.
	Summary struct {
		OverallSuccess bool
		Succeeded      int
		Failed         int
		Skipped        int

		// FirstFailure is the primary diagnostic: the earliest failed
		// outcome, or nil when the run succeeded.
		FirstFailure *Outcome
	}
)

const (
	// StatusSuccess indicates the script's unit of work committed
	StatusSuccess Status = "success"

	// StatusFailed indicates the script's unit of work rolled back
	StatusFailed Status = "failed"

	// StatusSkipped indicates the script was never attempted (e.g. the run
	// aborted or was cancelled before reaching it)
	StatusSkipped Status = "skipped"
)

// New creates an empty report for a run about to start.
func New() *Report {
	return &Report{}
}

// Append records an outcome in execution order. Appends after Finalize are
// ignored; a finalized report is read-only.
func (r *Report) Append(o *Outcome) {
	if r.finalized {
		return
	}
	r.outcomes = append(r.outcomes, o)
}

// Finalize marks the report read-only. Called exactly once by the executor
// when the run ends, whether by completion, abort, or cancellation.
func (r *Report) Finalize() {
	r.finalized = true
}

// Finalized reports whether the run has ended.
func (r *Report) Finalized() bool { return r.finalized }

// Outcomes returns the outcomes recorded so far, in execution order. The
// returned slice is a copy; the report's own sequence cannot be reordered or
// truncated through it.
func (r *Report) Outcomes() []*Outcome {
	out := make([]*Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Len returns the number of recorded outcomes.
func (r *Report) Len() int { return len(r.outcomes) }

// Summary derives the condensed verdict from the outcome sequence. Pure; no
// side effects.
func (r *Report) Summary() Summary {
	return Summarize(r.outcomes)
}

// Summarize computes the verdict for an outcome sequence. The overall status
// is success iff every outcome succeeded; otherwise the first failed outcome
// is carried as the primary diagnostic. Later failures (possible under
// continue-on-error) remain enumerable via the outcomes themselves.
func Summarize(outcomes []*Outcome) Summary {
	s := Summary{OverallSuccess: true}

	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
			s.OverallSuccess = false
			if s.FirstFailure == nil {
				s.FirstFailure = o
			}
		case StatusSkipped:
			s.Skipped++
			s.OverallSuccess = false
		}
	}

	return s
}

// WriteSummary renders the human-readable account of the run. Programmatic
// callers should use Summary and Outcomes instead; this rendering exists for
// CLI output and is golden-tested.
func (r *Report) WriteSummary(w io.Writer) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bootstrap execution results:")
	fmt.Fprintln(w)

	for _, o := range r.outcomes {
		switch o.Status {
		case StatusSuccess:
			fmt.Fprintf(w, "  ✅ %s completed in %v\n", o.Entry.RelativePath, o.Duration)

		case StatusFailed:
			fmt.Fprintf(w, "  ❌ %s failed after %v\n", o.Entry.RelativePath, o.Duration)
			if o.ErrorDetail != "" {
				fmt.Fprintf(w, "     Error: %s\n", o.ErrorDetail)
			}

		case StatusSkipped:
			fmt.Fprintf(w, "  ⏭  %s (not attempted)\n", o.Entry.RelativePath)
		}
	}

	s := r.Summary()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d successful, %d failed, %d skipped\n", s.Succeeded, s.Failed, s.Skipped)

	if s.Failed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "❌ Bootstrap failed at %s (position %d, category %s).\n",
			s.FirstFailure.Entry.RelativePath,
			s.FirstFailure.Entry.SequenceIndex,
			s.FirstFailure.Entry.Category,
		)
		fmt.Fprintln(w, "   Fix the script and rerun against a clean database.")

		if r.ContinueOnError && s.Failed > 1 {
			fmt.Fprintln(w, "   Note: later failures may be downstream of the first one (continue-on-error was enabled).")
		}
		return nil
	}

	if s.OverallSuccess && s.Succeeded > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "✅ All scripts executed successfully.")
	}

	return nil
}
