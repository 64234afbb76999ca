package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AntoniaR/tkp/pkg/report"
	"github.com/AntoniaR/tkp/pkg/resolver"
	"github.com/pkg/errors"
)

type (
	// DB defines the database operations required by the executor. It is
	// satisfied by *postgres.Client and is small enough to mock in tests.
	DB interface {
		// Begin opens the transaction that bounds one script's unit of work.
		Begin(ctx context.Context) (Tx, error)
	}

	// Tx is a single script's unit of work. All statements in a script
	// succeed or none do, as seen by subsequent scripts.
	Tx interface {
		Exec(ctx context.Context, sql string, args ...any) error
		Commit() error
		Rollback() error
	}

	// Executor applies resolved scripts against a live database connection,
	// strictly in manifest order.
	//
	// Manifest order is the only dependency mechanism: there is no
	// topological inference, so the manifest author's ordering is the sole
	// source of truth for dependency correctness (tables before the
	// functions that query them, every definitional object before the views
	// that reference it).
	//
	// Each script runs as one transaction. On failure the default policy is
	// fail-fast: no further scripts are attempted and nothing already
	// committed is rolled back - a failed run leaves a partially built
	// schema by design, and recovery is fixing the script and rerunning
	// against a clean database.
	//
	// Scripts are assumed NOT idempotent. Rerunning an already-applied
	// manifest against a non-empty database is expected to fail with
	// object-already-exists errors; that is a declared constraint, not a
	// bug.
	Executor struct {
		db     DB
		policy Policy
		logger *slog.Logger
		state  State
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// DB is the database connection the run executes against. The
		// executor owns no connection state; the caller acquires and
		// releases it around the whole run.
		DB DB

		// Policy controls failure handling and per-script timeouts.
		Policy Policy

		// Logger receives per-script progress. Defaults to slog.Default().
		Logger *slog.Logger
	}

	// Policy is the recognized failure-handling configuration for a run.
	Policy struct {
		// FailFast aborts the run at the first script failure. When false
		// (continue-on-error), failures are recorded and the loop proceeds,
		// which is useful for collecting all errors in one pass at the cost
		// of running scripts whose preconditions may now be missing.
		FailFast bool

		// PerScriptTimeout bounds each script's unit of work. Zero means no
		// timeout. A timed-out script's transaction is rolled back, never
		// partially committed.
		PerScriptTimeout time.Duration
	}

	// State is the executor's lifecycle state.
	State string

	// ScriptError reports a script whose statements failed against the
	// database. It carries the script's identity, manifest position,
	// category, and the underlying database error.
	ScriptError struct {
		Script *resolver.Script
		Err    error
	}
)

const (
	// StateIdle means the executor has not started
	StateIdle State = "idle"

	// StateRunning means the execution loop is in progress
	StateRunning State = "running"

	// StateCompleted means every script was attempted and none failed
	StateCompleted State = "completed"

	// StateAborted means a script failed and the run halted or, under
	// continue-on-error, finished with failures recorded
	StateAborted State = "aborted"

	// StateCancelled means the caller cancelled the run mid-flight
	StateCancelled State = "cancelled"
)

// ErrCancelled is returned by Execute when the run ended due to external
// cancellation rather than completing or aborting on a script failure.
var ErrCancelled = errors.New("bootstrap run cancelled")

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s (position %d, category %s) failed: %v",
		e.Script.Entry.RelativePath,
		e.Script.Entry.SequenceIndex,
		e.Script.Entry.Category,
		e.Err,
	)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// DefaultPolicy returns the default run policy: fail-fast, no per-script
// timeout.
func DefaultPolicy() Policy {
	return Policy{FailFast: true}
}

// New creates an executor in the Idle state.
//
// Example:
//
//	exec := executor.New(executor.Config{
//		DB:     client,
//		Policy: executor.DefaultPolicy(),
//	})
//
//	rpt, err := exec.Execute(ctx, scripts)
func New(config Config) *Executor {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		db:     config.DB,
		policy: config.Policy,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the executor's current lifecycle state.
func (e *Executor) State() State { return e.state }

// Execute runs the resolved scripts strictly in manifest order, one
// transaction per script, and returns the finalized report.
//
// The returned error is non-nil only for executor misuse (a reused executor)
// or external cancellation (ErrCancelled). Script failures are not returned
// as errors; they are recorded in the report, whose summary carries the
// verdict and the first failure's detail.
//
// The execution model is strictly sequential: one script at a time on one
// connection, each fully committed before the next begins.
func (e *Executor) Execute(ctx context.Context, scripts []*resolver.Script) (*report.Report, error) {
	if e.state != StateIdle {
		return nil, errors.Errorf("executor has already run (state %s)", e.state)
	}
	e.state = StateRunning

	rpt := report.New()
	rpt.ContinueOnError = !e.policy.FailFast
	defer rpt.Finalize()

	for i, script := range scripts {
		if ctx.Err() != nil {
			e.skipRemaining(rpt, scripts[i:])
			e.state = StateCancelled
			return rpt, errors.Wrap(ErrCancelled, ctx.Err().Error())
		}

		e.logger.Info("Executing script",
			"path", script.Entry.RelativePath,
			"position", script.Entry.SequenceIndex,
			"category", script.Entry.Category,
		)

		outcome := e.executeScript(ctx, script)
		rpt.Append(outcome)

		if outcome.Status != report.StatusFailed {
			continue
		}

		e.logger.Error("Script failed",
			"path", script.Entry.RelativePath,
			"position", script.Entry.SequenceIndex,
			"error", outcome.ErrorDetail,
		)

		// Cancellation mid-script: the in-flight transaction was rolled
		// back. Remaining scripts are decided as skipped.
		if ctx.Err() != nil {
			e.skipRemaining(rpt, scripts[i+1:])
			e.state = StateCancelled
			return rpt, errors.Wrap(ErrCancelled, ctx.Err().Error())
		}

		if e.policy.FailFast {
			// No outcomes are recorded for scripts beyond the failure.
			e.state = StateAborted
			return rpt, nil
		}
	}

	if rpt.Summary().Failed > 0 {
		e.state = StateAborted
	} else {
		e.state = StateCompleted
	}

	return rpt, nil
}

// executeScript runs one script inside its own transaction and returns the
// decided outcome.
func (e *Executor) executeScript(ctx context.Context, script *resolver.Script) *report.Outcome {
	runCtx := ctx
	if e.policy.PerScriptTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.policy.PerScriptTimeout)
		defer cancel()
	}

	start := time.Now()

	fail := func(err error) *report.Outcome {
		scriptErr := &ScriptError{Script: script, Err: err}
		return &report.Outcome{
			Entry:       script.Entry,
			Status:      report.StatusFailed,
			ErrorDetail: scriptErr.Error(),
			Duration:    time.Since(start),
		}
	}

	tx, err := e.db.Begin(runCtx)
	if err != nil {
		return fail(errors.Wrap(err, "failed to begin transaction"))
	}

	if err := tx.Exec(runCtx, script.Content); err != nil {
		_ = tx.Rollback()
		return fail(err)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fail(errors.Wrap(err, "failed to commit"))
	}

	return &report.Outcome{
		Entry:    script.Entry,
		Status:   report.StatusSuccess,
		Duration: time.Since(start),
	}
}

// skipRemaining records a Skipped outcome for every script the cancelled run
// never attempted, so the report stays a complete ordered account.
func (e *Executor) skipRemaining(rpt *report.Report, remaining []*resolver.Script) {
	for _, script := range remaining {
		rpt.Append(&report.Outcome{
			Entry:  script.Entry,
			Status: report.StatusSkipped,
		})
	}
}
