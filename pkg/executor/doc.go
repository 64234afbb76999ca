// Package executor applies resolved schema scripts against a live database,
// strictly in manifest order, inside one transaction per script.
//
// # Execution Model
//
// The executor is a small state machine: Idle → Running → {Completed,
// Aborted, Cancelled}. Scripts run one at a time on one connection; each
// script's transaction fully commits before the next begins. There is no
// concurrency across scripts because later scripts depend on objects created
// by earlier ones - the manifest order IS the dependency contract.
//
// # Failure Handling
//
//   - Fail-fast (default): the first script failure halts the run. Nothing
//     already committed is rolled back; bootstrap is not reversible by this
//     component.
//   - Continue-on-error: failures are recorded and the loop proceeds, useful
//     for collecting every error in one pass. Later failures may be
//     downstream casualties of missing preconditions and the rendered report
//     says so.
//
// # Cancellation and Timeouts
//
// Context cancellation between scripts ends the run with only fully-decided
// outcomes; mid-script, the in-flight transaction rolls back so no script is
// ever half-committed. A per-script timeout behaves like any other script
// failure: rollback, abort. No retries are performed; re-invocation by the
// caller against a clean database is the only recovery path.
//
// # Usage
//
//	exec := executor.New(executor.Config{
//		DB:     client,
//		Policy: executor.DefaultPolicy(),
//	})
//
//	rpt, err := exec.Execute(ctx, scripts)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	summary := rpt.Summary()
//	if !summary.OverallSuccess {
//		fmt.Println("first failure:", summary.FirstFailure.ErrorDetail)
//	}
package executor
