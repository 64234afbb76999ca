// Package cmd provides the tkpdb CLI commands.
//
// The command surface is a thin shell over the core packages: manifest
// loading, eager script resolution, the transactional executor, and the
// execution report. Rendering and exit codes live here; ordering and failure
// semantics live in pkg/executor.
//
// Commands:
//   - init: scaffold a new project (tkpdb.yaml, schema root, manifest)
//   - verify: eagerly resolve the manifest without touching a database
//   - bootstrap: apply the manifest to the target database
//   - dev: apply the manifest to a disposable PostgreSQL container
package cmd
