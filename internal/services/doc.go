// Package services defines shared utilities consumed by the pipeline stages
// and the command-line entrypoint.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (missing dependency, tool failure, validation, configuration).
//   - ExitCode, which turns a pipeline error into the process exit status and
//     propagates a failing tool's own status unchanged.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
