// Package logging assembles structured slog loggers and formatting helpers used
// across vodsub.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with the run ID and stage name. Diagnostics go to stderr so stdout stays
// free for command output. The package also provides a no-op logger for tests.
package logging
