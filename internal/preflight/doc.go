// Package preflight provides readiness checks for the external tools and
// filesystem paths vodsub depends on.
//
// RequireTools runs before anything is written to disk: a missing downloader,
// transcoder, speech engine or speech model aborts the run with a
// missing-dependency error and a remediation hint. Directory checks run once
// the work and results directories exist. The "vodsub deps" command reuses
// CheckSystemDeps to render the same requirement list.
package preflight
