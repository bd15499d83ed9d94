// Package pipeline orchestrates a vodsub run.
//
// Order of operations:
//
//  1. check external tools and the speech model (no disk writes before this)
//  2. create directories, sweep stale workspaces, lock the result path
//  3. create the run workspace and register its cleanup
//  4. fetch, extract, transcribe, mux, publish
//
// The first failing stage aborts the run. Its error keeps the tool's exit
// status so services.ExitCode can report it unchanged.
package pipeline
