// Package workspace owns the per-run scratch directory.
//
// Each run gets a directory named by its run ID under the configured work
// root. It holds the fetched container, the waveform, the subtitle sidecar and
// the muxed staging file. Cleanup removes it. CleanStale sweeps run
// directories abandoned by killed processes and ignores anything not named
// like a run ID.
package workspace
