// Package fetch retrieves the source media for a run.
//
// Whole-source requests go straight through the downloader with a prioritized
// format selector. Bounded requests resolve direct stream URLs first and let
// the transcoder cut the requested window, so only that window is transferred.
package fetch
