// Package fileutil holds file copy and move helpers used when publishing the
// final artifact into the results directory.
package fileutil
