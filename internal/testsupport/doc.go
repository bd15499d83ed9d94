// Package testsupport provides test helpers shared across vodsub packages:
// temp-directory configs, placeholder files and shell stubs standing in for
// the downloader, transcoder and speech engine.
package testsupport
