// Package transcribe drives the whisper.cpp command line to turn a waveform
// into an SRT subtitle sidecar written next to it.
package transcribe
