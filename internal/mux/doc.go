// Package mux embeds the subtitle sidecar into the fetched container and
// publishes the muxed file into the results directory under an exclusive
// per-result lock.
package mux
