// Package metrics records the outcome of a single vodsub run as Prometheus
// gauges and writes them in the text exposition format for node_exporter's
// textfile collector. vodsub is a one-shot process, so each run replaces the
// previous file rather than accumulating counters.
package metrics
