package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vodsub"

// Run holds the gauges describing one pipeline run. A nil *Run is valid and
// records nothing.
type Run struct {
	registry *prometheus.Registry

	success       prometheus.Gauge
	exitCode      prometheus.Gauge
	duration      prometheus.Gauge
	finished      prometheus.Gauge
	resultBytes   prometheus.Gauge
	status        *prometheus.GaugeVec
	stageDuration *prometheus.GaugeVec
}

// NewRun creates gauges on a private registry.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run produced a subtitled file, 0 otherwise.",
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_exit_code",
			Help:      "Process exit status of the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run in seconds.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		resultBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_result_bytes",
			Help:      "Size of the published result file in bytes.",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_status",
			Help:      "Outcome of the last run; the series for the outcome is 1.",
		}, []string{"status", "failed_stage"}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_stage_duration_seconds",
			Help:      "Wall time spent in each stage of the last run.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(
		r.success,
		r.exitCode,
		r.duration,
		r.finished,
		r.resultBytes,
		r.status,
		r.stageDuration,
	)
	return r
}

// ObserveStage records how long a stage ran, whether or not it succeeded.
func (r *Run) ObserveStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Set(elapsed.Seconds())
}

// Outcome summarizes a finished run.
type Outcome struct {
	Status      string
	FailedStage string
	ExitCode    int
	Elapsed     time.Duration
	ResultBytes int64
	FinishedAt  time.Time
}

// Finish records the run outcome.
func (r *Run) Finish(outcome Outcome) {
	if r == nil {
		return
	}
	if outcome.ExitCode == 0 {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
	r.exitCode.Set(float64(outcome.ExitCode))
	r.duration.Set(outcome.Elapsed.Seconds())
	r.resultBytes.Set(float64(outcome.ResultBytes))
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = time.Now()
	}
	r.finished.Set(float64(outcome.FinishedAt.UnixNano()) / float64(time.Second))
	r.status.WithLabelValues(outcome.Status, outcome.FailedStage).Set(1)
}

// Gatherer exposes the registry, mainly for tests.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the gauges to path. The parent directory is created if
// needed; prometheus.WriteToTextfile replaces the file atomically.
func (r *Run) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
