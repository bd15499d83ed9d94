package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vodsub/internal/logging"
	"vodsub/internal/metrics"
	"vodsub/internal/services"
)

// Stage names as they appear in logs, errors and the run ledger.
const (
	StageFetch      = "fetch"
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageMux        = "mux"
	StagePublish    = "publish"
)

// stageFunc does the work of one stage.
type stageFunc func(ctx context.Context) error

// stageError remembers which stage failed so the ledger can record it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// runStage executes fn with stage-scoped logging. A failure caused by context
// cancellation is tagged with services.ErrCanceled.
func runStage(ctx context.Context, logger *slog.Logger, rec *metrics.Run, name string, fn stageFunc) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)
	started := time.Now()

	err := fn(stageCtx)
	rec.ObserveStage(name, time.Since(started))
	if err != nil && ctx.Err() != nil {
		err = services.Wrap(services.ErrCanceled, name, "run", "interrupted", err)
	}
	if err != nil {
		details := services.Details(err)
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String(logging.FieldErrorHint, failureHint(details.Kind)),
			logging.String("error_kind", details.Kind),
			logging.Int("exit_code", details.ExitCode),
			logging.String("error_message", strings.TrimSpace(details.Message)),
			logging.Duration("elapsed", time.Since(started)),
		)
		return &stageError{stage: name, err: err}
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func failureHint(kind string) string {
	switch kind {
	case "external_tool":
		return "the tool's own output is included in error_message"
	case "missing_dependency":
		return "run vodsub deps"
	case "validation":
		return "the previous stage produced no usable output; check its log lines"
	case "configuration":
		return "check the configuration file and directory permissions"
	case "canceled":
		return "rerun to start over; partial files were removed"
	default:
		return "check logs for details"
	}
}
