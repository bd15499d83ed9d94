package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"vodsub/internal/logging"
	"vodsub/internal/metrics"
	"vodsub/internal/services"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestRunStageLogsFailureWithHint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	exitErr := exec.Command("sh", "-c", "exit 4").Run()
	toolErr := services.Wrap(services.ErrExternalTool, StageFetch, "download", "downloader failed", exitErr)

	rec := metrics.NewRun()
	err = runStage(context.Background(), logger, rec, StageFetch, func(context.Context) error { return toolErr })
	if FailedStage(err) != StageFetch || services.ExitCode(err) != 4 {
		t.Fatalf("unexpected stage error %v (stage %q, exit %d)", err, FailedStage(err), services.ExitCode(err))
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected start and failure lines, got %d", len(entries))
	}
	failure := entries[1]
	if failure["msg"] != "stage failed" || failure["event_type"] != "stage_failure" || failure["stage"] != StageFetch {
		t.Fatalf("unexpected failure entry %v", failure)
	}
	if failure["error_kind"] != "external_tool" || failure["exit_code"] != float64(4) {
		t.Fatalf("unexpected failure classification %v", failure)
	}
	if hint, _ := failure["error_hint"].(string); !strings.Contains(hint, "error_message") {
		t.Fatalf("expected tool hint, got %v", failure["error_hint"])
	}
	if !stageObserved(t, rec, StageFetch) {
		t.Fatalf("expected fetch duration recorded for a failed stage")
	}
}

func stageObserved(t *testing.T, rec *metrics.Run, stage string) bool {
	t.Helper()
	families, err := rec.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "vodsub_last_run_stage_duration_seconds" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "stage" && label.GetValue() == stage {
					return true
				}
			}
		}
	}
	return false
}

func TestRunStageTagsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runStage(ctx, logging.NewNop(), nil, StageTranscribe, func(ctx context.Context) error {
		return ctx.Err()
	})
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled marker, got %v", err)
	}
	if services.ExitCode(err) != services.ExitCanceled {
		t.Fatalf("expected exit %d, got %d", services.ExitCanceled, services.ExitCode(err))
	}
	if FailedStage(err) != StageTranscribe {
		t.Fatalf("expected transcribe stage, got %q", FailedStage(err))
	}
}

func TestFailureHintCoversKinds(t *testing.T) {
	for _, kind := range []string{"external_tool", "missing_dependency", "validation", "configuration", "canceled"} {
		if failureHint(kind) == failureHint("unknown") {
			t.Fatalf("expected a specific hint for %s", kind)
		}
	}
}
