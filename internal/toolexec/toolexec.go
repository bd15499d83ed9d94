// Package toolexec runs the external programs the pipeline wraps.
//
// Every stage depends on RunFunc or OutputFunc rather than os/exec directly so
// tests can inject fakes. Errors keep the *exec.ExitError in their chain,
// which lets callers propagate the tool's exit status unchanged.
package toolexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunFunc executes name with args and waits for it to finish.
type RunFunc func(ctx context.Context, name string, args ...string) error

// OutputFunc executes name with args and returns its standard output.
type OutputFunc func(ctx context.Context, name string, args ...string) (string, error)

// maxDiagnostic bounds how much tool output is folded into an error message.
const maxDiagnostic = 2048

// Run executes the command, capturing combined output for the error message.
func Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, diagnostic(output))
	}
	return nil
}

// Output executes the command and returns stdout. Stderr only appears in the
// error message.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		return string(stdout), fmt.Errorf("%s: %w: %s", name, err, diagnostic(stderr.Bytes()))
	}
	return string(stdout), nil
}

func diagnostic(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > maxDiagnostic {
		text = "..." + text[len(text)-maxDiagnostic:]
	}
	return text
}
