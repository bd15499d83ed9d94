package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vodsub/internal/config"
	"vodsub/internal/deps"
	"vodsub/internal/preflight"
	"vodsub/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, the speech model and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			statuses := preflight.CheckSystemDeps(cfg)
			model := preflight.CheckModelFile(cfg.Speech.ModelPath)
			missing := len(deps.Missing(statuses))
			if !model.Passed {
				missing++
			}

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderTable(
				[]column{left("Requirement"), left("Command"), left("Status"), truncated("Detail", 72)},
				dependencyRows(statuses, model, colorize),
			))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(stdout, line)
			}
			writeDirectoryLines(stdout, cfg, colorize)
			fmt.Fprintln(stdout)

			if missing == 0 {
				fmt.Fprintln(stdout, renderStatusLine("Summary", statusOK, "all requirements met", colorize))
				return nil
			}
			fmt.Fprintln(stdout, renderStatusLine("Summary", statusError, fmt.Sprintf("%d requirement(s) missing", missing), colorize))
			return services.Wrap(services.ErrMissingDependency, "deps", "", fmt.Sprintf("%d requirement(s) missing", missing), nil)
		},
	}
}

func dependencyRows(statuses []deps.Status, model preflight.Result, colorize bool) [][]string {
	rows := make([][]string, 0, len(statuses)+1)
	for _, status := range statuses {
		if status.Available {
			rows = append(rows, []string{status.Name, status.Command, renderStatusCell(statusOK, colorize), status.Path})
			continue
		}
		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		if status.Hint != "" {
			detail += "; " + status.Hint
		}
		rows = append(rows, []string{status.Name, status.Command, renderStatusCell(statusError, colorize), detail})
	}
	modelKind := statusOK
	if !model.Passed {
		modelKind = statusError
	}
	rows = append(rows, []string{model.Name, "", renderStatusCell(modelKind, colorize), model.Detail})
	return rows
}

func writeDirectoryLines(w io.Writer, cfg *config.Config, colorize bool) {
	for _, dir := range []struct{ label, path string }{
		{"Work directory", cfg.Paths.WorkDir},
		{"Results directory", cfg.Paths.ResultsDir},
		{"State directory", cfg.Paths.StateDir},
	} {
		if _, err := os.Stat(dir.path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(w, renderStatusLine(dir.label, statusInfo, fmt.Sprintf("%s (created on first run)", dir.path), colorize))
			continue
		}
		result := preflight.CheckDirectoryAccess(dir.label, dir.path)
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(w, renderStatusLine(dir.label, kind, result.Detail, colorize))
	}
}
