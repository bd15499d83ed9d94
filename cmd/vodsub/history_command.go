package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vodsub/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			path := cfg.HistoryPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(stdout, "No runs recorded yet")
				return nil
			}
			store, err := history.Open(path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(stdout, "No runs recorded yet")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(historyColumns, historyRows(runs, shouldColorize(stdout), time.Now())))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of runs to show")
	return cmd
}

var historyColumns = []column{
	left("Run"),
	left("Started"),
	left("Status"),
	left("Range"),
	right("Took"),
	right("Exit"),
	truncated("Result", 60),
}

func historyRows(runs []history.Run, colorize bool, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		took := "-"
		if run.FinishedAt != nil {
			took = run.Duration().Round(time.Second).String()
		}
		result := run.OutputPath
		if run.Status != history.StatusSucceeded && run.Status != history.StatusRunning {
			result = run.ErrorMessage
			if run.FailedStage != "" {
				result = fmt.Sprintf("[%s] %s", run.FailedStage, run.ErrorMessage)
			}
		}
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			paint(string(run.Status), historyStatusKind(run.Status), colorize),
			run.TimeRange,
			took,
			strconv.Itoa(run.ExitCode),
			result,
		})
	}
	return rows
}

func historyStatusKind(status history.Status) statusKind {
	switch status {
	case history.StatusSucceeded:
		return statusOK
	case history.StatusFailed:
		return statusError
	case history.StatusCanceled:
		return statusWarn
	default:
		return statusInfo
	}
}
