package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vodsub/internal/logging"
	"vodsub/internal/workspace"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove run workspaces left behind by interrupted runs",
		Long: `Remove run workspaces older than --max-age from the work directory.
Defaults to workspace.stale_after_hours from the configuration. Pass
--max-age 0 to remove every workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-age") {
				maxAge = time.Duration(cfg.Workspace.StaleAfterHours) * time.Hour
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age must not be negative")
			}
			stdout := cmd.OutOrStdout()
			now := time.Now()

			if dryRun {
				dirs, err := workspace.ListDirectories(cfg.Paths.WorkDir)
				if err != nil {
					return fmt.Errorf("list workspaces: %w", err)
				}
				rows := make([][]string, 0, len(dirs))
				for _, dir := range dirs {
					if !dir.ModTime.Before(now.Add(-maxAge)) {
						continue
					}
					rows = append(rows, []string{dir.Name, humanize.RelTime(dir.ModTime, now, "ago", "from now"), humanize.Bytes(uint64(dir.Size))})
				}
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Nothing to clean")
					return nil
				}
				fmt.Fprintln(stdout, renderTable([]column{left("Workspace"), left("Modified"), right("Size")}, rows))
				return nil
			}

			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result := workspace.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logging.NewComponentLogger(logger, "clean"))
			fmt.Fprintf(stdout, "Removed %d workspace(s)\n", len(result.Removed))
			if len(result.Errors) > 0 {
				for _, cleanupErr := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", cleanupErr.Path, cleanupErr.Error)
				}
				return fmt.Errorf("%d workspace(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove workspaces last modified longer ago than this")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List matching workspaces without removing them")
	return cmd
}
