package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vodsub/internal/pipeline"
	"vodsub/internal/preflight"
	"vodsub/internal/services"
	"vodsub/internal/timerange"
)

const rootLong = `Download a live-stream recording, transcribe and translate its speech, and
embed the result as a subtitle track.

Arguments:
  source_url   recording URL understood by yt-dlp
  start_point  HH:MM:SS, MM:SS, seconds, or 0
  duration     seconds to process, or -1 for the entire source

The subtitled file is written to the results directory and its path printed
on stdout. Progress and errors go to stderr.`

const rootExample = `  vodsub https://www.twitch.tv/videos/123456789 0 -1
  vodsub https://www.youtube.com/watch?v=abc 00:01:30 60 -o intro.mp4`

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var outputFlag string
	var keepWork bool

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "vodsub <source_url> <start_point> <duration>",
		Short:         "Subtitle live-stream recordings with whisper.cpp",
		Long:          rootLong,
		Example:       rootExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          validateRunArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := timerange.Parse(args[1], args[2])
			if err != nil {
				return services.Wrap(services.ErrValidation, "arguments", "parse range", "", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := preflight.RequireTools(cfg); err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result, err := pipeline.New(cfg, logger).Run(cmd.Context(), pipeline.Request{
				SourceURL:  args[0],
				Range:      rng,
				OutputName: outputFlag,
				KeepWork:   keepWork,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.OutputPath)
			if result.WorkDir != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Workspace kept at %s\n", result.WorkDir)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Result file name inside the results directory")
	rootCmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep the run workspace for inspection")

	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func validateRunArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 3 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "arguments", "",
		fmt.Sprintf("expected <source_url> <start_point> <duration>, got %d argument(s) (see %s help)", len(args), cmd.Root().Name()), nil)
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
