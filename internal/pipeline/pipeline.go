package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vodsub/internal/audio"
	"vodsub/internal/config"
	"vodsub/internal/fetch"
	"vodsub/internal/history"
	"vodsub/internal/language"
	"vodsub/internal/logging"
	"vodsub/internal/metrics"
	"vodsub/internal/mux"
	"vodsub/internal/preflight"
	"vodsub/internal/services"
	"vodsub/internal/timerange"
	"vodsub/internal/toolexec"
	"vodsub/internal/transcribe"
	"vodsub/internal/workspace"
)

// Request describes one pipeline run.
type Request struct {
	SourceURL string
	Range     timerange.Range
	// OutputName overrides the configured result file name.
	OutputName string
	// KeepWork leaves the run workspace on disk for inspection.
	KeepWork bool
}

// Result describes a successful run.
type Result struct {
	RunID      string
	OutputPath string
	// WorkDir is set only when the workspace was kept.
	WorkDir string
	Elapsed time.Duration
}

// Pipeline sequences fetch, extract, transcribe, mux and publish for a single
// source, one stage at a time.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	fetcher     *fetch.Service
	extractor   *audio.Extractor
	transcriber *transcribe.Service
	muxer       *mux.Muxer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithToolRunners routes every external tool invocation through run and
// output instead of os/exec.
func WithToolRunners(run toolexec.RunFunc, output toolexec.OutputFunc) Option {
	return func(p *Pipeline) {
		p.fetcher.WithCommandRunner(run)
		p.fetcher.WithOutputRunner(output)
		p.extractor.WithCommandRunner(run)
		p.transcriber.WithCommandRunner(run)
		p.muxer.WithCommandRunner(run)
	}
}

// New builds a pipeline for cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		fetcher: fetch.NewService(fetch.Config{
			Downloader:     cfg.Tools.Downloader,
			Transcoder:     cfg.Tools.Transcoder,
			FormatSelector: cfg.Fetch.FormatSelector,
			StreamSelector: cfg.Fetch.StreamSelector,
			VideoCodec:     cfg.Fetch.VideoCodec,
			AudioCodec:     cfg.Fetch.AudioCodec,
			EmbedMetadata:  cfg.Fetch.EmbedMetadata,
		}),
		extractor: audio.NewExtractor(cfg.Tools.Transcoder),
		transcriber: transcribe.NewService(transcribe.Config{
			Binary:    cfg.Tools.SpeechEngine,
			ModelPath: cfg.Speech.ModelPath,
			Language:  cfg.Speech.Language,
			Threads:   cfg.Speech.Threads,
			Translate: cfg.Speech.Translate,
		}),
		muxer: mux.NewMuxer(cfg.Tools.Transcoder, cfg.Output.SubtitleCodec),
	}
	p.muxer.WithSubtitleLanguage(language.TrackCode(p.transcriber.SubtitleLanguage()))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. Tool requirements are checked before anything
// is written to disk. Once the workspace exists it is removed on every exit
// path unless req.KeepWork is set.
func (p *Pipeline) Run(ctx context.Context, req Request) (result Result, err error) {
	started := time.Now()

	req.SourceURL = strings.TrimSpace(req.SourceURL)
	if req.SourceURL == "" {
		return Result{}, services.Wrap(services.ErrValidation, "pipeline", "validate request", "source url required", nil)
	}
	outputName, err := p.outputName(req.OutputName)
	if err != nil {
		return Result{}, err
	}

	if err := preflight.RequireTools(p.cfg); err != nil {
		return Result{}, err
	}
	if err := p.cfg.EnsureDirectories(); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "pipeline", "prepare directories", "", err)
	}
	if err := preflight.RequireDirectories(p.cfg); err != nil {
		return Result{}, err
	}
	p.sweepStale(ctx)

	resultPath := filepath.Join(p.cfg.Paths.ResultsDir, outputName)
	lock, err := mux.LockResult(resultPath)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			p.logger.Debug("release result lock failed", logging.Error(releaseErr))
		}
	}()

	ws, err := workspace.New(p.cfg.Paths.WorkDir)
	if err != nil {
		return Result{}, err
	}
	ctx = services.WithRunID(ctx, ws.RunID)
	logger := logging.WithContext(ctx, p.logger)
	defer p.finishWorkspace(logger, ws, req.KeepWork)

	ledger := p.openLedger(ctx, logger, history.Run{
		ID:         ws.RunID,
		SourceURL:  req.SourceURL,
		TimeRange:  req.Range.String(),
		OutputPath: resultPath,
		StartedAt:  started,
	})
	defer func() {
		p.closeLedger(ctx, logger, ledger, ws.RunID, err)
	}()

	var rec *metrics.Run
	if p.cfg.Metrics.Textfile != "" {
		rec = metrics.NewRun()
		defer func() {
			p.writeMetrics(logger, rec, resultPath, started, err)
		}()
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source_url", req.SourceURL),
		logging.String("range", req.Range.String()),
		logging.String("output", resultPath),
		logging.String("work_dir", ws.Dir),
	)

	if req.Range.Unbounded() && req.Range.Start > 0 {
		logging.WarnWithContext(logger, "start offset ignored for full download", "range_offset_ignored",
			logging.String("start", req.Range.StartArg()),
			logging.String(logging.FieldErrorHint, "pass a positive duration to clip from the offset"),
			logging.String(logging.FieldImpact, "the whole source is processed"),
		)
	}

	staging := ws.MuxedPath(outputName)
	stages := []struct {
		name string
		fn   stageFunc
	}{
		{StageFetch, func(ctx context.Context) error {
			return p.fetcher.Fetch(ctx, req.SourceURL, req.Range, ws.SourcePath())
		}},
		{StageExtract, func(ctx context.Context) error {
			if err := workspace.RequireArtifact(StageExtract, ws.SourcePath()); err != nil {
				return err
			}
			return p.extractor.ExtractWaveform(ctx, ws.SourcePath(), ws.WaveformPath())
		}},
		{StageTranscribe, func(ctx context.Context) error {
			if err := workspace.RequireArtifact(StageTranscribe, ws.WaveformPath()); err != nil {
				return err
			}
			_, err := p.transcriber.Transcribe(ctx, ws.WaveformPath())
			return err
		}},
		{StageMux, func(ctx context.Context) error {
			if err := workspace.RequireArtifact(StageMux, ws.SourcePath()); err != nil {
				return err
			}
			if err := workspace.RequireArtifact(StageMux, ws.SubtitlePath()); err != nil {
				return err
			}
			return p.muxer.Mux(ctx, ws.SourcePath(), ws.SubtitlePath(), staging)
		}},
		{StagePublish, func(context.Context) error {
			if err := workspace.RequireArtifact(StagePublish, staging); err != nil {
				return err
			}
			return mux.Publish(staging, resultPath)
		}},
	}
	for _, stage := range stages {
		if err := runStage(ctx, logger, rec, stage.name, stage.fn); err != nil {
			return Result{}, err
		}
	}

	result = Result{
		RunID:      ws.RunID,
		OutputPath: resultPath,
		Elapsed:    time.Since(started),
	}
	if req.KeepWork {
		result.WorkDir = ws.Dir
	}
	var resultBytes int64
	if info, statErr := os.Stat(resultPath); statErr == nil {
		resultBytes = info.Size()
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", resultPath),
		logging.Int64("result_bytes", resultBytes),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// FailedStage returns the stage a Run error came from, if any.
func FailedStage(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return ""
}

func (p *Pipeline) outputName(override string) (string, error) {
	name := strings.TrimSpace(override)
	if name == "" {
		name = p.cfg.Output.FileName
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", services.Wrap(services.ErrValidation, "pipeline", "validate request",
			fmt.Sprintf("output name %q must be a plain file name", name), nil)
	}
	return name, nil
}

func (p *Pipeline) sweepStale(ctx context.Context) {
	hours := p.cfg.Workspace.StaleAfterHours
	if hours <= 0 {
		return
	}
	res := workspace.CleanStale(ctx, p.cfg.Paths.WorkDir, time.Duration(hours)*time.Hour, p.logger)
	if len(res.Removed) > 0 {
		p.logger.Debug("stale workspaces swept", logging.Int("removed", len(res.Removed)))
	}
}

func (p *Pipeline) finishWorkspace(logger *slog.Logger, ws *workspace.Workspace, keep bool) {
	if keep {
		logger.Info("workspace kept",
			logging.String("work_dir", ws.Dir),
			logging.String(logging.FieldEventType, "workspace_kept"),
		)
		return
	}
	if err := ws.Cleanup(); err != nil {
		logging.WarnWithContext(logger, "workspace cleanup failed", "workspace_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the directory manually or run vodsub clean"),
			logging.String(logging.FieldImpact, "intermediate files left on disk"),
		)
	}
}

func (p *Pipeline) openLedger(ctx context.Context, logger *slog.Logger, run history.Run) *history.Store {
	store, err := history.Open(p.cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir"),
			logging.String(logging.FieldImpact, "this run will not appear in vodsub history"),
		)
		return nil
	}
	if err := store.Begin(ctx, run); err != nil {
		logging.WarnWithContext(logger, "record run start failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in vodsub history"),
		)
		_ = store.Close()
		return nil
	}
	return store
}

func (p *Pipeline) writeMetrics(logger *slog.Logger, rec *metrics.Run, resultPath string, started time.Time, runErr error) {
	outcome := metrics.Outcome{
		Status:  string(runStatus(runErr)),
		Elapsed: time.Since(started),
	}
	if runErr != nil {
		outcome.FailedStage = FailedStage(runErr)
		outcome.ExitCode = services.ExitCode(runErr)
	} else if info, statErr := os.Stat(resultPath); statErr == nil {
		outcome.ResultBytes = info.Size()
	}
	rec.Finish(outcome)
	if err := rec.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.textfile"),
			logging.String(logging.FieldImpact, "node_exporter keeps reporting the previous run"),
		)
	}
}

func runStatus(runErr error) history.Status {
	switch {
	case runErr == nil:
		return history.StatusSucceeded
	case services.Details(runErr).Kind == "canceled":
		return history.StatusCanceled
	default:
		return history.StatusFailed
	}
}

func (p *Pipeline) closeLedger(ctx context.Context, logger *slog.Logger, store *history.Store, runID string, runErr error) {
	if store == nil {
		return
	}
	defer store.Close()

	outcome := history.Outcome{Status: runStatus(runErr)}
	if runErr != nil {
		details := services.Details(runErr)
		outcome.FailedStage = FailedStage(runErr)
		outcome.ErrorKind = details.Kind
		outcome.ErrorMessage = details.Message
		outcome.ExitCode = details.ExitCode
	}
	if err := store.Finish(context.WithoutCancel(ctx), runID, outcome); err != nil {
		logger.Warn("record run outcome failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "history_write_failed"),
			logging.String(logging.FieldErrorHint, "check paths.state_dir"),
			logging.String(logging.FieldImpact, "run shows as running in vodsub history"),
		)
	}
}
