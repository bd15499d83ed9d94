package fetch

import (
	"context"
	"fmt"
	"strings"

	"vodsub/internal/services"
	"vodsub/internal/timerange"
	"vodsub/internal/toolexec"
)

const stageName = "fetch"

// Streams are the direct media URLs resolved for a source. Audio is empty when
// the source exposes a single combined stream.
type Streams struct {
	Video string
	Audio string
}

// Combined reports whether video and audio share one stream.
func (s Streams) Combined() bool {
	return s.Audio == ""
}

// Service retrieves source media into the workspace.
type Service struct {
	cfg    Config
	run    toolexec.RunFunc
	output toolexec.OutputFunc
}

// NewService creates a fetch service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{
		cfg:    cfg.withDefaults(),
		run:    toolexec.Run,
		output: toolexec.Output,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner toolexec.RunFunc) {
	s.run = runner
}

// WithOutputRunner sets a custom runner for commands whose stdout is parsed.
func (s *Service) WithOutputRunner(runner toolexec.OutputFunc) {
	s.output = runner
}

// Fetch writes the requested slice of url to dest. An unbounded range
// downloads the whole source and ignores the start offset; a bounded range
// resolves direct stream URLs and clips them with the transcoder.
func (s *Service) Fetch(ctx context.Context, url string, rng timerange.Range, dest string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return services.Wrap(services.ErrValidation, stageName, "fetch", "source url required", nil)
	}
	if rng.Unbounded() {
		return s.Download(ctx, url, dest)
	}
	streams, err := s.ResolveStreams(ctx, url)
	if err != nil {
		return err
	}
	return s.Clip(ctx, streams, rng, dest)
}

// Download fetches the entire source with the downloader.
func (s *Service) Download(ctx context.Context, url, dest string) error {
	args := s.buildDownloadArgs(url, dest)
	if err := s.run(ctx, s.cfg.Downloader, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "download", "downloader failed", err)
	}
	return nil
}

// ResolveStreams asks the downloader for direct stream URLs.
func (s *Service) ResolveStreams(ctx context.Context, url string) (Streams, error) {
	out, err := s.output(ctx, s.cfg.Downloader, "-g", "-f", s.cfg.StreamSelector, url)
	if err != nil {
		return Streams{}, services.Wrap(services.ErrExternalTool, stageName, "resolve streams", "downloader failed", err)
	}
	return ParseStreams(out)
}

// Clip transcodes the bounded range out of the resolved streams into dest.
func (s *Service) Clip(ctx context.Context, streams Streams, rng timerange.Range, dest string) error {
	if rng.Unbounded() {
		return services.Wrap(services.ErrValidation, stageName, "clip", "clip requires a bounded duration", nil)
	}
	if streams.Video == "" {
		return services.Wrap(services.ErrValidation, stageName, "clip", "no stream url", nil)
	}
	args := s.buildClipArgs(streams, rng, dest)
	if err := s.run(ctx, s.cfg.Transcoder, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "clip", "transcoder failed", err)
	}
	return nil
}

// ParseStreams interprets the downloader's -g output. Blank lines are ignored.
// Two URLs are video then audio, one URL is a combined stream, and any other
// count is rejected.
func ParseStreams(output string) (Streams, error) {
	var urls []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	switch len(urls) {
	case 1:
		return Streams{Video: urls[0]}, nil
	case 2:
		return Streams{Video: urls[0], Audio: urls[1]}, nil
	default:
		return Streams{}, services.Wrap(services.ErrValidation, stageName, "resolve streams",
			fmt.Sprintf("expected 1 or 2 stream urls, got %d", len(urls)), nil)
	}
}

func (s *Service) buildDownloadArgs(url, dest string) []string {
	args := []string{"-f", s.cfg.FormatSelector}
	if s.cfg.EmbedMetadata {
		args = append(args, "--embed-thumbnail", "--embed-chapters")
	}
	args = append(args,
		"--merge-output-format", MergeOutputFormat,
		"-o", dest,
		url,
	)
	return args
}

func (s *Service) buildClipArgs(streams Streams, rng timerange.Range, dest string) []string {
	start := rng.StartArg()
	args := []string{"-y", "-ss", start, "-i", streams.Video}
	if streams.Combined() {
		args = append(args, "-map", "0:v:0", "-map", "0:a:0")
	} else {
		args = append(args, "-ss", start, "-i", streams.Audio, "-map", "0:v:0", "-map", "1:a:0")
	}
	args = append(args,
		"-t", rng.DurationArg(),
		"-c:v", s.cfg.VideoCodec,
		"-c:a", s.cfg.AudioCodec,
		dest,
	)
	return args
}
