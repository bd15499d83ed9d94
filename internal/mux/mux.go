package mux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"vodsub/internal/fileutil"
	"vodsub/internal/services"
	"vodsub/internal/toolexec"
)

const stageName = "mux"

// Defaults applied when a Muxer is built with empty settings.
const (
	DefaultTranscoder    = "ffmpeg"
	DefaultSubtitleCodec = "mov_text"
)

// Muxer embeds a subtitle track into a media container.
type Muxer struct {
	ffmpegBinary  string
	subtitleCodec string
	// subtitleLanguage is an ISO 639-2 code; empty leaves the track untagged.
	subtitleLanguage string
	run              toolexec.RunFunc
}

// NewMuxer creates a muxer. subtitleCodec selects the embedded track format;
// mov_text suits mp4 containers, srt or ass suit mkv.
func NewMuxer(ffmpegBinary, subtitleCodec string) *Muxer {
	if ffmpegBinary == "" {
		ffmpegBinary = DefaultTranscoder
	}
	if subtitleCodec == "" {
		subtitleCodec = DefaultSubtitleCodec
	}
	return &Muxer{ffmpegBinary: ffmpegBinary, subtitleCodec: subtitleCodec, run: toolexec.Run}
}

// WithCommandRunner sets a custom command runner (for testing).
func (m *Muxer) WithCommandRunner(runner toolexec.RunFunc) {
	m.run = runner
}

// WithSubtitleLanguage tags the embedded track with an ISO 639-2 code.
func (m *Muxer) WithSubtitleLanguage(code string) {
	m.subtitleLanguage = code
}

// Mux copies every stream of container and adds subtitle as a new track,
// writing the result to staging.
func (m *Muxer) Mux(ctx context.Context, container, subtitle, staging string) error {
	if err := m.run(ctx, m.ffmpegBinary, m.buildArgs(container, subtitle, staging)...); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "embed subtitles", "transcoder failed", err)
	}
	return nil
}

// Publish moves the staging file to result, replacing any previous result.
func Publish(staging, result string) error {
	if err := os.MkdirAll(filepath.Dir(result), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "publish", "ensure results directory", err)
	}
	if err := fileutil.MoveFile(staging, result); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "publish", fmt.Sprintf("move to %s", result), err)
	}
	return nil
}

// The fetched container carries no subtitle streams, so the added track is
// always output subtitle stream 0.
func (m *Muxer) buildArgs(container, subtitle, staging string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", container,
		"-i", subtitle,
		"-map", "0",
		"-map", "1:0",
		"-c", "copy",
		"-c:s", m.subtitleCodec,
	}
	if m.subtitleLanguage != "" {
		args = append(args, "-metadata:s:s:0", "language="+m.subtitleLanguage)
	}
	return append(args, staging)
}
