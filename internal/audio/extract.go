// Package audio extracts the speech engine's input waveform from a media
// container.
package audio

import (
	"context"

	"vodsub/internal/services"
	"vodsub/internal/toolexec"
)

// Waveform parameters expected by the speech engine.
const (
	SampleRate = "16000"
	Channels   = "1"
	Codec      = "pcm_s16le"
)

// DefaultTranscoder is used when Extractor is built with an empty binary name.
const DefaultTranscoder = "ffmpeg"

// Extractor converts containers to mono 16 kHz PCM waveforms.
type Extractor struct {
	ffmpegBinary string
	run          toolexec.RunFunc
}

// NewExtractor creates an extractor that invokes ffmpegBinary.
func NewExtractor(ffmpegBinary string) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = DefaultTranscoder
	}
	return &Extractor{ffmpegBinary: ffmpegBinary, run: toolexec.Run}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner toolexec.RunFunc) {
	e.run = runner
}

// ExtractWaveform writes the audio of source to dest, overwriting dest.
func (e *Extractor) ExtractWaveform(ctx context.Context, source, dest string) error {
	if err := e.run(ctx, e.ffmpegBinary, buildExtractArgs(source, dest)...); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "waveform", "transcoder failed", err)
	}
	return nil
}

func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", Channels,
		"-ar", SampleRate,
		"-c:a", Codec,
		dest,
	}
}
