package transcribe

import (
	"context"
	"strconv"
	"strings"

	"vodsub/internal/language"
	"vodsub/internal/services"
	"vodsub/internal/toolexec"
	"vodsub/internal/workspace"
)

const stageName = "transcribe"

// Service produces SRT subtitle sidecars from waveforms.
type Service struct {
	cfg Config
	run toolexec.RunFunc
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Threads <= 0 {
		cfg.Threads = DefaultThreads
	}
	return &Service{cfg: cfg, run: toolexec.Run}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner toolexec.RunFunc) {
	s.run = runner
}

// Model returns the configured model path for logging.
func (s *Service) Model() string {
	return s.cfg.ModelPath
}

// SubtitleLanguage is the language of the subtitles the engine writes:
// English when translating, otherwise the spoken language as configured.
func (s *Service) SubtitleLanguage() string {
	if s.cfg.Translate {
		return "en"
	}
	return s.cfg.Language
}

// SubtitlePath is where the engine writes the sidecar for waveform.
func SubtitlePath(waveform string) string {
	return waveform + SubtitleSuffix
}

// Transcribe runs the speech engine on waveform and returns the sidecar path.
func (s *Service) Transcribe(ctx context.Context, waveform string) (string, error) {
	if strings.TrimSpace(s.cfg.ModelPath) == "" {
		return "", services.Wrap(services.ErrConfiguration, stageName, "transcribe", "model path not set", nil)
	}
	lang, err := language.SpeechCode(s.cfg.Language)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "transcribe", "invalid language", err)
	}

	args := s.buildArgs(waveform, lang)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "transcribe", "speech engine failed", err)
	}

	srt := SubtitlePath(waveform)
	if err := workspace.RequireArtifact(stageName, srt); err != nil {
		return "", err
	}
	return srt, nil
}

func (s *Service) buildArgs(waveform, lang string) []string {
	args := []string{
		"-m", s.cfg.ModelPath,
		"-l", lang,
		"-f", waveform,
		"-t", strconv.Itoa(s.cfg.Threads),
		"-osrt",
	}
	if s.cfg.Translate {
		args = append(args, "-tr")
	}
	return args
}
