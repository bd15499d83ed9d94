package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"vodsub/internal/config"
	"vodsub/internal/deps"
	"vodsub/internal/services"
)

// CheckSystemDeps evaluates the three external tools the pipeline needs.
// Both the run path and the deps command use this so the requirement list
// lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(Requirements(cfg))
}

// Requirements lists the external tools for the given config.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "Downloader",
			Command:     cfg.Tools.Downloader,
			Description: "Fetches the source video or resolves stream URLs",
			Hint:        "install yt-dlp (pipx install yt-dlp) or set tools.downloader",
		},
		{
			Name:        "Transcoder",
			Command:     cfg.Tools.Transcoder,
			Description: "Clips, extracts audio and muxes subtitles",
			Hint:        "install ffmpeg from your package manager or set tools.transcoder",
		},
		{
			Name:        "Speech engine",
			Command:     cfg.Tools.SpeechEngine,
			Description: "Transcribes and translates the extracted audio",
			Hint:        fmt.Sprintf("build whisper.cpp and put whisper-cli on PATH, or set %s", config.EnvSpeechEngine),
		},
	}
}

// RequireTools fails with services.ErrMissingDependency when any required tool
// or the speech model is unavailable. It performs no filesystem writes.
func RequireTools(cfg *config.Config) error {
	missing := deps.Missing(CheckSystemDeps(cfg))
	problems := make([]string, 0, len(missing)+1)
	for _, status := range missing {
		problems = append(problems, fmt.Sprintf("%s: %s (%s)", status.Name, status.Detail, status.Hint))
	}
	if result := CheckModelFile(cfg.Speech.ModelPath); !result.Passed {
		problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(
		services.ErrMissingDependency,
		"preflight",
		"check requirements",
		strings.Join(problems, "; "),
		nil,
	)
}

// CheckModelFile verifies the speech model exists and is a non-empty file.
func CheckModelFile(path string) Result {
	const name = "Speech model"
	hint := fmt.Sprintf("download a ggml model (whisper.cpp models/download-ggml-model.sh base) and set speech.model_path or %s", config.EnvModelPath)

	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured; " + hint}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s not found; %s", path, hint)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is a directory; %s", path, hint)}
	}
	if info.Size() == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s is empty; %s", path, hint)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
