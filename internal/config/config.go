package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir    string `toml:"work_dir"`
	ResultsDir string `toml:"results_dir"`
	StateDir   string `toml:"state_dir"`
}

// Tools names the external executables the pipeline shells out to.
type Tools struct {
	Downloader   string `toml:"downloader"`
	Transcoder   string `toml:"transcoder"`
	SpeechEngine string `toml:"speech_engine"`
}

// Fetch contains downloader and clip encoding settings.
type Fetch struct {
	// FormatSelector is the downloader format selector for full downloads,
	// a prioritized list of fallbacks separated by "/".
	FormatSelector string `toml:"format_selector"`
	// StreamSelector is used when resolving direct stream URLs for clips.
	StreamSelector string `toml:"stream_selector"`
	VideoCodec     string `toml:"video_codec"`
	AudioCodec     string `toml:"audio_codec"`
	// EmbedMetadata embeds thumbnail and chapters on full downloads.
	EmbedMetadata bool `toml:"embed_metadata"`
}

// Speech contains speech-to-text engine settings.
type Speech struct {
	ModelPath string `toml:"model_path"`
	Language  string `toml:"language"`
	Threads   int    `toml:"threads"`
	Translate bool   `toml:"translate"`
}

// Output controls the final artifact.
type Output struct {
	FileName      string `toml:"file_name"`
	SubtitleCodec string `toml:"subtitle_codec"`
}

// Workspace controls per-run working directories.
type Workspace struct {
	// StaleAfterHours is the age after which leftover run directories are
	// swept at startup. Zero disables the sweep.
	StaleAfterHours int `toml:"stale_after_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Metrics controls the Prometheus textfile written after each run.
type Metrics struct {
	// Textfile is the .prom path picked up by node_exporter's textfile
	// collector. Empty disables metrics.
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for vodsub.
//
// Configuration sections by subsystem:
//   - Paths: work, results and state directories
//   - Tools: downloader, transcoder and speech engine executables
//   - Fetch: format selectors and clip codecs
//   - Speech: model, language, threads, translation
//   - Output: result file name and subtitle codec
//   - Workspace: stale run directory sweep
//   - Logging: log format, level and optional file sink
//   - Metrics: optional Prometheus textfile
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Fetch     Fetch     `toml:"fetch"`
	Speech    Speech    `toml:"speech"`
	Output    Output    `toml:"output"`
	Workspace Workspace `toml:"workspace"`
	Logging   Logging   `toml:"logging"`
	Metrics   Metrics   `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the config file (if any), applies environment overrides,
// normalizes paths and validates the result. It also reports which file was
// considered and whether it existed. Load never creates files or directories.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	source, exists, err := locateConfig(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(source, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	for _, step := range []func() error{cfg.applyEnv, cfg.normalize, cfg.Validate} {
		if err := step(); err != nil {
			return nil, "", false, err
		}
	}
	return &cfg, source, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locateConfig picks the config file. An explicit path wins even when it
// does not exist yet. Otherwise the user config is preferred over
// ./vodsub.toml, and the user config path is reported when neither exists.
func locateConfig(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		return path, exists, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the work, results and state directories. Call it
// only after the external tool requirements have been confirmed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.ResultsDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ResultPath returns the absolute path of the final artifact.
func (c *Config) ResultPath() string {
	return filepath.Join(c.Paths.ResultsDir, c.Output.FileName)
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ExpandPath expands environment variables and a leading ~ in value and
// returns an absolute, cleaned path. Empty input stays empty.
func ExpandPath(value string) (string, error) {
	value = os.ExpandEnv(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + strings.TrimPrefix(value, "~")
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "vodsub")
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vodsub")
	}
	return "~/.local/state/vodsub"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
