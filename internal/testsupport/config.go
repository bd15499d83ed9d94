package testsupport

import (
	"path/filepath"
	"testing"

	"vodsub/internal/config"
)

// ConfigOption adjusts a config built by NewConfig.
type ConfigOption func(*fixture)

type fixture struct {
	t    testing.TB
	root string
	cfg  *config.Config
}

// NewConfig returns the default config with every path moved under a fresh
// t.TempDir. Nothing is created on disk unless an option asks for it, so
// tests can assert that a run wrote nothing.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(root, "work")
	cfg.Paths.ResultsDir = filepath.Join(root, "results")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Speech.ModelPath = filepath.Join(root, "models", "ggml-test.bin")

	f := &fixture{t: t, root: root, cfg: &cfg}
	for _, opt := range opts {
		opt(f)
	}
	return f.cfg
}

// WithModelFile writes a small placeholder speech model.
func WithModelFile() ConfigOption {
	return func(f *fixture) {
		WriteFile(f.t, f.cfg.Speech.ModelPath, 64)
	}
}

// WithStubbedTools points the three tool paths at the scripted stubs from
// WriteToolStubs.
func WithStubbedTools() ConfigOption {
	return func(f *fixture) {
		stubs := WriteToolStubs(f.t, filepath.Join(f.root, "bin"))
		f.cfg.Tools.Downloader = stubs.Downloader
		f.cfg.Tools.Transcoder = stubs.Transcoder
		f.cfg.Tools.SpeechEngine = stubs.SpeechEngine
	}
}

// BaseDir returns the temp directory NewConfig placed the config's paths in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
