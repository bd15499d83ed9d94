package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vodsub/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvModelPath,
		config.EnvSpeechEngine,
		config.EnvLanguage,
		config.EnvThreads,
		config.EnvWorkDir,
		config.EnvResultsDir,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPathsWithoutCreatingThem(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")
	workDir := filepath.Join(t.TempDir(), "work")
	t.Setenv(config.EnvWorkDir, workDir)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "state", "vodsub")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if !filepath.IsAbs(cfg.Paths.ResultsDir) || filepath.Base(cfg.Paths.ResultsDir) != "results" {
		t.Fatalf("unexpected results dir: %q", cfg.Paths.ResultsDir)
	}
	if cfg.Paths.WorkDir != workDir {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, workDir)
	}
	if cfg.Tools.Downloader != "yt-dlp" || cfg.Tools.Transcoder != "ffmpeg" || cfg.Tools.SpeechEngine != "whisper-cli" {
		t.Fatalf("unexpected tools: %#v", cfg.Tools)
	}
	if cfg.Speech.Threads != 8 {
		t.Fatalf("expected 8 threads, got %d", cfg.Speech.Threads)
	}
	if !cfg.Speech.Translate {
		t.Fatal("expected translation enabled by default")
	}
	if cfg.Output.FileName != "result.mp4" {
		t.Fatalf("unexpected output file name: %q", cfg.Output.FileName)
	}
	if cfg.ResultPath() != filepath.Join(cfg.Paths.ResultsDir, "result.mp4") {
		t.Fatalf("unexpected result path: %q", cfg.ResultPath())
	}

	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.ResultsDir, cfg.Paths.StateDir} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("expected %q to be absent after Load, stat err=%v", dir, err)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.ResultsDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vodsub.toml")

	type payload struct {
		Paths struct {
			ResultsDir string `toml:"results_dir"`
		} `toml:"paths"`
		Speech struct {
			Language string `toml:"language"`
			Threads  int    `toml:"threads"`
		} `toml:"speech"`
		Output struct {
			FileName string `toml:"file_name"`
		} `toml:"output"`
	}
	custom := payload{}
	custom.Paths.ResultsDir = filepath.Join(tempDir, "out")
	custom.Speech.Language = "Japanese"
	custom.Speech.Threads = 4
	custom.Output.FileName = "stream.mkv"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.ResultsDir != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected results dir: %q", cfg.Paths.ResultsDir)
	}
	if cfg.Speech.Language != "japanese" {
		t.Fatalf("expected lowercased language, got %q", cfg.Speech.Language)
	}
	if cfg.Speech.Threads != 4 {
		t.Fatalf("expected 4 threads, got %d", cfg.Speech.Threads)
	}
	if cfg.Output.FileName != "stream.mkv" {
		t.Fatalf("unexpected output file name: %q", cfg.Output.FileName)
	}
	if cfg.Tools.Downloader != "yt-dlp" {
		t.Fatalf("expected default downloader to survive partial file, got %q", cfg.Tools.Downloader)
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vodsub.toml")
	contents := `
[tools]
speech_engine = "file-whisper"

[speech]
model_path = "/models/file.bin"
language = "de"
threads = 2
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(config.EnvModelPath, "/models/env.bin")
	t.Setenv(config.EnvSpeechEngine, "env-whisper")
	t.Setenv(config.EnvLanguage, "fr")
	t.Setenv(config.EnvThreads, "12")
	t.Setenv(config.EnvResultsDir, filepath.Join(tempDir, "env-results"))

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Speech.ModelPath != filepath.Clean("/models/env.bin") {
		t.Errorf("expected model from env, got %q", cfg.Speech.ModelPath)
	}
	if cfg.Tools.SpeechEngine != "env-whisper" {
		t.Errorf("expected speech engine from env, got %q", cfg.Tools.SpeechEngine)
	}
	if cfg.Speech.Language != "fr" {
		t.Errorf("expected language from env, got %q", cfg.Speech.Language)
	}
	if cfg.Speech.Threads != 12 {
		t.Errorf("expected threads from env, got %d", cfg.Speech.Threads)
	}
	if cfg.Paths.ResultsDir != filepath.Join(tempDir, "env-results") {
		t.Errorf("expected results dir from env, got %q", cfg.Paths.ResultsDir)
	}
}

func TestMetricsTextfileExpandsHome(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	configPath := filepath.Join(t.TempDir(), "vodsub.toml")
	if err := os.WriteFile(configPath, []byte("[metrics]\ntextfile = \"~/prom/vodsub.prom\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Metrics.Textfile != filepath.Join(home, "prom", "vodsub.prom") {
		t.Fatalf("unexpected metrics textfile %q", cfg.Metrics.Textfile)
	}
	if _, err := os.Stat(filepath.Join(home, "prom")); !os.IsNotExist(err) {
		t.Fatalf("Load must not create the metrics directory (err=%v)", err)
	}
}

func TestInvalidThreadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvThreads, "many")
	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric thread override")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "speech_engine") {
		t.Fatalf("sample config missing speech engine key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Tools.Downloader != "yt-dlp" {
		t.Fatalf("unexpected sample downloader %q", cfg.Tools.Downloader)
	}
	if cfg.Speech.Threads != 8 {
		t.Fatalf("unexpected sample threads %d", cfg.Speech.Threads)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Speech.Threads = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative thread count")
	}

	cfg = config.Default()
	cfg.Speech.Language = "123"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid language")
	}

	cfg = config.Default()
	cfg.Tools.Transcoder = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blank transcoder")
	}

	cfg = config.Default()
	cfg.Output.FileName = "sub/result.mp4"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for file name with directory")
	}

	cfg = config.Default()
	cfg.Output.FileName = "result"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for file name without extension")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VODSUB_TEST_ROOT", "/srv/media")

	cases := map[string]string{
		"":                        "",
		"~":                       home,
		"~/models/ggml.bin":       filepath.Join(home, "models", "ggml.bin"),
		"$VODSUB_TEST_ROOT/out":   "/srv/media/out",
		"/var/tmp/../tmp/vodsub/": "/var/tmp/vodsub",
	}
	for in, want := range cases {
		got, err := config.ExpandPath(in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadRejectsDirectoryAsConfig(t *testing.T) {
	clearEnv(t)
	if _, _, _, err := config.Load(t.TempDir()); err == nil {
		t.Fatal("expected error when the config path is a directory")
	}
}
