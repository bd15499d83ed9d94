package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) applyEnv() error {
	if value, ok := lookupEnv(EnvModelPath); ok {
		c.Speech.ModelPath = value
	}
	if value, ok := lookupEnv(EnvSpeechEngine); ok {
		c.Tools.SpeechEngine = value
	}
	if value, ok := lookupEnv(EnvLanguage); ok {
		c.Speech.Language = value
	}
	if value, ok := lookupEnv(EnvThreads); ok {
		threads, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid thread count %q", EnvThreads, value)
		}
		c.Speech.Threads = threads
	}
	if value, ok := lookupEnv(EnvWorkDir); ok {
		c.Paths.WorkDir = value
	}
	if value, ok := lookupEnv(EnvResultsDir); ok {
		c.Paths.ResultsDir = value
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeFetch()
	if err := c.normalizeSpeech(); err != nil {
		return err
	}
	c.normalizeOutput()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile)
	if c.Metrics.Textfile != "" {
		var err error
		if c.Metrics.Textfile, err = ExpandPath(c.Metrics.Textfile); err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = ExpandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = ExpandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Downloader = strings.TrimSpace(c.Tools.Downloader)
	if c.Tools.Downloader == "" {
		c.Tools.Downloader = defaultDownloader
	}
	c.Tools.Transcoder = strings.TrimSpace(c.Tools.Transcoder)
	if c.Tools.Transcoder == "" {
		c.Tools.Transcoder = defaultTranscoder
	}
	c.Tools.SpeechEngine = strings.TrimSpace(c.Tools.SpeechEngine)
	if c.Tools.SpeechEngine == "" {
		c.Tools.SpeechEngine = defaultSpeechEngine
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.FormatSelector = strings.TrimSpace(c.Fetch.FormatSelector)
	if c.Fetch.FormatSelector == "" {
		c.Fetch.FormatSelector = defaultFormatSelector
	}
	c.Fetch.StreamSelector = strings.TrimSpace(c.Fetch.StreamSelector)
	if c.Fetch.StreamSelector == "" {
		c.Fetch.StreamSelector = defaultStreamSelector
	}
	c.Fetch.VideoCodec = strings.TrimSpace(c.Fetch.VideoCodec)
	if c.Fetch.VideoCodec == "" {
		c.Fetch.VideoCodec = defaultVideoCodec
	}
	c.Fetch.AudioCodec = strings.TrimSpace(c.Fetch.AudioCodec)
	if c.Fetch.AudioCodec == "" {
		c.Fetch.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizeSpeech() error {
	c.Speech.ModelPath = strings.TrimSpace(c.Speech.ModelPath)
	if c.Speech.ModelPath == "" {
		c.Speech.ModelPath = defaultModelPath
	}
	var err error
	if c.Speech.ModelPath, err = ExpandPath(c.Speech.ModelPath); err != nil {
		return fmt.Errorf("speech.model_path: %w", err)
	}
	c.Speech.Language = strings.ToLower(strings.TrimSpace(c.Speech.Language))
	if c.Speech.Language == "" {
		c.Speech.Language = defaultSpeechLanguage
	}
	if c.Speech.Threads == 0 {
		c.Speech.Threads = defaultSpeechThreads
	}
	return nil
}

func (c *Config) normalizeOutput() {
	c.Output.FileName = strings.TrimSpace(c.Output.FileName)
	if c.Output.FileName == "" {
		c.Output.FileName = defaultOutputFileName
	}
	c.Output.SubtitleCodec = strings.TrimSpace(c.Output.SubtitleCodec)
	if c.Output.SubtitleCodec == "" {
		c.Output.SubtitleCodec = defaultSubtitleCodec
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = ExpandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
