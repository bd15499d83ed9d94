package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vodsub/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Workspace.StaleAfterHours < 0 {
		return errors.New("workspace.stale_after_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateTools() error {
	for key, value := range map[string]string{
		"tools.downloader":    c.Tools.Downloader,
		"tools.transcoder":    c.Tools.Transcoder,
		"tools.speech_engine": c.Tools.SpeechEngine,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if strings.TrimSpace(c.Speech.ModelPath) == "" {
		return fmt.Errorf("speech.model_path must be set (or set %s)", EnvModelPath)
	}
	if c.Speech.Threads <= 0 {
		return errors.New("speech.threads must be positive")
	}
	if _, err := language.SpeechCode(c.Speech.Language); err != nil {
		return fmt.Errorf("speech.language: %w", err)
	}
	return nil
}

func (c *Config) validateOutput() error {
	name := c.Output.FileName
	if name == "" {
		return errors.New("output.file_name must be set")
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("output.file_name %q must not contain directories", name)
	}
	if filepath.Ext(name) == "" {
		return fmt.Errorf("output.file_name %q needs a container extension (e.g. .mp4)", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
