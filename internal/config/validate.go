package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEchoprint(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.ContentDir == "" {
		return errors.New("paths.content_dir must be set")
	}
	return nil
}

func (c *Config) validateStages() error {
	seen := make(map[string]string, 6)
	named := []struct {
		key   string
		value string
	}{
		{"stages.uploaded", c.Stages.Uploaded},
		{"stages.previewed", c.Stages.Previewed},
		{"stages.checksummed", c.Stages.Checksummed},
		{"stages.fingerprinted", c.Stages.Fingerprinted},
		{"stages.dropped", c.Stages.Dropped},
		{"stages.rejected", c.Stages.Rejected},
	}
	for _, entry := range named {
		if filepath.Base(entry.value) != entry.value {
			return fmt.Errorf("%s must be a single directory name, got %q", entry.key, entry.value)
		}
		if other, ok := seen[entry.value]; ok {
			return fmt.Errorf("%s and %s must name different directories", other, entry.key)
		}
		seen[entry.value] = entry.key
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.PreviewFormat {
	case "ogg", "mp3", "wav":
	default:
		return fmt.Errorf("audio.preview_format: unsupported value %q", c.Audio.PreviewFormat)
	}
	switch c.Audio.ExcerptFormat {
	case "wav", "ogg", "mp3":
	default:
		return fmt.Errorf("audio.excerpt_format: unsupported value %q", c.Audio.ExcerptFormat)
	}
	if c.Audio.PreviewSampleRate <= 0 {
		return errors.New("audio.preview_sample_rate must be positive")
	}
	if c.Audio.ExcerptSampleRate <= 0 {
		return errors.New("audio.excerpt_sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateEchoprint() error {
	parsed, err := url.Parse(c.Echoprint.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("echoprint.url must be an absolute URL, got %q", c.Echoprint.URL)
	}
	if c.Echoprint.RequestTimeout < 0 {
		return errors.New("echoprint.request_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.Hostname == "" {
		return errors.New("worker.hostname could not be determined; set it explicitly")
	}
	if c.Worker.LoopInterval <= 0 {
		return errors.New("worker.loop_interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
