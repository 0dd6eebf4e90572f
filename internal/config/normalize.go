package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStages()
	c.normalizeAudio()
	c.normalizeEchoprint()
	c.normalizeWorker()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		c.Paths.StorageDir = defaultStorageDir
	}
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ContentDir) == "" {
		c.Paths.ContentDir = defaultContentDir
	}
	if c.Paths.ContentDir, err = expandPath(c.Paths.ContentDir); err != nil {
		return fmt.Errorf("paths.content_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.LogDir, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeStages() {
	defaults := Default().Stages
	pairs := []struct {
		value    *string
		fallback string
	}{
		{&c.Stages.Uploaded, defaults.Uploaded},
		{&c.Stages.Previewed, defaults.Previewed},
		{&c.Stages.Checksummed, defaults.Checksummed},
		{&c.Stages.Fingerprinted, defaults.Fingerprinted},
		{&c.Stages.Dropped, defaults.Dropped},
		{&c.Stages.Rejected, defaults.Rejected},
		{&c.Stages.Previews, defaults.Previews},
		{&c.Stages.Excerpts, defaults.Excerpts},
	}
	for _, pair := range pairs {
		*pair.value = strings.Trim(strings.TrimSpace(*pair.value), "/")
		if *pair.value == "" {
			*pair.value = pair.fallback
		}
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	c.Audio.PreviewFormat = strings.ToLower(strings.TrimSpace(c.Audio.PreviewFormat))
	if c.Audio.PreviewFormat == "" {
		c.Audio.PreviewFormat = defaultPreviewFormat
	}
	c.Audio.PreviewQuality = strings.TrimSpace(c.Audio.PreviewQuality)
	if c.Audio.PreviewQuality == "" {
		c.Audio.PreviewQuality = defaultPreviewQuality
	}
	if c.Audio.PreviewSampleRate == 0 {
		c.Audio.PreviewSampleRate = defaultPreviewSampleRate
	}
	c.Audio.ExcerptFormat = strings.ToLower(strings.TrimSpace(c.Audio.ExcerptFormat))
	if c.Audio.ExcerptFormat == "" {
		c.Audio.ExcerptFormat = defaultExcerptFormat
	}
	if c.Audio.ExcerptSampleRate == 0 {
		c.Audio.ExcerptSampleRate = defaultExcerptSampleRate
	}
}

func (c *Config) normalizeEchoprint() {
	if value, ok := os.LookupEnv("REPRO_ECHOPRINT_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Echoprint.Token = value
	}
	c.Echoprint.Token = strings.TrimSpace(c.Echoprint.Token)
	c.Echoprint.URL = strings.TrimRight(strings.TrimSpace(c.Echoprint.URL), "/")
	if c.Echoprint.URL == "" {
		c.Echoprint.URL = defaultEchoprintURL
	}
	c.Echoprint.CodegenBinary = strings.TrimSpace(c.Echoprint.CodegenBinary)
	if c.Echoprint.CodegenBinary == "" {
		c.Echoprint.CodegenBinary = defaultCodegenBinary
	}
}

func (c *Config) normalizeWorker() {
	if value, ok := os.LookupEnv("REPRO_HOSTNAME"); ok && strings.TrimSpace(value) != "" {
		c.Worker.Hostname = value
	}
	c.Worker.Hostname = strings.TrimSpace(c.Worker.Hostname)
	if c.Worker.Hostname == "" {
		if host, err := os.Hostname(); err == nil {
			c.Worker.Hostname = host
		}
	}
	c.Worker.ActingIdentity = strings.TrimSpace(c.Worker.ActingIdentity)
	if c.Worker.ActingIdentity == "" {
		c.Worker.ActingIdentity = defaultActingIdentity
	}
	if c.Worker.LoopInterval == 0 {
		c.Worker.LoopInterval = defaultLoopInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
