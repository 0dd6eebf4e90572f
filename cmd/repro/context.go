package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"repro/internal/config"
	"repro/internal/content"
	"repro/internal/logging"
	"repro/internal/pipeline"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger writes human output to stderr so command output stays on stdout.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
		FilePaths:   []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
	})
}

func (c *commandContext) withStore(fn func(*config.Config, *content.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := content.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store, logger)
}

func (c *commandContext) withPipeline(fn func(*pipeline.Pipeline) error) error {
	return c.withStore(func(cfg *config.Config, store *content.Store, logger *slog.Logger) error {
		p, err := pipeline.New(pipeline.Options{Config: cfg, Store: store, Logger: logger})
		if err != nil {
			return err
		}
		return fn(p)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
