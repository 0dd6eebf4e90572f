package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the storage, content, and bookkeeping locations.
type Paths struct {
	StorageDir   string `toml:"storage_dir"`
	ContentDir   string `toml:"content_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
}

// Stages names the stage directories below the storage directory.
type Stages struct {
	Uploaded      string `toml:"uploaded"`
	Previewed     string `toml:"previewed"`
	Checksummed   string `toml:"checksummed"`
	Fingerprinted string `toml:"fingerprinted"`
	Dropped       string `toml:"dropped"`
	Rejected      string `toml:"rejected"`
	Previews      string `toml:"previews"`
	Excerpts      string `toml:"excerpts"`
}

// Audio contains transcoding binaries and output targets.
type Audio struct {
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	PreviewFormat     string `toml:"preview_format"`
	PreviewQuality    string `toml:"preview_quality"`
	PreviewSampleRate int    `toml:"preview_sample_rate"`
	ExcerptFormat     string `toml:"excerpt_format"`
	ExcerptSampleRate int    `toml:"excerpt_sample_rate"`
}

// Echoprint contains the fingerprint matcher and code generator settings.
type Echoprint struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	CodegenBinary  string `toml:"codegen_binary"`
	RequestTimeout int    `toml:"request_timeout"` // seconds; 0 disables the timeout
}

// Worker contains per-process identity and loop settings.
type Worker struct {
	Hostname         string `toml:"hostname"`
	ActingIdentity   string `toml:"acting_identity"`
	DisembodyDropped bool   `toml:"disembody_dropped"`
	LoopInterval     int    `toml:"loop_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for repro.
//
// Configuration sections by subsystem:
//   - Paths: storage/content roots, log directory, repository database
//   - Stages: stage directory names and content subdirectories
//   - Audio: ffmpeg/ffprobe binaries and preview/excerpt targets
//   - Echoprint: matcher endpoint, token, and codegen binary
//   - Worker: hostname, acting identity, drop behaviour, loop delay
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Stages    Stages    `toml:"stages"`
	Audio     Audio     `toml:"audio"`
	Echoprint Echoprint `toml:"echoprint"`
	Worker    Worker    `toml:"worker"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("repro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the stage directories, content directories, and log directory.
func (c *Config) EnsureDirectories() error {
	dirs := append(c.StageDirs(), c.PreviewsDir(), c.ExcerptsDir(), c.Paths.LogDir)
	if dbDir := filepath.Dir(c.Paths.DatabasePath); dbDir != "" && dbDir != "." {
		dirs = append(dirs, dbDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StageDir returns the absolute directory for a named stage directory.
func (c *Config) StageDir(name string) string {
	return filepath.Join(c.Paths.StorageDir, name)
}

// StageDirs lists every stage directory in pipeline order, rejected last.
func (c *Config) StageDirs() []string {
	return []string{
		c.StageDir(c.Stages.Uploaded),
		c.StageDir(c.Stages.Previewed),
		c.StageDir(c.Stages.Checksummed),
		c.StageDir(c.Stages.Fingerprinted),
		c.StageDir(c.Stages.Dropped),
		c.StageDir(c.Stages.Rejected),
	}
}

// RejectedDir returns the directory receiving rejected submissions.
func (c *Config) RejectedDir() string {
	return c.StageDir(c.Stages.Rejected)
}

// PreviewsDir returns the root of the content-addressed preview tree.
func (c *Config) PreviewsDir() string {
	return filepath.Join(c.Paths.ContentDir, c.Stages.Previews)
}

// ExcerptsDir returns the root of the content-addressed excerpt tree.
func (c *Config) ExcerptsDir() string {
	return filepath.Join(c.Paths.ContentDir, c.Stages.Excerpts)
}

// FFmpegBinary returns the ffmpeg executable used for decoding and encoding.
func (c *Config) FFmpegBinary() string {
	return c.Audio.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.Audio.FFprobeBinary
}

// CodegenBinary returns the fingerprint code generator executable.
func (c *Config) CodegenBinary() string {
	return c.Echoprint.CodegenBinary
}

// RequestTimeout returns the matcher request timeout; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Echoprint.RequestTimeout) * time.Second
}

// LoopInterval returns the delay between worker passes.
func (c *Config) LoopInterval() time.Duration {
	return time.Duration(c.Worker.LoopInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
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
