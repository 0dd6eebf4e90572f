package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"repro/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Stage directories are created; previews and excerpts are written as WAV so
// tests never need ffmpeg.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorageDir = filepath.Join(base, "storage")
	cfgVal.Paths.ContentDir = filepath.Join(base, "content")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "logs", "repro.db")
	cfgVal.Audio.PreviewFormat = "wav"
	cfgVal.Audio.ExcerptFormat = "wav"
	cfgVal.Echoprint.URL = "http://127.0.0.1:0"
	cfgVal.Echoprint.Token = "test-token"
	cfgVal.Worker.Hostname = "test-host"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMatcherURL points the fingerprint matcher at url.
func WithMatcherURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Echoprint.URL = url
	}
}

// WithDisembody enables overwriting dropped payloads.
func WithDisembody() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Worker.DisembodyDropped = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries are
// stubbed. Each stub prints body (when given) and exits 0.
func WithStubbedBinaries(body string, names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "echoprint-codegen"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := "#!/bin/sh\n"
		if body != "" {
			script += "cat <<'STUB'\n" + body + "\nSTUB\n"
		}
		script += "exit 0\n"
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorageDir)
}
