package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"moltcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp project directory.
// Network-facing values point at unroutable defaults and no HF token is set.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectDir = filepath.Join(base, "project")
	cfgVal.Paths.LogDir = ""
	cfgVal.Transcribe.VenvDir = filepath.Join(cfgVal.Paths.ProjectDir, "whisperx-venv")
	cfgVal.Transcribe.HFToken = ""
	cfgVal.Archive.Path = filepath.Join(base, "archive.db")
	cfgVal.Publish.BaseURL = "https://example.test/podcast/"

	if err := os.MkdirAll(cfgVal.Paths.ProjectDir, 0o755); err != nil {
		t.Fatalf("mkdir project dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHFToken sets the Hugging Face token on the test config.
func WithHFToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcribe.HFToken = token
	}
}

// WithArchive enables the SQLite archive at its temp path.
func WithArchive() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Enabled = true
	}
}

// WithSourceURL points the Moltbook client at url (usually an httptest server).
func WithSourceURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.BaseURL = url
		b.cfg.Source.RateLimitMS = 0
	}
}

// WithTranscriberVenv creates a venv containing a stub whisperx executable.
func WithTranscriberVenv() ConfigOption {
	return func(b *configBuilder) {
		bin := filepath.Join(b.cfg.Transcribe.VenvDir, "bin", b.cfg.Transcribe.Command)
		if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
			b.t.Fatalf("mkdir venv: %v", err)
		}
		if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write stub whisperx: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
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
	return filepath.Dir(cfg.Paths.ProjectDir)
}
