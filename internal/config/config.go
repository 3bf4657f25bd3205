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

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"moltcast/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains project and log directory configuration.
type Paths struct {
	ProjectDir string `toml:"project_dir"`
	LogDir     string `toml:"log_dir"`
}

// Source contains configuration for the Moltbook API client.
type Source struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	RateLimitMS    int    `toml:"rate_limit_ms"`
	MaxRetries     int    `toml:"max_retries"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Episode contains defaults for episode creation.
type Episode struct {
	DefaultLimit int      `toml:"default_limit"`
	MaxFetch     int      `toml:"max_fetch"`
	MaxComments  int      `toml:"max_comments"`
	MaxDepth     int      `toml:"max_depth"`
	ContextFiles []string `toml:"context_files"`
}

// Filter contains theme filtering defaults and overlap thresholds.
type Filter struct {
	DefaultLimit  int `toml:"default_limit"`
	WarnPercent   int `toml:"warn_percent"`
	RejectPercent int `toml:"reject_percent"`
}

// Transcribe contains configuration for the external WhisperX transcriber.
type Transcribe struct {
	VenvDir        string `toml:"venv_dir"`
	Command        string `toml:"command"`
	Model          string `toml:"model"`
	ComputeType    string `toml:"compute_type"`
	Language       string `toml:"language"`
	HFToken        string `toml:"hf_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Publish contains configuration for the static site and RSS feed.
type Publish struct {
	BaseURL     string `toml:"base_url"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// Archive contains configuration for the SQLite post archive.
type Archive struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for moltcast.
//
// Configuration sections by subsystem:
//   - Paths: project root and log directory
//   - Source: Moltbook API client throttling and retries
//   - Episode: post selection defaults for new episodes
//   - Filter: theme filter limits and overlap thresholds
//   - Transcribe: WhisperX environment and model settings
//   - Publish: static site and feed metadata
//   - Archive: optional SQLite archive of harvested posts
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Source     Source     `toml:"source"`
	Episode    Episode    `toml:"episode"`
	Filter     Filter     `toml:"filter"`
	Transcribe Transcribe `toml:"transcribe"`
	Publish    Publish    `toml:"publish"`
	Archive    Archive    `toml:"archive"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Environment files are loaded before
// normalization so their values participate in fallbacks.
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

	if err := loadEnvFiles(cfg.Paths.ProjectDir); err != nil {
		return nil, "", false, err
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

	projectPath, err := filepath.Abs(projectConfigName)
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

// loadEnvFiles reads .env from the working directory, then from the project
// directory. The working directory file may itself set MOLTCAST_PROJECT_DIR.
// Variables already present in the environment win.
func loadEnvFiles(configuredProjectDir string) error {
	seen := make(map[string]struct{}, 2)
	if err := loadEnvFile(".env", seen); err != nil {
		return err
	}
	dir := strings.TrimSpace(configuredProjectDir)
	if value, ok := os.LookupEnv("MOLTCAST_PROJECT_DIR"); ok && strings.TrimSpace(value) != "" {
		dir = strings.TrimSpace(value)
	}
	if dir == "" {
		dir = defaultProjectDir
	}
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	return loadEnvFile(filepath.Join(expanded, ".env"), seen)
}

func loadEnvFile(path string, seen map[string]struct{}) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	if _, ok := seen[abs]; ok {
		return nil
	}
	seen[abs] = struct{}{}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		return nil
	}
	if err := godotenv.Load(abs); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "load env file", abs, err)
	}
	return nil
}

// EnsureDirectories creates the directories the CLI writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.EpisodesDir()}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	if c.Archive.Enabled && c.Archive.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Archive.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EpisodesDir returns the directory holding numbered episode folders and the ledger.
func (c *Config) EpisodesDir() string {
	return filepath.Join(c.Paths.ProjectDir, "episodes")
}

// DocsDir returns the root of the published static site.
func (c *Config) DocsDir() string {
	return filepath.Join(c.Paths.ProjectDir, "docs")
}

// ContextDir returns the directory of reference material copied into new episodes.
func (c *Config) ContextDir() string {
	return filepath.Join(c.Paths.ProjectDir, "context")
}

// LedgerPath returns the coverage ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.EpisodesDir(), "covered-posts.json")
}

// LockPath returns the advisory project lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ProjectDir, ".moltcast.lock")
}

// TranscriberBinary returns the transcriber executable, preferring the
// configured virtualenv when one is set.
func (c *Config) TranscriberBinary() string {
	if c.Transcribe.VenvDir == "" {
		return c.Transcribe.Command
	}
	return filepath.Join(c.Transcribe.VenvDir, "bin", c.Transcribe.Command)
}

// TranscribeTimeout returns the configured transcription bound.
func (c *Config) TranscribeTimeout() time.Duration {
	return time.Duration(c.Transcribe.TimeoutSeconds) * time.Second
}

// SourceTimeout returns the per-request HTTP timeout for the Moltbook client.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// SourceRateLimit returns the minimum spacing between Moltbook requests.
func (c *Config) SourceRateLimit() time.Duration {
	return time.Duration(c.Source.RateLimitMS) * time.Millisecond
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// expandProjectPath resolves relative values against the project directory
// rather than the working directory.
func expandProjectPath(projectDir, pathValue string) (string, error) {
	if pathValue == "" || strings.HasPrefix(pathValue, "~") || filepath.IsAbs(pathValue) {
		return expandPath(pathValue)
	}
	return filepath.Clean(filepath.Join(projectDir, pathValue)), nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
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
