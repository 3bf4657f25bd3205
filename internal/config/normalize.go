package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeEpisode()
	c.normalizeFilter()
	if err := c.normalizeTranscribe(); err != nil {
		return err
	}
	c.normalizePublish()
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MOLTCAST_PROJECT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ProjectDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	var err error
	if c.Paths.ProjectDir, err = expandPath(strings.TrimSpace(c.Paths.ProjectDir)); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = defaultSourceBaseURL
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultSourceUserAgent
	}
	if c.Source.RateLimitMS < 0 {
		c.Source.RateLimitMS = 0
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultSourceTimeout
	}
}

func (c *Config) normalizeEpisode() {
	if c.Episode.MaxFetch <= 0 {
		c.Episode.MaxFetch = defaultEpisodeMaxFetch
	}
	files := make([]string, 0, len(c.Episode.ContextFiles))
	seen := make(map[string]struct{}, len(c.Episode.ContextFiles))
	for _, name := range c.Episode.ContextFiles {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		files = append(files, trimmed)
	}
	c.Episode.ContextFiles = files
}

func (c *Config) normalizeFilter() {
	if c.Filter.DefaultLimit <= 0 {
		c.Filter.DefaultLimit = defaultFilterLimit
	}
}

func (c *Config) normalizeTranscribe() error {
	c.Transcribe.Command = strings.TrimSpace(c.Transcribe.Command)
	if c.Transcribe.Command == "" {
		c.Transcribe.Command = defaultTranscribeCommand
	}
	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = defaultTranscribeModel
	}
	c.Transcribe.ComputeType = strings.ToLower(strings.TrimSpace(c.Transcribe.ComputeType))
	if c.Transcribe.ComputeType == "" {
		c.Transcribe.ComputeType = defaultComputeType
	}
	c.Transcribe.Language = strings.ToLower(strings.TrimSpace(c.Transcribe.Language))
	if c.Transcribe.Language == "" {
		c.Transcribe.Language = defaultLanguage
	}
	c.Transcribe.HFToken = strings.TrimSpace(c.Transcribe.HFToken)
	if c.Transcribe.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcribe.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcribe.HFToken = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Transcribe.VenvDir, err = expandProjectPath(c.Paths.ProjectDir, strings.TrimSpace(c.Transcribe.VenvDir)); err != nil {
		return fmt.Errorf("transcribe.venv_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	if value, ok := os.LookupEnv("PODCAST_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Publish.BaseURL = strings.TrimSpace(value)
	}
	c.Publish.BaseURL = strings.TrimSpace(c.Publish.BaseURL)
	if c.Publish.BaseURL == "" {
		c.Publish.BaseURL = defaultPublishBaseURL
	}
	if !strings.HasSuffix(c.Publish.BaseURL, "/") {
		c.Publish.BaseURL += "/"
	}
	c.Publish.Title = strings.TrimSpace(c.Publish.Title)
	if c.Publish.Title == "" {
		c.Publish.Title = defaultPublishTitle
	}
	c.Publish.Description = strings.TrimSpace(c.Publish.Description)
	if c.Publish.Description == "" {
		c.Publish.Description = defaultPublishDesc
	}
}

func (c *Config) normalizeArchive() error {
	if strings.TrimSpace(c.Archive.Path) == "" {
		c.Archive.Path = defaultArchivePath
	}
	var err error
	if c.Archive.Path, err = expandProjectPath(c.Paths.ProjectDir, strings.TrimSpace(c.Archive.Path)); err != nil {
		return fmt.Errorf("archive.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
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
}
