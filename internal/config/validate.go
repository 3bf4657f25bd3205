package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateEpisode(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if err := validateHTTPURL("source.base_url", c.Source.BaseURL); err != nil {
		return err
	}
	if c.Source.MaxRetries < 1 {
		return errors.New("source.max_retries must be >= 1")
	}
	return ensurePositiveMap(map[string]int{
		"source.timeout_seconds": c.Source.TimeoutSeconds,
	})
}

func (c *Config) validateEpisode() error {
	if err := ensurePositiveMap(map[string]int{
		"episode.default_limit": c.Episode.DefaultLimit,
		"episode.max_fetch":     c.Episode.MaxFetch,
		"episode.max_depth":     c.Episode.MaxDepth,
	}); err != nil {
		return err
	}
	if c.Episode.MaxComments < 0 {
		return errors.New("episode.max_comments must be >= 0")
	}
	return nil
}

func (c *Config) validateFilter() error {
	if c.Filter.WarnPercent < 0 || c.Filter.WarnPercent > 100 {
		return errors.New("filter.warn_percent must be between 0 and 100")
	}
	if c.Filter.RejectPercent < 0 || c.Filter.RejectPercent > 100 {
		return errors.New("filter.reject_percent must be between 0 and 100")
	}
	if c.Filter.RejectPercent < c.Filter.WarnPercent {
		return errors.New("filter.reject_percent must be >= filter.warn_percent")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if c.Transcribe.TimeoutSeconds <= 0 {
		return errors.New("transcribe.timeout_seconds must be positive")
	}
	switch c.Transcribe.ComputeType {
	case "int8", "float16", "float32", "int8_float16":
	default:
		return fmt.Errorf("transcribe.compute_type: unsupported value %q", c.Transcribe.ComputeType)
	}
	return nil
}

func (c *Config) validatePublish() error {
	return validateHTTPURL("publish.base_url", c.Publish.BaseURL)
}

func (c *Config) validateArchive() error {
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Path) == "" {
		return errors.New("archive.path must be set when archive.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
