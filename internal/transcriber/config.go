package transcriber

import (
	"path/filepath"

	"moltcast/internal/config"
)

// Config captures runtime settings for WhisperX invocations.
type Config struct {
	// Binary is the whisperx executable, normally inside the project venv.
	Binary      string
	Model       string
	ComputeType string
	Language    string
	// HFToken authorizes the pyannote diarization models.
	HFToken string
	// VenvDir is checked by Available; empty skips the check.
	VenvDir string
}

// WhisperX defaults matching the configured project environment.
const (
	DefaultBinary      = "whisperx"
	DefaultModel       = "large-v2"
	DefaultComputeType = "int8"
	DefaultLanguage    = "en"
)

// OutputExtensions lists the WhisperX output formats that are kept.
var OutputExtensions = []string{".json", ".txt", ".vtt", ".srt", ".tsv"}

// TranscriptBase is the base name outputs are renamed to.
const TranscriptBase = "transcript"

// ConfigFrom builds transcriber settings from the loaded configuration.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Binary:      cfg.TranscriberBinary(),
		Model:       cfg.Transcribe.Model,
		ComputeType: cfg.Transcribe.ComputeType,
		Language:    cfg.Transcribe.Language,
		HFToken:     cfg.Transcribe.HFToken,
		VenvDir:     cfg.Transcribe.VenvDir,
	}
}

func (c Config) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	if c.VenvDir != "" {
		return filepath.Join(c.VenvDir, "bin", DefaultBinary)
	}
	return DefaultBinary
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
