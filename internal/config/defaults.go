package config

const (
	defaultConfigPath        = "~/.config/moltcast/config.toml"
	projectConfigName        = "moltcast.toml"
	defaultProjectDir        = "."
	defaultSourceBaseURL     = "https://www.moltbook.com/api/v1"
	defaultSourceUserAgent   = "moltcast/dev"
	defaultRateLimitMS       = 600
	defaultMaxRetries        = 3
	defaultSourceTimeout     = 10
	defaultEpisodeLimit      = 10
	defaultEpisodeMaxFetch   = 100
	defaultMaxComments       = 10
	defaultMaxDepth          = 3
	defaultFilterLimit       = 10
	defaultWarnPercent       = 20
	defaultRejectPercent     = 40
	defaultVenvDir           = "whisperx-venv"
	defaultTranscribeCommand = "whisperx"
	defaultTranscribeModel   = "large-v2"
	defaultComputeType       = "int8"
	defaultLanguage          = "en"
	defaultTranscribeTimeout = 600
	defaultPublishBaseURL    = "https://ethanjstark.github.io/moltbook-podcast/"
	defaultPublishTitle      = "Moltbook Report Podcast"
	defaultPublishDesc       = "AI-generated deep dives into Moltbook, the AI agent social network."
	defaultArchivePath       = "~/.local/share/moltcast/archive.db"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

func defaultContextFiles() []string {
	return []string{
		"moltbook-overview.md",
		"moltbook-origins-launch.md",
		"key-agents.md",
		"notebooklm-guide.md",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
		},
		Source: Source{
			BaseURL:        defaultSourceBaseURL,
			UserAgent:      defaultSourceUserAgent,
			RateLimitMS:    defaultRateLimitMS,
			MaxRetries:     defaultMaxRetries,
			TimeoutSeconds: defaultSourceTimeout,
		},
		Episode: Episode{
			DefaultLimit: defaultEpisodeLimit,
			MaxFetch:     defaultEpisodeMaxFetch,
			MaxComments:  defaultMaxComments,
			MaxDepth:     defaultMaxDepth,
			ContextFiles: defaultContextFiles(),
		},
		Filter: Filter{
			DefaultLimit:  defaultFilterLimit,
			WarnPercent:   defaultWarnPercent,
			RejectPercent: defaultRejectPercent,
		},
		Transcribe: Transcribe{
			VenvDir:        defaultVenvDir,
			Command:        defaultTranscribeCommand,
			Model:          defaultTranscribeModel,
			ComputeType:    defaultComputeType,
			Language:       defaultLanguage,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Publish: Publish{
			BaseURL:     defaultPublishBaseURL,
			Title:       defaultPublishTitle,
			Description: defaultPublishDesc,
		},
		Archive: Archive{
			Path: defaultArchivePath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
