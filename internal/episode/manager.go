package episode

import (
	"context"
	"log/slog"
	"time"

	"moltcast/internal/config"
	"moltcast/internal/logging"
	"moltcast/internal/render"
	"moltcast/internal/scraper"
	"moltcast/internal/transcriber"
)

// Harvester supplies candidate posts for a new episode.
type Harvester interface {
	Harvest(ctx context.Context, opts scraper.Options) ([]scraper.ScrapedPost, error)
}

// Transcriber runs the external speech-to-text tool.
type Transcriber interface {
	Available() error
	HasToken() bool
	Transcribe(ctx context.Context, audioPath, outputDir string, timeout time.Duration) (transcriber.Result, error)
}

// Settings holds the tunables the lifecycle operations read from config.
type Settings struct {
	ContextFiles      []string
	MaxFetch          int
	MaxComments       int
	MaxDepth          int
	TranscribeTimeout time.Duration
}

// SettingsFrom extracts lifecycle settings from cfg.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		ContextFiles:      append([]string(nil), cfg.Episode.ContextFiles...),
		MaxFetch:          cfg.Episode.MaxFetch,
		MaxComments:       cfg.Episode.MaxComments,
		MaxDepth:          cfg.Episode.MaxDepth,
		TranscribeTimeout: cfg.TranscribeTimeout(),
	}
}

// Manager runs lifecycle operations against one project directory.
type Manager struct {
	layout      Layout
	settings    Settings
	logger      *slog.Logger
	transcriber Transcriber
	renderer    *render.Renderer
	now         func() time.Time
}

// NewManager constructs a manager using default collaborators built from cfg.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	tr := transcriber.NewService(transcriber.ConfigFrom(cfg), logger)
	renderer := render.New(render.Site{
		BaseURL:     cfg.Publish.BaseURL,
		Title:       cfg.Publish.Title,
		Description: cfg.Publish.Description,
	})
	return NewManagerWithDependencies(Layout{Root: cfg.Paths.ProjectDir}, SettingsFrom(cfg), logger, tr, renderer, time.Now)
}

// NewManagerWithDependencies allows injecting collaborators (used in tests).
func NewManagerWithDependencies(layout Layout, settings Settings, logger *slog.Logger, tr Transcriber, renderer *render.Renderer, now func() time.Time) *Manager {
	if settings.MaxFetch <= 0 {
		settings.MaxFetch = 100
	}
	if now == nil {
		now = time.Now
	}
	if renderer == nil {
		renderer = render.New(render.Site{})
	}
	return &Manager{
		layout:      layout,
		settings:    settings,
		logger:      logging.NewComponentLogger(logger, "episode"),
		transcriber: tr,
		renderer:    renderer,
		now:         now,
	}
}

// Layout exposes the project paths the manager operates on.
func (m *Manager) Layout() Layout { return m.layout }

func (m *Manager) loggerFor(ctx context.Context, n int, operation string) *slog.Logger {
	return logging.WithContext(ctx, m.logger).With(
		logging.String(logging.FieldEpisode, FormatNumber(n)),
		logging.String(logging.FieldOperation, operation),
	)
}
