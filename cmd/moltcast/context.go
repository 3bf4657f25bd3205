package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"moltcast/internal/archive"
	"moltcast/internal/config"
	"moltcast/internal/episode"
	"moltcast/internal/ledger"
	"moltcast/internal/logging"
	"moltcast/internal/moltbook"
	"moltcast/internal/projectlock"
	"moltcast/internal/scraper"
	"moltcast/internal/services"
)

type commandContext struct {
	configFlag *string
	runID      string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		runID:      uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loggerFor builds the run logger once; log lines go to the command's stderr.
func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runContext attaches the run correlation id and operation name.
func (c *commandContext) runContext(cmd *cobra.Command, operation string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, c.runID)
	if operation != "" {
		ctx = services.WithOperation(ctx, operation)
	}
	return ctx
}

// withProjectLock runs fn while holding the advisory project lock.
func (c *commandContext) withProjectLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := projectlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return fn()
}

func (c *commandContext) openLedger() (*ledger.Ledger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Load(cfg.LedgerPath())
}

func (c *commandContext) manager(cmd *cobra.Command) (*episode.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	return episode.NewManager(cfg, logger), nil
}

func (c *commandContext) sourceClient(cmd *cobra.Command) (*moltbook.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	return moltbook.NewClient(moltbook.ConfigFrom(cfg), moltbook.WithLogger(logger)), nil
}

func (c *commandContext) scraper(cmd *cobra.Command) (*scraper.Scraper, error) {
	client, err := c.sourceClient(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	return scraper.New(client, logger), nil
}

// openArchive opens the post archive. It fails when the archive is disabled.
func (c *commandContext) openArchive() (*archive.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Archive.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "open archive",
			"archive is disabled; set [archive] enabled = true in the config", nil)
	}
	return archive.Open(cfg.Archive.Path)
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
