package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"moltcast/internal/archive"
	"moltcast/internal/config"
	"moltcast/internal/episode"
	"moltcast/internal/fileutil"
	"moltcast/internal/filter"
	"moltcast/internal/ledger"
	"moltcast/internal/logging"
	"moltcast/internal/moltbook"
	"moltcast/internal/overlap"
	"moltcast/internal/relevance"
	"moltcast/internal/scraper"
	"moltcast/internal/services"
)

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var (
		theme       string
		input       string
		output      string
		limit       int
		episodeNum  int
		fromArchive bool
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Rank posts by theme and check overlap with earlier episodes",
		Long: fmt.Sprintf(`Scores posts from a scrape snapshot (or the archive) against a theme,
keeps the top matches, and reports how many were already used by earlier
episodes.

Available themes: %s`, strings.Join(relevance.Names(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = cfg.Filter.DefaultLimit
			}
			if (strings.TrimSpace(input) == "") == !fromArchive {
				return services.Wrap(services.ErrValidation, "cli", "filter", "provide exactly one of --input or --from-archive", nil)
			}
			if episodeNum < 0 {
				return services.Wrap(services.ErrValidation, "cli", "filter", fmt.Sprintf("--episode must be positive (got %d)", episodeNum), nil)
			}

			runCtx := ctx.runContext(cmd, "filter")
			if episodeNum > 0 {
				runCtx = services.WithEpisode(runCtx, episodeNum)
			}
			log := logging.WithContext(runCtx, logger).With(logging.String(logging.FieldTheme, theme))

			posts, err := loadFilterInput(ctx, cmd, input, fromArchive)
			if err != nil {
				return err
			}

			history, err := filterHistory(cfg, episodeNum, logger)
			if err != nil {
				return err
			}

			artifact, err := filter.Run(posts, filter.Options{Theme: theme, Limit: limit, History: history})
			if err != nil {
				return err
			}

			thresholds := overlap.Thresholds{WarnPercent: cfg.Filter.WarnPercent, RejectPercent: cfg.Filter.RejectPercent}
			level := thresholds.Classify(artifact.Overlap.OverlapPercent)
			errOut := cmd.ErrOrStderr()
			color := shouldColorize(errOut)
			switch level {
			case overlap.Warn, overlap.Reject:
				logging.WarnWithContext(log, "selection overlaps earlier episodes", "overlap_high",
					logging.Int("overlap_percent", artifact.Overlap.OverlapPercent),
					logging.String("level", level.String()),
					logging.Int("overlapping_posts", len(artifact.Overlap.OverlappingPosts)),
					logging.String(logging.FieldErrorHint, "raise --limit or pick another theme for fresher posts"),
					logging.String(logging.FieldImpact, "episode may repeat earlier material"))
				fmt.Fprintln(errOut, paint(color, levelColor(level),
					fmt.Sprintf("Warning: %d%% overlap with previous episodes (%s)", artifact.Overlap.OverlapPercent, level)))
			}
			if strict && level == overlap.Reject {
				return services.Wrap(services.ErrConflict, "cli", "filter",
					fmt.Sprintf("overlap %d%% is at or above the reject threshold of %d%%", artifact.Overlap.OverlapPercent, thresholds.RejectPercent), nil)
			}

			out := cmd.OutOrStdout()
			switch {
			case episodeNum > 0:
				layout := episode.Layout{Root: cfg.Paths.ProjectDir}
				if _, err := layout.LoadMetadata(episodeNum); err != nil {
					return err
				}
				var path string
				err := ctx.withProjectLock(func() error {
					var werr error
					path, werr = filter.WriteForEpisode(layout.RawPath(episodeNum), artifact)
					return werr
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %d of %d matching posts to %s\n", artifact.Returned, artifact.TotalMatching, path)
			case strings.TrimSpace(output) != "":
				path, err := config.ExpandPath(strings.TrimSpace(output))
				if err != nil {
					return err
				}
				if err := filter.Write(path, artifact); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %d of %d matching posts to %s\n", artifact.Returned, artifact.TotalMatching, path)
			default:
				return writeJSON(cmd, artifact)
			}
			log.Info("filter complete",
				logging.Int("matching", artifact.TotalMatching),
				logging.Int("returned", artifact.Returned),
				logging.Int("overlap_percent", artifact.Overlap.OverlapPercent))
			return nil
		},
	}

	cmd.Flags().StringVarP(&theme, "theme", "t", "", "Theme to match (required)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Scrape snapshot to read")
	cmd.Flags().BoolVar(&fromArchive, "from-archive", false, "Read posts from the archive instead of a snapshot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the artifact to this path instead of stdout")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum posts to keep (default from config)")
	cmd.Flags().IntVarP(&episodeNum, "episode", "e", 0, "Attribute the run to this episode (writes into its raw/ folder)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when overlap reaches the reject threshold")
	_ = cmd.MarkFlagRequired("theme")
	return cmd
}

func loadFilterInput(ctx *commandContext, cmd *cobra.Command, input string, fromArchive bool) ([]moltbook.Post, error) {
	if !fromArchive {
		path, err := config.ExpandPath(strings.TrimSpace(input))
		if err != nil {
			return nil, err
		}
		if !fileutil.Exists(path) {
			return nil, services.Wrap(services.ErrNotFound, "cli", "filter", "snapshot "+path+" not found; run `moltcast scrape` first", nil)
		}
		return scraper.ReadSnapshot(path)
	}
	store, err := ctx.openArchive()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Posts(ctx.runContext(cmd, "filter"), archive.ListOptions{})
}

// filterHistory combines earlier filter runs with the ledger. The episode
// being filtered for is excluded so re-runs do not flag its own posts.
func filterHistory(cfg *config.Config, episodeNum int, logger *slog.Logger) (overlap.Index, error) {
	index, err := overlap.BuildIndex(cfg.EpisodesDir(), logger)
	if err != nil {
		return nil, err
	}
	led, err := ledger.Load(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}
	index = index.WithOwners(led.Entries())
	if episodeNum > 0 {
		index = index.Without(episodeNum)
	}
	return index, nil
}
