package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moltcast/internal/config"
	"moltcast/internal/logging"
	"moltcast/internal/scraper"
	"moltcast/internal/services"
)

const defaultScrapeLimit = 25

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		output string
		feed   string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch hot and top posts into a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "scrape", fmt.Sprintf("--limit must be positive (got %d)", limit), nil)
			}
			selected, err := scraper.ParseFeed(strings.TrimSpace(feed))
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "scrape", "", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}
			s, err := ctx.scraper(cmd)
			if err != nil {
				return err
			}

			runCtx := ctx.runContext(cmd, "scrape")
			posts, err := s.Listing(runCtx, selected, limit)
			if err != nil {
				return err
			}
			if len(posts) > limit {
				posts = posts[:limit]
			}

			target, err := scrapeOutputPath(cfg, output, time.Now())
			if err != nil {
				return err
			}
			if err := scraper.WriteSnapshot(target, posts); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetched %d posts (%s)\n", len(posts), selected)
			fmt.Fprintf(out, "Saved to %s\n", target)

			if cfg.Archive.Enabled {
				store, err := ctx.openArchive()
				if err != nil {
					return err
				}
				defer store.Close()
				added, err := store.Upsert(runCtx, posts, string(selected), time.Now())
				if err != nil {
					return err
				}
				logging.WithContext(runCtx, logger).Info("archived posts",
					logging.Int("new", added),
					logging.Int("seen", len(posts)),
					logging.String("path", store.Path()))
				fmt.Fprintf(out, "Archived %d posts (%d new)\n", len(posts), added)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", defaultScrapeLimit, "Number of posts to keep after merging feeds")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Snapshot path (default <project>/data/posts-<date>.json)")
	cmd.Flags().StringVar(&feed, "feed", string(scraper.FeedBoth), "Feed to fetch: hot, top, or both")
	return cmd
}

func scrapeOutputPath(cfg *config.Config, output string, now time.Time) (string, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return filepath.Join(cfg.Paths.ProjectDir, "data", "posts-"+now.Format("2006-01-02")+".json"), nil
	}
	return config.ExpandPath(output)
}
