package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moltcast/internal/config"
	"moltcast/internal/fileutil"
	"moltcast/internal/report"
	"moltcast/internal/scraper"
	"moltcast/internal/services"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var (
		limit       int
		feed        string
		output      string
		maxComments int
		maxDepth    int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the daily markdown report of popular posts and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "report", fmt.Sprintf("--limit must be positive (got %d)", limit), nil)
			}
			selected, err := scraper.ParseFeed(strings.TrimSpace(feed))
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "report", "", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-comments") {
				maxComments = cfg.Episode.MaxComments
			}
			if !cmd.Flags().Changed("max-depth") {
				maxDepth = cfg.Episode.MaxDepth
			}
			s, err := ctx.scraper(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetching %s posts (limit: %d)...\n", selected, limit)
			posts, err := s.Harvest(ctx.runContext(cmd, "report"), scraper.Options{
				Limit:       limit,
				Feed:        selected,
				MaxComments: maxComments,
				MaxDepth:    maxDepth,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Scraped %d posts with comments\n", len(posts))

			now := time.Now()
			dir := strings.TrimSpace(output)
			if dir == "" {
				dir = filepath.Join(cfg.Paths.ProjectDir, "output")
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return err
			}
			target := filepath.Join(dir, "moltbook-"+now.Format("2006-01-02")+".md")
			body := report.Generate(posts, report.Options{Feed: selected, Limit: limit, Now: now, MaxDepth: maxDepth})
			if err := fileutil.WriteFileAtomic(target, []byte(body), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Report saved to: %s\n", target)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", defaultScrapeLimit, "Number of posts per feed")
	cmd.Flags().StringVarP(&feed, "feed", "s", string(scraper.FeedBoth), "Feed to scrape: hot, top, or both")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default <project>/output)")
	cmd.Flags().IntVar(&maxComments, "max-comments", 10, "Max comments per post")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 3, "Max comment reply depth")
	return cmd
}
