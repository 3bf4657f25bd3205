package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"moltcast/internal/archive"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the local post archive",
	}
	archiveCmd.AddCommand(newArchiveListCommand(ctx))
	return archiveCmd
}

func newArchiveListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		since      time.Duration
		submolt    string
		minUpvotes int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived posts, most recently seen first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			opts := archive.ListOptions{Limit: limit, Submolt: submolt, MinUpvotes: minUpvotes}
			if since > 0 {
				opts.Since = time.Now().Add(-since)
			}
			runCtx := ctx.runContext(cmd, "archive list")
			records, err := store.List(runCtx, opts)
			if err != nil {
				return err
			}
			total, err := store.Count(runCtx)
			if err != nil {
				return err
			}

			if asJSON {
				posts := make([]any, 0, len(records))
				for _, rec := range records {
					posts = append(posts, rec.Post)
				}
				return writeJSON(cmd, map[string]any{"total": total, "posts": posts})
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No archived posts match.")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.Post.ID,
					rec.Post.Submolt.Name,
					strconv.Itoa(rec.Post.Upvotes),
					strconv.Itoa(rec.SeenCount),
					rec.LastSeen.Local().Format("2006-01-02 15:04"),
					truncate(rec.Post.Title, 60),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Submolt", "Upvotes", "Seen", "Last Seen", "Title"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Showing %d of %d archived posts\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum rows to show")
	cmd.Flags().DurationVar(&since, "since", 0, "Only posts seen within this window (e.g. 72h)")
	cmd.Flags().StringVar(&submolt, "submolt", "", "Only posts from this submolt")
	cmd.Flags().IntVar(&minUpvotes, "min-upvotes", 0, "Only posts with at least this many upvotes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
