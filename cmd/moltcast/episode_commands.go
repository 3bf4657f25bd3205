package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moltcast/internal/episode"
	"moltcast/internal/logging"
	"moltcast/internal/services"
)

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	episodeCmd := &cobra.Command{
		Use:   "episode",
		Short: "Create, confirm, transcribe, publish, and inspect episodes",
	}

	episodeCmd.AddCommand(newEpisodeNewCommand(ctx))
	episodeCmd.AddCommand(newEpisodeConfirmCommand(ctx))
	episodeCmd.AddCommand(newEpisodeDeleteCommand(ctx))
	episodeCmd.AddCommand(newEpisodeTranscribeCommand(ctx))
	episodeCmd.AddCommand(newEpisodePublishCommand(ctx))
	episodeCmd.AddCommand(newEpisodeStatusCommand(ctx))

	return episodeCmd
}

func parseEpisodeNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n <= 0 {
		return 0, services.Wrap(services.ErrValidation, "cli", "episode", fmt.Sprintf("invalid episode number %q", arg), nil)
	}
	return n, nil
}

func newEpisodeNewCommand(ctx *commandContext) *cobra.Command {
	var (
		limit int
		title string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Select uncovered posts and lay out the next episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Episode.DefaultLimit
			}
			mgr, err := ctx.manager(cmd)
			if err != nil {
				return err
			}
			source, err := ctx.scraper(cmd)
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}

			return ctx.withProjectLock(func() error {
				led, err := ctx.openLedger()
				if err != nil {
					return err
				}
				runCtx := ctx.runContext(cmd, "create")
				result, err := mgr.Create(runCtx, episode.CreateOptions{Limit: limit, Title: title}, source, led)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				errOut := cmd.ErrOrStderr()
				color := shouldColorize(errOut)
				for _, warning := range result.Warnings {
					fmt.Fprintln(errOut, paint(color, ansiYellow, "Warning: "+warning))
				}

				pending, err := mgr.PendingSelections(result.Episode, led)
				if err != nil {
					return err
				}
				if len(pending.OverlappingPosts) > 0 {
					logging.WarnWithContext(logging.WithContext(services.WithEpisode(runCtx, result.Episode), logger),
						"posts also selected by an unconfirmed episode", "pending_selection_overlap",
						logging.Int("overlap_percent", pending.OverlapPercent),
						logging.Int("overlapping_posts", len(pending.OverlappingPosts)),
						logging.String(logging.FieldErrorHint, "confirm or delete the other episode before recording"),
						logging.String(logging.FieldImpact, "two episodes may cover the same posts"))
					fmt.Fprintln(errOut, paint(color, ansiYellow, fmt.Sprintf(
						"Warning: %d%% of selected posts are also in unconfirmed episodes", pending.OverlapPercent)))
				}

				fmt.Fprintf(out, "Created episode %s: %s\n", episode.FormatNumber(result.Episode), result.Title)
				fmt.Fprintf(out, "Directory: %s\n", result.Dir)
				fmt.Fprintf(out, "Posts: %d\n", len(result.PostIDs))
				fmt.Fprintln(out, "Next: generate audio from the notebooklm/ folder, save it as audio.mp3, then run")
				fmt.Fprintf(out, "  moltcast episode confirm %d\n", result.Episode)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of posts to select")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Episode title (default \"Episode <n>\")")
	return cmd
}

func newEpisodeConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <episode>",
		Short: "Mark a recorded episode's posts as covered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseEpisodeNumber(args[0])
			if err != nil {
				return err
			}
			mgr, err := ctx.manager(cmd)
			if err != nil {
				return err
			}
			return ctx.withProjectLock(func() error {
				led, err := ctx.openLedger()
				if err != nil {
					return err
				}
				result, err := mgr.Confirm(ctx.runContext(cmd, "confirm"), n, led)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Episode %s confirmed: %d posts marked as covered\n", episode.FormatNumber(n), result.Marked)
				if n := len(result.Reassigned); n > 0 {
					fmt.Fprintf(out, "%d posts were previously attributed to another episode\n", n)
				}
				return nil
			})
		},
	}
}

func newEpisodeDeleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <episode>",
		Short: "Remove an episode and, with --force, release its covered posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseEpisodeNumber(args[0])
			if err != nil {
				return err
			}
			mgr, err := ctx.manager(cmd)
			if err != nil {
				return err
			}
			return ctx.withProjectLock(func() error {
				led, err := ctx.openLedger()
				if err != nil {
					return err
				}
				result, err := mgr.Delete(ctx.runContext(cmd, "delete"), n, force, led)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deleted episode %s\n", episode.FormatNumber(n))
				if len(result.Unmarked) > 0 {
					fmt.Fprintf(out, "Released %d covered posts\n", len(result.Unmarked))
				}
				if result.RemovedPublished {
					fmt.Fprintln(out, "Removed published files (run `moltcast episode publish` on another episode to refresh the index)")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if posts are marked covered")
	return cmd
}

func newEpisodeTranscribeCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "transcribe <episode>",
		Short: "Transcribe and diarize an episode's audio with WhisperX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseEpisodeNumber(args[0])
			if err != nil {
				return err
			}
			if timeout < 0 {
				return services.Wrap(services.ErrValidation, "cli", "transcribe", "--timeout must not be negative", nil)
			}
			mgr, err := ctx.manager(cmd)
			if err != nil {
				return err
			}
			return ctx.withProjectLock(func() error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Transcribing episode %s...\n", episode.FormatNumber(n))
				result, err := mgr.Transcribe(ctx.runContext(cmd, "transcribe"), n, timeout)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Transcript saved to %s\n", result.TranscriptPath)
				if result.SpeakerCount > 0 {
					fmt.Fprintf(out, "Speakers detected: %d\n", result.SpeakerCount)
				}
				fmt.Fprintf(out, "Took %s\n", result.Duration.Round(time.Second))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Transcription time limit (default from config)")
	return cmd
}

func newEpisodePublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <episode>",
		Short: "Render a transcribed episode into the static site and feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseEpisodeNumber(args[0])
			if err != nil {
				return err
			}
			mgr, err := ctx.manager(cmd)
			if err != nil {
				return err
			}
			return ctx.withProjectLock(func() error {
				result, err := mgr.Publish(ctx.runContext(cmd, "publish"), n)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Published episode %s to %s\n", episode.FormatNumber(n), result.Dir)
				fmt.Fprintf(out, "Site index: %s\n", result.IndexPath)
				fmt.Fprintf(out, "Feed: %s (%d episodes)\n", result.FeedPath, result.Listed)
				return nil
			})
		},
	}
}

func newEpisodeStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status [episode]",
		Short: "Show derived lifecycle stage and coverage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.manager(cmd)
			if err != nil {
				return err
			}
			led, err := ctx.openLedger()
			if err != nil {
				return err
			}

			var statuses []episode.StatusInfo
			if len(args) == 1 {
				n, err := parseEpisodeNumber(args[0])
				if err != nil {
					return err
				}
				info, err := mgr.Status(n, led)
				if err != nil {
					return err
				}
				statuses = []episode.StatusInfo{info}
			} else {
				statuses, err = mgr.StatusAll(ctx.runContext(cmd, "status"), led)
				if err != nil {
					return err
				}
			}

			if asJSON {
				if statuses == nil {
					statuses = []episode.StatusInfo{}
				}
				return writeJSON(cmd, statuses)
			}
			out := cmd.OutOrStdout()
			if len(statuses) == 0 {
				fmt.Fprintln(out, "No episodes found.")
				return nil
			}
			fmt.Fprintln(out, renderStatusTable(statuses))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderStatusTable(statuses []episode.StatusInfo) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		speakers := "-"
		if s.SpeakerCount != nil {
			speakers = strconv.Itoa(*s.SpeakerCount)
		}
		rows = append(rows, []string{
			episode.FormatNumber(s.Episode),
			string(s.Stage),
			yesNo(s.Covered),
			strconv.Itoa(s.PostCount),
			speakers,
			s.Title,
		})
	}
	return renderTable(
		[]string{"Episode", "Stage", "Covered", "Posts", "Speakers", "Title"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
