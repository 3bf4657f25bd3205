package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moltcast/internal/preflight"
	"moltcast/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check project directories, WhisperX, tokens, and the Moltbook API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(ctx.runContext(cmd, "doctor"), cfg, preflight.Options{SkipNetwork: offline})

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			for _, r := range results {
				mark := paint(color, ansiGreen, "ok  ")
				if !r.Passed {
					mark = paint(color, ansiRed, "FAIL")
				}
				fmt.Fprintf(out, "%s %-20s %s\n", mark, r.Name, r.Detail)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrPrecondition, "cli", "doctor",
					fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), nil)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Moltbook API check")
	return cmd
}
