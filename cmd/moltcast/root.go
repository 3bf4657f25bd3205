package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"moltcast/internal/logging"
	"moltcast/internal/services"
)

func newRootCommand() *cobra.Command {
	cmd, _ := newRootCommandWithContext()
	return cmd
}

func newRootCommandWithContext() (*cobra.Command, *commandContext) {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "moltcast",
		Short:         "Turn Moltbook posts into podcast episodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newScrapeCommand(ctx))
	rootCmd.AddCommand(newFilterCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newEpisodeCommand(ctx))
	rootCmd.AddCommand(newArchiveCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd, ctx
}

// execute runs the command tree and records a failed run in the log.
func execute(ctx context.Context, rootCmd *cobra.Command, cmdCtx *commandContext) error {
	executed, err := rootCmd.ExecuteContextC(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		cmdCtx.logFailure(executed, err)
	}
	return err
}

// logFailure only logs when the run already built a logger; config and
// usage errors fail before one exists.
func (c *commandContext) logFailure(cmd *cobra.Command, err error) {
	if c.logger == nil || cmd == nil {
		return
	}
	logger := logging.WithContext(c.runContext(cmd, ""), c.logger)
	logging.ErrorWithContext(logger, "command failed", "command_failed",
		logging.String("command", cmd.CommandPath()),
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)))
}

func failureHint(err error) string {
	switch services.Kind(err) {
	case "not_found":
		return "check the episode number with `moltcast episode status`"
	case "precondition_failed":
		return "finish the previous lifecycle step, then retry"
	case "conflict":
		return "resolve the conflict or rerun with the documented override flag"
	case "validation":
		return "fix the arguments or run `moltcast config validate`"
	case "external_failure", "transient":
		return "run `moltcast doctor` and retry"
	default:
		return "check logs for details"
	}
}
