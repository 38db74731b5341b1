package root

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flarebyte/ltx-i2v/cmd/ltx/payload"
	"github.com/flarebyte/ltx-i2v/cmd/ltx/pose"
	"github.com/flarebyte/ltx-i2v/cmd/ltx/run"
	"github.com/flarebyte/ltx-i2v/cmd/ltx/sagemakerasync"
	"github.com/flarebyte/ltx-i2v/cmd/ltx/validate"
	"github.com/flarebyte/ltx-i2v/cmd/ltx/version"
	"github.com/flarebyte/ltx-i2v/internal/logging"
)

// NewRootCmd creates the root command for ltx.
func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string
	cmd := &cobra.Command{
		Use:   "ltx",
		Short: "Utilities for LTX image-to-video experimentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logLevel, logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	// Subcommands
	cmd.AddCommand(run.NewCmd())
	cmd.AddCommand(validate.NewCmd())
	cmd.AddCommand(pose.NewCmd())
	cmd.AddCommand(sagemakerasync.NewCmd())
	cmd.AddCommand(payload.NewCmd())
	cmd.AddCommand(version.NewCmd())

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	return ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the root command with provided args under ctx.
func ExecuteContext(ctx context.Context, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
