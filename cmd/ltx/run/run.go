package run

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/console"
	"github.com/flarebyte/ltx-i2v/internal/pipeline"
)

var (
	loadConfig    = config.Load
	generateVideo = pipeline.GenerateVideo
)

type options struct {
	outputDir string
	dryRun    bool
	noDryRun  bool
}

// NewCmd returns the `ltx run` command.
func NewCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "run [CONFIG_PATH]",
		Short:         "Load configuration, validate settings, and hand off to the execution pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			if o.noDryRun {
				o.dryRun = false
			}
			return o.execute(cmd.Context(), console.New(cmd.OutOrStdout()), path)
		},
	}
	cmd.Flags().StringVar(&o.outputDir, "output-dir", "outputs", "Directory for rendered videos and logs")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Print the resolved config without executing")
	cmd.Flags().BoolVar(&o.noDryRun, "no-dry-run", false, "Execute the pipeline (overrides --dry-run)")
	_ = cmd.Flags().MarkHidden("no-dry-run")
	return cmd
}

func (o options) execute(ctx context.Context, out *console.Printer, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if o.dryRun {
		dump, err := cfg.JSON()
		if err != nil {
			return err
		}
		return out.Detail(dump)
	}

	if err := out.Success("Ready to run LTX pipeline with prompt: %s", cfg.Prompt); err != nil {
		return err
	}
	if err := out.Success("Assets will be written to %s", o.outputDir); err != nil {
		return err
	}
	result, err := generateVideo(ctx, cfg, o.outputDir)
	if err != nil {
		return err
	}
	return out.Info("Result written to: %s", result)
}
