package validate

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/console"
)

var loadConfig = config.Load

// NewCmd returns the `ltx validate` command.
func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "validate [CONFIG_PATH]",
		Short:         "Validate project configuration to ensure deployment readiness",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 && args[0] != "" {
				path = args[0]
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			out := console.New(cmd.OutOrStdout())
			if err := out.Success("Configuration looks valid."); err != nil {
				return err
			}
			return out.Info("Model checkpoint: %s\nTarget fps: %d\nDuration: %ss",
				cfg.Model.Checkpoint, cfg.Render.FPS, formatSeconds(cfg.Render.DurationSeconds))
		},
	}
}

// formatSeconds keeps one decimal for whole numbers, so 4 prints as "4.0".
func formatSeconds(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
