package pose

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/console"
	"github.com/flarebyte/ltx-i2v/internal/pipeline"
)

var (
	loadConfig            = config.Load
	generateYogaPoseVideo = pipeline.GenerateYogaPoseVideo
)

// NewCmd returns the `ltx pose` command.
func NewCmd() *cobra.Command {
	var poseName, outputDir string
	cmd := &cobra.Command{
		Use:           "pose [CONFIG_PATH]",
		Short:         "Generate a simple yoga-pose video (placeholder renderer)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			out := console.New(cmd.OutOrStdout())
			if err := out.Success("Generating yoga pose '%s'...", poseName); err != nil {
				return err
			}
			result, err := generateYogaPoseVideo(cmd.Context(), cfg, outputDir, poseName)
			if err != nil {
				return err
			}
			return out.Info("Pose video written to: %s", result)
		},
	}
	cmd.Flags().StringVar(&poseName, "pose", "tree", "Pose name: tree|warrior|other")
	cmd.Flags().StringVar(&outputDir, "output-dir", "outputs", "Directory for rendered videos and logs")
	return cmd
}
