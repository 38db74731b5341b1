package payload

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/console"
	"github.com/flarebyte/ltx-i2v/internal/hooks"
	ltxpayload "github.com/flarebyte/ltx-i2v/internal/payload"
)

var loadConfig = config.Load

// NewCmd returns the `ltx payload` command, which prints the request body a
// run or submission would send after overrides and the payload hook.
func NewCmd() *cobra.Command {
	var (
		configPath     string
		promptOverride string
		remote         bool
	)
	cmd := &cobra.Command{
		Use:           "payload",
		Short:         "Print the resolved request payload as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			target := ltxpayload.TargetLocal
			if remote {
				target = ltxpayload.TargetRemote
			}
			p, err := ltxpayload.Build(cfg, target)
			if err != nil {
				return err
			}
			if promptOverride != "" {
				p = ltxpayload.ApplyOverrides(p, map[string]any{"prompt": promptOverride})
			}
			p, err = hooks.ApplyPayloadHook(cmd.Context(), cfg.Hooks.PayloadLua, time.Duration(cfg.Hooks.TimeoutMs)*time.Millisecond, p)
			if err != nil {
				return err
			}
			return console.EncodeJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&configPath, "config-path", config.DefaultPath, "Path to the run configuration")
	cmd.Flags().StringVar(&promptOverride, "prompt-override", "", "Optional prompt override without editing the YAML")
	cmd.Flags().BoolVar(&remote, "remote", false, "Build the async endpoint payload (embedded image) instead of the local one")
	return cmd
}
