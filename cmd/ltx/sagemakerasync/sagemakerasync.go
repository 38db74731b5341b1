package sagemakerasync

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/console"
	"github.com/flarebyte/ltx-i2v/internal/sagemaker"
)

const exitCodeWaitTimeout = 2

var (
	loadConfig            = config.Load
	submitAsyncInvocation = sagemaker.SubmitAsyncInvocation
)

type asyncExitError struct {
	code int
	msg  string
}

func (e asyncExitError) Error() string { return e.msg }
func (e asyncExitError) ExitCode() int { return e.code }

type options struct {
	endpointName   string
	configPath     string
	stagingDir     string
	inputBucket    string
	outputBucket   string
	inputPrefix    string
	outputPrefix   string
	promptOverride string
	wait           bool
	noWait         bool
	pollInterval   int
	timeoutSeconds int
}

// NewCmd returns the `ltx sagemaker-async` command.
func NewCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "sagemaker-async",
		Short:         "Submit the current config to a SageMaker Async Inference endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.noWait {
				o.wait = false
			}
			if strings.TrimSpace(o.endpointName) == "" {
				name, err := promptLine(cmd.InOrStdin(), cmd.OutOrStdout(), "Endpoint name: ")
				if err != nil {
					return err
				}
				o.endpointName = name
			}
			return o.execute(cmd.Context(), console.New(cmd.OutOrStdout()))
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.endpointName, "endpoint-name", "", "Name of the SageMaker async endpoint (prompted when omitted)")
	f.StringVar(&o.configPath, "config-path", config.DefaultPath, "Path to the run configuration")
	f.StringVar(&o.stagingDir, "staging-dir", "outputs/async_payloads", "Local folder for staged payloads")
	f.StringVar(&o.inputBucket, "input-bucket", "", "Override input S3 bucket; defaults to aws.s3_bucket")
	f.StringVar(&o.outputBucket, "output-bucket", "", "Override output S3 bucket; defaults to aws.s3_bucket")
	f.StringVar(&o.inputPrefix, "input-prefix", "async-inputs", "S3 prefix for pending payloads")
	f.StringVar(&o.outputPrefix, "output-prefix", "async-outputs", "S3 prefix where the endpoint writes results")
	f.StringVar(&o.promptOverride, "prompt-override", "", "Optional prompt override without editing the YAML")
	f.BoolVar(&o.wait, "wait", true, "Wait for the endpoint to finish and report the first artifact")
	f.BoolVar(&o.noWait, "no-wait", false, "Return right after submission (same as --wait=false)")
	_ = f.MarkHidden("no-wait")
	f.IntVar(&o.pollInterval, "poll-interval", 15, "Seconds between S3 checks when waiting")
	f.IntVar(&o.timeoutSeconds, "timeout-seconds", 900, "Maximum seconds to wait for an async result")
	return cmd
}

func (o options) execute(ctx context.Context, out *console.Printer) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	var overrides map[string]any
	if o.promptOverride != "" {
		overrides = map[string]any{"prompt": o.promptOverride}
	}

	h, err := submitAsyncInvocation(ctx, cfg, sagemaker.Options{
		EndpointName:      o.endpointName,
		StagingDir:        o.stagingDir,
		InputBucket:       o.inputBucket,
		OutputBucket:      o.outputBucket,
		InputPrefix:       o.inputPrefix,
		OutputPrefix:      o.outputPrefix,
		WaitForCompletion: o.wait,
		PollInterval:      time.Duration(o.pollInterval) * time.Second,
		Timeout:           time.Duration(o.timeoutSeconds) * time.Second,
		PayloadOverrides:  overrides,
	})
	if h != nil {
		if perr := report(out, h); perr != nil {
			return perr
		}
	}
	if errors.Is(err, sagemaker.ErrWaitTimeout) {
		return asyncExitError{code: exitCodeWaitTimeout, msg: fmt.Sprintf("%v after %ds; the request may still complete", err, o.timeoutSeconds)}
	}
	return err
}

func report(out *console.Printer, h *sagemaker.Handle) error {
	if err := out.Success("Submitted async request %s to %s", h.InferenceID, h.EndpointName); err != nil {
		return err
	}
	if err := out.Info("Input payload: %s", h.InputS3URI); err != nil {
		return err
	}
	if err := out.Info("Output prefix: %s", h.OutputLocation); err != nil {
		return err
	}
	if h.CompletedOutput != "" {
		return out.Highlight("Async result available at: %s", h.CompletedOutput)
	}
	return nil
}

func promptLine(in io.Reader, out io.Writer, label string) (string, error) {
	if _, err := io.WriteString(out, label); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read endpoint name: %w", err)
	}
	return strings.TrimSpace(line), nil
}
