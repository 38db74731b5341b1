// Package pipeline runs image-to-video generation locally by handing a staged
// request to an external inference program, and renders placeholder pose
// animations.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/hooks"
	"github.com/flarebyte/ltx-i2v/internal/logging"
	"github.com/flarebyte/ltx-i2v/internal/manifest"
	"github.com/flarebyte/ltx-i2v/internal/payload"
	"github.com/flarebyte/ltx-i2v/internal/provenance"
)

const (
	requestFileName = "request.json"
	stdoutFileName  = "stdout.log"
	stderrFileName  = "stderr.log"
)

var (
	// ErrTimeout is returned when the inference program exceeds runtime.timeout_seconds.
	ErrTimeout = errors.New("inference program timed out")
	// ErrMissingOutput is returned when the program succeeded but wrote no video.
	ErrMissingOutput = errors.New("inference program produced no output")
	// ErrNoArgs is returned when runtime.args is empty.
	ErrNoArgs = errors.New("runtime.args is empty: nothing tells the program where to read the request")
)

// ExitError reports a non-zero exit of the inference program.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("inference program exited with code %d", e.Code)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// now is swapped in tests.
var now = time.Now

// GenerateVideo stages a request under a fresh run directory in outputDir,
// executes the configured inference program and returns the path of the
// rendered video. Logs and manifest.yaml are written next to the video even
// when the program fails.
func GenerateVideo(ctx context.Context, cfg *config.Config, outputDir string) (string, error) {
	log := logging.FromContext(ctx)
	if len(cfg.Runtime.Args) == 0 {
		return "", ErrNoArgs
	}

	req, err := payload.Build(cfg, payload.TargetLocal)
	if err != nil {
		return "", err
	}
	req, err = hooks.ApplyPayloadHook(ctx, cfg.Hooks.PayloadLua, time.Duration(cfg.Hooks.TimeoutMs)*time.Millisecond, req)
	if err != nil {
		return "", err
	}

	start := now()
	runID := uuid.NewString()
	runDir, err := filepath.Abs(filepath.Join(outputDir, runDirName(start, runID)))
	if err != nil {
		return "", fmt.Errorf("resolve run directory: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	outputPath := filepath.Join(runDir, "video."+cfg.Render.Format)
	requestPath := filepath.Join(runDir, requestFileName)
	req["output_path"] = outputPath
	if err := writeJSON(requestPath, req); err != nil {
		return "", fmt.Errorf("write request: %w", err)
	}

	args, err := renderArgs(cfg.Runtime.Args, argValues{
		request:   requestPath,
		output:    outputPath,
		outputDir: runDir,
		json:      req,
	})
	if err != nil {
		return "", err
	}

	log.Info("starting inference program", "run_id", runID, "program", cfg.Runtime.Program, "run_dir", runDir)
	res, runErr := runCommand(ctx, commandOptions{
		program:         cfg.Runtime.Program,
		args:            args,
		workingDir:      cfg.ResolvePath(cfg.Runtime.WorkingDir),
		env:             cfg.Runtime.Env,
		timeout:         time.Duration(cfg.Runtime.TimeoutSeconds) * time.Second,
		captureMaxBytes: cfg.Runtime.CaptureMaxBytes,
	})
	log.Info("inference program finished", "run_id", runID, "exit_code", res.exitCode, "duration", res.duration.Round(time.Millisecond))

	if err := writeLogs(runDir, res); err != nil {
		log.Warn("could not write program logs", "error", err)
	}

	prov, err := provenance.Describe(cfg.BaseDir)
	if err != nil {
		log.Warn("could not describe repository", "error", err)
	}
	m := map[string]any{
		"run_id":     runID,
		"created_at": start.UTC().Format(time.RFC3339),
		"request":    req,
		"output":     filepath.Base(outputPath),
		"runtime": map[string]any{
			"program":          cfg.Runtime.Program,
			"args":             args,
			"exit_code":        res.exitCode,
			"timed_out":        res.timedOut,
			"duration_ms":      res.duration.Milliseconds(),
			"stdout_truncated": res.stdoutTruncated,
			"stderr_truncated": res.stderrTruncated,
		},
	}
	if pm := prov.Map(); pm != nil {
		m["provenance"] = pm
	}
	if err := manifest.Write(filepath.Join(runDir, manifest.FileName), m); err != nil {
		log.Warn("could not write manifest", "error", err)
	}

	switch {
	case runErr != nil:
		return "", runErr
	case res.timedOut:
		return "", fmt.Errorf("%w after %ds", ErrTimeout, cfg.Runtime.TimeoutSeconds)
	case res.exitCode != 0:
		return "", &ExitError{Code: res.exitCode, Stderr: res.stderr}
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("%w: expected %s", ErrMissingOutput, outputPath)
	}
	return outputPath, nil
}

func runDirName(t time.Time, runID string) string {
	return t.UTC().Format("20060102T150405Z") + "-" + runID[:8]
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func writeLogs(runDir string, res commandResult) error {
	if err := os.WriteFile(filepath.Join(runDir, stdoutFileName), []byte(res.stdout), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, stderrFileName), []byte(res.stderr), 0o644)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
