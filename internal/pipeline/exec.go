package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultTermGrace = 2 * time.Second
	timedOutExitCode = -2
)

type limitedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.max <= 0 {
		return n, nil
	}
	remain := b.max - b.buf.Len()
	if remain > 0 {
		if remain > len(p) {
			remain = len(p)
		}
		_, _ = b.buf.Write(p[:remain])
	}
	if len(p) > remain {
		b.truncated = true
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }

type commandOptions struct {
	program         string
	args            []string
	workingDir      string
	env             map[string]string
	timeout         time.Duration
	termGrace       time.Duration
	captureMaxBytes int
	stdout          io.Writer // optional live mirror
	stderr          io.Writer
}

type commandResult struct {
	exitCode        int
	stdout          string
	stderr          string
	stdoutTruncated bool
	stderrTruncated bool
	timedOut        bool
	duration        time.Duration
}

// runCommand starts the program in its own process group, waits for it and
// escalates SIGTERM to SIGKILL when the timeout or ctx fires. A non-zero exit
// is reported through commandResult, not as an error.
func runCommand(ctx context.Context, opts commandOptions) (commandResult, error) {
	cmd := exec.Command(opts.program, opts.args...)
	cmd.Dir = opts.workingDir
	cmd.Env = applyEnvOverlay(os.Environ(), opts.env)
	setProcessGroup(cmd)

	outBuf := &limitedBuffer{max: opts.captureMaxBytes}
	errBuf := &limitedBuffer{max: opts.captureMaxBytes}
	cmd.Stdout = mirror(outBuf, opts.stdout)
	cmd.Stderr = mirror(errBuf, opts.stderr)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return commandResult{exitCode: -1}, fmt.Errorf("program %s not found: %w", opts.program, err)
		}
		return commandResult{exitCode: -1}, fmt.Errorf("program %s start failed: %w", opts.program, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timeoutC <-chan time.Time
	if opts.timeout > 0 {
		timer := time.NewTimer(opts.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}
	grace := opts.termGrace
	if grace <= 0 {
		grace = defaultTermGrace
	}

	var runErr error
	timedOut := false
	canceled := false
	select {
	case runErr = <-done:
	case <-timeoutC:
		timedOut = true
		runErr = terminate(cmd, done, grace)
	case <-ctx.Done():
		canceled = true
		runErr = terminate(cmd, done, grace)
	}

	res := commandResult{
		stdout:          outBuf.String(),
		stderr:          errBuf.String(),
		stdoutTruncated: outBuf.truncated,
		stderrTruncated: errBuf.truncated,
		timedOut:        timedOut,
		duration:        time.Since(start),
	}
	switch {
	case canceled:
		res.exitCode = -1
		return res, ctx.Err()
	case timedOut:
		res.exitCode = timedOutExitCode
		return res, nil
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.exitCode = exitErr.ExitCode()
			return res, nil
		}
		res.exitCode = -1
		return res, fmt.Errorf("program %s execution failed: %w", opts.program, runErr)
	}
	return res, nil
}

func terminate(cmd *exec.Cmd, done <-chan error, grace time.Duration) error {
	signalTerminate(cmd)
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		signalKill(cmd)
		return <-done
	}
}

func mirror(buf *limitedBuffer, live io.Writer) io.Writer {
	if live == nil {
		return buf
	}
	return io.MultiWriter(buf, live)
}

func applyEnvOverlay(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return append([]string(nil), base...)
	}
	out := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i > 0 {
			if _, ok := overlay[kv[:i]]; ok {
				continue
			}
		}
		out = append(out, kv)
	}
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}
