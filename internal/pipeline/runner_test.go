package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/manifest"
	"github.com/flarebyte/ltx-i2v/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runner tests use sh")
	}
}

func shellConfig(t *testing.T, runtimeYAML string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := testutil.WriteConfig(t, dir, testutil.MinimalConfigYAML+runtimeYAML)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestGenerateVideo_CopiesRequestToOutput(t *testing.T) {
	skipOnWindows(t)
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["-c", "cp \"$1\" \"$2\"", "sh", "{request}", "{output}"]
`)
	out := t.TempDir()

	got, err := GenerateVideo(context.Background(), cfg, out)
	require.NoError(t, err)
	assert.Equal(t, "video.mp4", filepath.Base(got))

	body, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"prompt": "a slow pan over a misty forest"`)
	assert.Contains(t, string(body), `"output_path": "`+got+`"`)

	m, err := manifest.Read(filepath.Join(filepath.Dir(got), manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, "video.mp4", m["output"])
	rt, ok := m["runtime"].(map[string]any)
	require.True(t, ok, "runtime section: %#v", m["runtime"])
	assert.Equal(t, 0, rt["exit_code"])
	assert.Equal(t, false, rt["timed_out"])
	assert.NotContains(t, m, "provenance")
}

func TestGenerateVideo_AppliesPayloadHook(t *testing.T) {
	skipOnWindows(t)
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["-c", "cp \"$1\" \"$2\"", "sh", "{request}", "{output}"]
hooks:
  payload_lua: |
    payload.prompt = string.upper(payload.prompt)
    return payload
`)

	got, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	require.NoError(t, err)
	body, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(body), "A SLOW PAN OVER A MISTY FOREST")
}

func TestGenerateVideo_ZeroCaptureKeepsNoLogs(t *testing.T) {
	skipOnWindows(t)
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["-c", "echo chatty; cp \"$1\" \"$2\"", "sh", "{request}", "{output}"]
  capture_max_bytes: 0
`)

	got, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(filepath.Dir(got), stdoutFileName))
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestGenerateVideo_NonZeroExit(t *testing.T) {
	skipOnWindows(t)
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["-c", "echo loading >&2; echo CUDA out of memory >&2; exit 3"]
`)
	out := t.TempDir()

	_, err := GenerateVideo(context.Background(), cfg, out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "inference program exited with code 3: CUDA out of memory", err.Error())

	logs, _ := filepath.Glob(filepath.Join(out, "*", stderrFileName))
	require.Len(t, logs, 1)
	b, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "loading")
}

func TestGenerateVideo_Timeout(t *testing.T) {
	skipOnWindows(t)
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["-c", "sleep 10"]
  timeout_seconds: 1
`)

	start := time.Now()
	_, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestGenerateVideo_MissingOutput(t *testing.T) {
	skipOnWindows(t)
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["-c", "true"]
`)

	_, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	assert.ErrorIs(t, err, ErrMissingOutput)
}

func TestGenerateVideo_RejectsUnknownPlaceholder(t *testing.T) {
	cfg := shellConfig(t, `runtime:
  program: sh
  args: ["{requets}"]
`)

	_, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "invalid placeholder {requets} in runtime.args[0]", err.Error())
}

func TestGenerateVideo_RequiresArgs(t *testing.T) {
	cfg := shellConfig(t, "")

	_, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	assert.ErrorIs(t, err, ErrNoArgs)
}

func TestGenerateVideo_ProgramNotFound(t *testing.T) {
	cfg := shellConfig(t, `runtime:
  program: ltx-definitely-not-installed
  args: ["{request}"]
`)

	_, err := GenerateVideo(context.Background(), cfg, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "program ltx-definitely-not-installed not found")
}

func TestRunDirName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	assert.Equal(t, "20240309T140506Z-1b4e28ba", runDirName(ts, "1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
}
