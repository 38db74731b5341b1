package pose

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/testutil"
)

func TestPose_DefaultsToTree(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testutil.WriteConfig(t, dir, testutil.MinimalConfigYAML)
	outDir := filepath.Join(dir, "poses")

	prev := generateYogaPoseVideo
	t.Cleanup(func() { generateYogaPoseVideo = prev })
	var gotPose string
	generateYogaPoseVideo = func(_ context.Context, _ *config.Config, outputDir, pose string) (string, error) {
		gotPose = pose
		return filepath.Join(outputDir, "yoga_"+pose+".gif"), nil
	}

	cmd := NewCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{cfgPath, "--output-dir", outDir})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "tree", gotPose)
	assert.Equal(t, "Generating yoga pose 'tree'...\nPose video written to: "+filepath.Join(outDir, "yoga_tree.gif")+"\n", out.String())
	assert.DirExists(t, outDir)
}

func TestPose_RendersGIF(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testutil.WriteConfig(t, dir, testutil.MinimalConfigYAML+"render:\n  width: 128\n  height: 96\n  fps: 8\n  duration_seconds: 1\n")
	outDir := filepath.Join(dir, "poses")

	cmd := NewCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{cfgPath, "--pose", "warrior", "--output-dir", outDir})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(outDir, "yoga_warrior.gif"))
	assert.Contains(t, out.String(), "Generating yoga pose 'warrior'...")
}
