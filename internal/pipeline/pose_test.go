package pipeline

import (
	"context"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poseConfig(w, h, fps int, seconds float64) *config.Config {
	return &config.Config{Render: config.Render{Width: w, Height: h, FPS: fps, DurationSeconds: seconds}}
}

func TestGenerateYogaPoseVideo(t *testing.T) {
	out := filepath.Join(t.TempDir(), "poses")
	got, err := GenerateYogaPoseVideo(context.Background(), poseConfig(768, 512, 10, 1.5), out, "tree")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "yoga_tree.gif"), got)

	f, err := os.Open(got)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)

	assert.Len(t, anim.Image, 15)
	assert.Equal(t, 10, anim.Delay[0])
	b := anim.Image[0].Bounds()
	assert.Equal(t, 512, b.Dx())
	assert.Equal(t, 341, b.Dy())
}

func TestGenerateYogaPoseVideo_UnknownPoseFallsBack(t *testing.T) {
	out := t.TempDir()
	got, err := GenerateYogaPoseVideo(context.Background(), poseConfig(64, 64, 4, 1), out, "Downward Dog!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "yoga_downward_dog_.gif"), got)
}

func TestGenerateYogaPoseVideo_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := t.TempDir()
	_, err := GenerateYogaPoseVideo(ctx, poseConfig(64, 64, 4, 1), out, "warrior")
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(out, "yoga_warrior.gif"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPoseFrameMath(t *testing.T) {
	tests := []struct {
		fps     int
		seconds float64
		frames  int
		delay   int
	}{
		{24, 4, 96, 4},
		{30, 20, maxPoseFrames, 3},
		{120, 0.001, 1, 1},
		{3, 1, 3, 33},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.frames, poseFrameCount(tt.fps, tt.seconds), "frames fps=%d s=%v", tt.fps, tt.seconds)
		assert.Equal(t, tt.delay, poseFrameDelay(tt.fps), "delay fps=%d", tt.fps)
	}
}

func TestPoseCanvas(t *testing.T) {
	w, h := poseCanvas(320, 256)
	assert.Equal(t, [2]int{320, 256}, [2]int{w, h})
	w, h = poseCanvas(512, 1024)
	assert.Equal(t, [2]int{256, 512}, [2]int{w, h})
}
