package pipeline

import (
	"context"
	"fmt"
	"image/color"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/logging"
)

const (
	maxPoseCanvas = 512
	maxPoseFrames = 240
)

var posePalette = color.Palette{
	color.RGBA{0xf4, 0xf1, 0xea, 0xff}, // background
	color.RGBA{0x2f, 0x3e, 0x46, 0xff}, // figure
	color.RGBA{0x84, 0xa9, 0x8c, 0xff}, // mat
}

const (
	bgIndex uint8 = iota
	figureIndex
	matIndex
)

// point is a joint position in unit canvas coordinates, y pointing down.
type point struct{ x, y float64 }

type skeleton struct {
	head, neck, hip              point
	lElbow, rElbow, lHand, rHand point
	lKnee, rKnee, lFoot, rFoot   point
}

var mountainPose = skeleton{
	head: point{0.50, 0.18}, neck: point{0.50, 0.27}, hip: point{0.50, 0.55},
	lElbow: point{0.44, 0.40}, rElbow: point{0.56, 0.40},
	lHand: point{0.43, 0.53}, rHand: point{0.57, 0.53},
	lKnee: point{0.47, 0.71}, rKnee: point{0.53, 0.71},
	lFoot: point{0.47, 0.88}, rFoot: point{0.53, 0.88},
}

// Target shapes keyed by pose name; unknown names raise the arms overhead.
var poseTargets = map[string]skeleton{
	"tree": {
		head: point{0.50, 0.18}, neck: point{0.50, 0.27}, hip: point{0.50, 0.55},
		lElbow: point{0.45, 0.14}, rElbow: point{0.55, 0.14},
		lHand: point{0.50, 0.05}, rHand: point{0.50, 0.05},
		lKnee: point{0.49, 0.71}, rKnee: point{0.63, 0.62},
		lFoot: point{0.49, 0.88}, rFoot: point{0.51, 0.66},
	},
	"warrior": {
		head: point{0.50, 0.22}, neck: point{0.50, 0.31}, hip: point{0.50, 0.58},
		lElbow: point{0.36, 0.31}, rElbow: point{0.64, 0.31},
		lHand: point{0.22, 0.31}, rHand: point{0.78, 0.31},
		lKnee: point{0.36, 0.70}, rKnee: point{0.62, 0.73},
		lFoot: point{0.32, 0.88}, rFoot: point{0.74, 0.88},
	},
}

var genericTarget = skeleton{
	head: point{0.50, 0.18}, neck: point{0.50, 0.27}, hip: point{0.50, 0.55},
	lElbow: point{0.42, 0.17}, rElbow: point{0.58, 0.17},
	lHand: point{0.40, 0.06}, rHand: point{0.60, 0.06},
	lKnee: point{0.47, 0.71}, rKnee: point{0.53, 0.71},
	lFoot: point{0.47, 0.88}, rFoot: point{0.53, 0.88},
}

// GenerateYogaPoseVideo renders a looping stick-figure GIF that eases from a
// standing position into the named pose and back. It needs no model and is
// meant as a quick placeholder for pipeline wiring.
func GenerateYogaPoseVideo(ctx context.Context, cfg *config.Config, outputDir, pose string) (string, error) {
	w, h := poseCanvas(cfg.Render.Width, cfg.Render.Height)
	frames := poseFrameCount(cfg.Render.FPS, cfg.Render.DurationSeconds)
	delay := poseFrameDelay(cfg.Render.FPS)
	target, ok := poseTargets[strings.ToLower(pose)]
	if !ok {
		logging.FromContext(ctx).Info("unknown pose, rendering generic stance", "pose", pose)
		target = genericTarget
	}

	anim := &gif.GIF{LoopCount: 0}
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t := 0.0
		if frames > 1 {
			t = (1 - math.Cos(2*math.Pi*float64(i)/float64(frames))) / 2
		}
		anim.Image = append(anim.Image, drawSkeleton(w, h, lerpSkeleton(mountainPose, target, t)))
		anim.Delay = append(anim.Delay, delay)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	out := filepath.Join(outputDir, "yoga_"+sanitizePoseName(pose)+".gif")
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create pose video: %w", err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode pose video: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pose video: %w", err)
	}
	return out, nil
}

func poseCanvas(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return maxPoseCanvas, maxPoseCanvas
	}
	longest := max(width, height)
	if longest <= maxPoseCanvas {
		return width, height
	}
	scale := float64(maxPoseCanvas) / float64(longest)
	return max(1, int(math.Round(float64(width)*scale))), max(1, int(math.Round(float64(height)*scale)))
}

func poseFrameCount(fps int, seconds float64) int {
	n := int(math.Round(float64(fps) * seconds))
	return min(max(n, 1), maxPoseFrames)
}

// poseFrameDelay returns the per-frame delay in hundredths of a second.
func poseFrameDelay(fps int) int {
	if fps <= 0 {
		return 1
	}
	return max(1, int(math.Round(100/float64(fps))))
}

func sanitizePoseName(pose string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(pose)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "pose"
	}
	return b.String()
}
