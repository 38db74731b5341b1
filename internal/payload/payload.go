// Package payload builds the generation request shared by local runs and
// async endpoint submissions.
package payload

import (
	"encoding/base64"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/flarebyte/ltx-i2v/internal/config"
)

// Target selects how the conditioning image is referenced.
type Target int

const (
	// TargetLocal references the image by absolute path.
	TargetLocal Target = iota
	// TargetRemote embeds the image as base64 so the endpoint needs no file access.
	TargetRemote
)

func (t Target) String() string {
	if t == TargetRemote {
		return "remote"
	}
	return "local"
}

// Build returns the request body for cfg.
func Build(cfg *config.Config, target Target) (map[string]any, error) {
	p := map[string]any{
		"prompt":              cfg.Prompt,
		"height":              cfg.Render.Height,
		"width":               cfg.Render.Width,
		"num_frames":          cfg.Render.NumFrames(),
		"frame_rate":          cfg.Render.FPS,
		"num_inference_steps": cfg.Render.Steps,
		"guidance_scale":      cfg.Render.GuidanceScale,
		"seed":                cfg.Seed,
		"model_id":            cfg.Model.Checkpoint,
		"ltxv_version":        cfg.Model.Version,
		"device":              cfg.Model.Device,
		"output_format":       cfg.Render.Format,
	}
	if cfg.NegativePrompt != "" {
		p["negative_prompt"] = cfg.NegativePrompt
	}
	if cfg.Model.LocalWeights != "" && target == TargetLocal {
		p["local_weights"] = cfg.ResolvePath(cfg.Model.LocalWeights)
	}
	if cfg.InputImage == "" {
		return p, nil
	}

	img := cfg.ResolvePath(cfg.InputImage)
	switch target {
	case TargetRemote:
		b, err := os.ReadFile(img)
		if err != nil {
			return nil, fmt.Errorf("read input image: %w", err)
		}
		p["image_b64"] = base64.StdEncoding.EncodeToString(b)
		p["image_name"] = filepath.Base(img)
	default:
		abs, err := filepath.Abs(img)
		if err != nil {
			return nil, fmt.Errorf("resolve input image: %w", err)
		}
		p["image_path"] = abs
	}
	return p, nil
}

// ApplyOverrides returns p with overrides merged on top. Nil or empty
// overrides leave p untouched.
func ApplyOverrides(p map[string]any, overrides map[string]any) map[string]any {
	if len(overrides) == 0 {
		return p
	}
	out := maps.Clone(p)
	if out == nil {
		out = map[string]any{}
	}
	maps.Copy(out, overrides)
	return out
}
