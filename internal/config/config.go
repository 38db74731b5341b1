package config

import (
	"encoding/json"
	"math"
)

// DefaultPath is the config location used when no path is given on the command line.
const DefaultPath = "configs/default.yaml"

const (
	defaultModelVersion    = "0.9.8-2b-distilled"
	defaultDevice          = "cuda"
	defaultWidth           = 768
	defaultHeight          = 512
	defaultFPS             = 24
	defaultDurationSeconds = 4.0
	defaultSteps           = 7
	defaultGuidanceScale   = 3.0
	defaultFormat          = "mp4"
	defaultProgram         = "python"
	defaultWorkingDir      = "."
	defaultTimeoutSeconds  = 3600
	defaultCaptureMaxBytes = 1 << 20
	defaultContentType     = "application/json"
	defaultHookTimeoutMs   = 1000
)

// Config is the resolved run configuration. The yaml tags drive loading, the
// json tags drive the dry-run dump and schema validation.
type Config struct {
	ConfigVersion  string  `yaml:"config_version" json:"config_version"`
	Prompt         string  `yaml:"prompt" json:"prompt"`
	NegativePrompt string  `yaml:"negative_prompt" json:"negative_prompt,omitempty"`
	InputImage     string  `yaml:"input_image" json:"input_image,omitempty"`
	Seed           int64   `yaml:"seed" json:"seed"`
	Model          Model   `yaml:"model" json:"model"`
	Render         Render  `yaml:"render" json:"render"`
	Runtime        Runtime `yaml:"runtime" json:"runtime"`
	AWS            AWS     `yaml:"aws" json:"aws"`
	Hooks          Hooks   `yaml:"hooks" json:"hooks"`

	// BaseDir is the directory of the loaded file; relative paths resolve against it.
	BaseDir string `yaml:"-" json:"-"`
}

// Model selects the checkpoint handed to the inference program.
type Model struct {
	Checkpoint   string `yaml:"checkpoint" json:"checkpoint"`
	Version      string `yaml:"version" json:"version"`
	LocalWeights string `yaml:"local_weights" json:"local_weights,omitempty"`
	Device       string `yaml:"device" json:"device"`
}

// Render holds output video geometry and sampler settings.
type Render struct {
	Width           int     `yaml:"width" json:"width"`
	Height          int     `yaml:"height" json:"height"`
	FPS             int     `yaml:"fps" json:"fps"`
	DurationSeconds float64 `yaml:"duration_seconds" json:"duration_seconds"`
	Steps           int     `yaml:"steps" json:"steps"`
	GuidanceScale   float64 `yaml:"guidance_scale" json:"guidance_scale"`
	Format          string  `yaml:"format" json:"format"`
}

// NumFrames returns fps*duration rounded up to the next 8k+1 frame count.
func (r Render) NumFrames() int {
	n := int(math.Ceil(float64(r.FPS) * r.DurationSeconds))
	if n < 1 {
		return 1
	}
	if rem := (n - 1) % 8; rem != 0 {
		n += 8 - rem
	}
	return n
}

// Runtime describes the external inference program used by local runs.
type Runtime struct {
	Program         string            `yaml:"program" json:"program"`
	Args            []string          `yaml:"args" json:"args"`
	WorkingDir      string            `yaml:"working_dir" json:"working_dir"`
	Env             map[string]string `yaml:"env" json:"env,omitempty"`
	TimeoutSeconds  int               `yaml:"timeout_seconds" json:"timeout_seconds"`
	CaptureMaxBytes int               `yaml:"capture_max_bytes" json:"capture_max_bytes"`
}

// AWS holds settings for the async inference path.
type AWS struct {
	Region            string `yaml:"region" json:"region,omitempty"`
	Profile           string `yaml:"profile" json:"profile,omitempty"`
	S3Bucket          string `yaml:"s3_bucket" json:"s3_bucket,omitempty"`
	ContentType       string `yaml:"content_type" json:"content_type"`
	RequestTTLSeconds int    `yaml:"request_ttl_seconds" json:"request_ttl_seconds,omitempty"`
}

// Hooks holds optional payload scripting.
type Hooks struct {
	PayloadLua string `yaml:"payload_lua" json:"payload_lua,omitempty"`
	TimeoutMs  int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// defaultConfig is the starting point that loaded YAML is decoded onto, so a
// key that is present keeps its value even when it is zero.
func defaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Model: Model{
			Version: defaultModelVersion,
			Device:  defaultDevice,
		},
		Render: Render{
			Width:           defaultWidth,
			Height:          defaultHeight,
			FPS:             defaultFPS,
			DurationSeconds: defaultDurationSeconds,
			Steps:           defaultSteps,
			GuidanceScale:   defaultGuidanceScale,
			Format:          defaultFormat,
		},
		Runtime: Runtime{
			Program:         defaultProgram,
			Args:            []string{},
			WorkingDir:      defaultWorkingDir,
			TimeoutSeconds:  defaultTimeoutSeconds,
			CaptureMaxBytes: defaultCaptureMaxBytes,
		},
		AWS:   AWS{ContentType: defaultContentType},
		Hooks: Hooks{TimeoutMs: defaultHookTimeoutMs},
	}
}

// normalize fixes up values YAML can null out.
func (c *Config) normalize() {
	if c.Runtime.Args == nil {
		c.Runtime.Args = []string{}
	}
}

// JSON returns the config as indented JSON.
func (c *Config) JSON() (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
