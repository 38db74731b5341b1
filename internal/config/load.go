package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const keyDelim = "::"

// Load reads a YAML run configuration, applies defaults and validates it.
//
// Error cases:
//   - file not found or unreadable
//   - invalid YAML
//   - unsupported config_version, schema violation or invalid render geometry
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	// runtime.env names may contain dots, so keys are not split on ".".
	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	cfg := defaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		cfg.BaseDir = abs
	} else {
		cfg.BaseDir = filepath.Dir(path)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the version policy, the CUE schema and the rules the
// schema cannot express.
func (c *Config) Validate() error {
	if err := checkConfigVersion(c.ConfigVersion); err != nil {
		return err
	}
	if err := validateSchema(c); err != nil {
		return err
	}
	if c.Render.Width%32 != 0 || c.Render.Height%32 != 0 {
		return errors.New("render.width and render.height must be divisible by 32")
	}
	if c.InputImage != "" {
		if _, err := os.Stat(c.ResolvePath(c.InputImage)); err != nil {
			return fmt.Errorf("input_image not readable: %w", err)
		}
	}
	return nil
}

// ResolvePath resolves p against the config directory unless it is absolute.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}
