package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MinimalConfigYAML is a valid run configuration relying on defaults.
const MinimalConfigYAML = `config_version: "1"
prompt: "a slow pan over a misty forest"
model:
  checkpoint: Lightricks/LTX-Video
aws:
  region: us-east-1
  s3_bucket: ltx-bucket
`

// WriteFile writes content under dir, creating parents, and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// WriteConfig writes a config file named config.yaml in dir.
func WriteConfig(t testing.TB, dir, content string) string {
	t.Helper()
	return WriteFile(t, dir, "config.yaml", content)
}
