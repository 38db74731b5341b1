package payload

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/ltx-i2v/internal/testutil"
)

func TestPayload_PrintsResolvedJSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "ref.png", "fake-png")
	cfgPath := testutil.WriteConfig(t, dir, testutil.MinimalConfigYAML+`input_image: ref.png
hooks:
  payload_lua: |
    payload.seed = 42
    return payload
`)

	cmd := NewCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config-path", cfgPath, "--remote", "--prompt-override", "override"})
	require.NoError(t, cmd.Execute())

	var p map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &p))
	assert.Equal(t, "override", p["prompt"])
	assert.Equal(t, float64(42), p["seed"])
	assert.Equal(t, "ZmFrZS1wbmc=", p["image_b64"])
	assert.NotContains(t, p, "image_path")
}
