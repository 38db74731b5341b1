package manifest

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestMarshal_RewriteStable(t *testing.T) {
	m := map[string]any{
		"run_id": "r1",
		"request": map[string]any{
			"width":  768,
			"height": 512,
			"prompt": "tree pose",
		},
		"runtime": map[string]any{
			"args":      []string{"run", "true"},
			"env":       map[string]string{"B": "2", "A": "1"},
			"exit_code": 0,
		},
	}
	b1, err := Marshal(m)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b2, err := Marshal(m)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("not rewrite-stable\nfirst:\n%s\nsecond:\n%s", string(b1), string(b2))
	}
	want := "request:\n  height: 512\n  prompt: tree pose\n  width: 768\nrun_id: r1\nruntime:\n" +
		"  args:\n    - run\n    - \"true\"\n  env:\n    A: \"1\"\n    B: \"2\"\n  exit_code: 0\n"
	if string(b1) != want {
		t.Fatalf("unexpected canonical output\nwant:\n%s\ngot:\n%s", want, string(b1))
	}
}

func TestWriteRead(t *testing.T) {
	p := filepath.Join(t.TempDir(), "run", FileName)
	if err := Write(p, map[string]any{"output": "video.mp4", "dirty": true}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got["output"] != "video.mp4" || got["dirty"] != true {
		t.Fatalf("unexpected manifest: %#v", got)
	}
}
