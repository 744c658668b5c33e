package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseView(t *testing.T) {
	v, err := parseView("0, 0.5, -1")
	if err != nil {
		t.Fatal(err)
	}
	if v[0] != 0 || v[1] != 0.5 || v[2] != -1 {
		t.Errorf("parseView = %v", v)
	}
	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c"} {
		if _, err := parseView(bad); err == nil {
			t.Errorf("parseView(%q) accepted invalid input", bad)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	const doc = `
model: scene.glb
output: render.png
view: [0, 1, 0]
width: 640
samples: 32
background: "#1e90ff"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := jobConfig{Height: 480, Samples: 16}
	if err := loadConfig(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "scene.glb" || cfg.Width != 640 || cfg.Samples != 32 {
		t.Errorf("cfg = %+v", cfg)
	}
	// Values absent from the file keep their prior defaults.
	if cfg.Height != 480 {
		t.Errorf("height = %d, want untouched 480", cfg.Height)
	}
	if len(cfg.View) != 3 || cfg.View[1] != 1 {
		t.Errorf("view = %v", cfg.View)
	}
}

func TestLoadConfigRejectsShortView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("view: [1, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg jobConfig
	if err := loadConfig(path, &cfg); err == nil {
		t.Error("expected error for 2-component view")
	}
}
