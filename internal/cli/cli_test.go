package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/hello"
)

func TestOverrideOnlyVisitedFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	width := fs.Int("width", 100, "")
	height := fs.Int("height", 100, "")
	debug := fs.Bool("debug", false, "")
	vsync := fs.Int("vsync", 0, "")
	if err := fs.Parse([]string{"-width", "640", "-debug", "-height", "480"}); err != nil {
		t.Fatal(err)
	}

	cfg := hello.NewConfig(hello.WithSize(1024, 768))
	set := Visited(fs)
	Override(&cfg, set, map[string]hello.Option{
		"width":  func(c *hello.Config) { c.Width = *width },
		"height": func(c *hello.Config) { c.Height = *height },
		"debug":  hello.WithDebugLayer(*debug),
		"vsync":  hello.WithVSync(*vsync),
	})
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.VSync != 1 {
		t.Errorf("unset vsync flag overrode the config: %d", cfg.VSync)
	}
	if !cfg.DebugLayer {
		t.Error("debug flag not applied")
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil || cfg != hello.DefaultConfig() {
		t.Errorf("LoadConfig(\"\") = %+v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "hello.toml")
	if err := os.WriteFile(path, []byte("width = 320\nheight = 240\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 320 || cfg.Height != 240 || cfg.BufferCount != 2 {
		t.Errorf("loaded %+v", cfg)
	}
}
