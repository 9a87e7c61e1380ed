package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout != layout.DefaultOptions() {
		t.Errorf("Layout = %+v, want defaults", cfg.Layout)
	}
	if cfg.History.Capacity != 50 {
		t.Errorf("History.Capacity = %d, want 50", cfg.History.Capacity)
	}
	if cfg.Reparse.Debounce.Duration != 500*time.Millisecond {
		t.Errorf("Reparse.Debounce = %v, want 500ms", cfg.Reparse.Debounce)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[layout]
node_width = 240

[history]
capacity = 10

[reparse]
debounce = "250ms"

[server]
addr = "127.0.0.1:9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.NodeWidth != 240 {
		t.Errorf("NodeWidth = %v, want 240", cfg.Layout.NodeWidth)
	}
	if cfg.Layout.RowHeight != layout.DefaultRowHeight {
		t.Errorf("RowHeight = %v, want default kept", cfg.Layout.RowHeight)
	}
	if cfg.History.Capacity != 10 {
		t.Errorf("Capacity = %d, want 10", cfg.History.Capacity)
	}
	if cfg.Reparse.Debounce.Duration != 250*time.Millisecond {
		t.Errorf("Debounce = %v, want 250ms", cfg.Reparse.Debounce)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.CacheEntries != 512 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if n := len(cfg.SessionOptions()); n != 3 {
		t.Errorf("SessionOptions() len = %d, want 3", n)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code perr.Code
		want string
	}{
		{"unknown key", "[layout]\nnode_widht = 1\n", perr.ErrCodeInvalidInput, "layout.node_widht"},
		{"unknown section", "[theme]\ndark = true\n", perr.ErrCodeInvalidInput, "theme"},
		{"bad duration", "[reparse]\ndebounce = \"soon\"\n", perr.ErrCodeParse, "read config"},
		{"bad syntax", "[layout\n", perr.ErrCodeParse, "read config"},
		{"invalid value", "[history]\ncapacity = 0\n", perr.ErrCodeInvalidInput, "capacity"},
		{"negative gap", "[layout]\nnode_gap = -1\n", perr.ErrCodeInvalidInput, "gaps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if got := perr.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadDefaultMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Error("LoadDefault without a file differs from Default()")
	}
}

func TestLoadDefaultReadsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, appName), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "[overview]\nwidth = 400\n"
	if err := os.WriteFile(filepath.Join(dir, appName, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Overview.Width != 400 {
		t.Errorf("Overview.Width = %v, want 400", cfg.Overview.Width)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")

	if p, _ := DefaultPath(); p != filepath.Join("/tmp/cfg", appName, "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}
	cfg := Default()
	if d, _ := cfg.CacheDir(); d != filepath.Join("/tmp/cache", appName) {
		t.Errorf("CacheDir() = %q", d)
	}
	cfg.Cache.Dir = "/srv/layouts"
	if d, _ := cfg.CacheDir(); d != "/srv/layouts" {
		t.Errorf("CacheDir() with override = %q", d)
	}
}
