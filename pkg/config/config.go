// Package config loads editor settings from a TOML file.
//
// Every field has a default, so a config file only needs the keys it
// changes:
//
//	[layout]
//	node_width = 240
//
//	[reparse]
//	debounce = "250ms"
//
// Unknown keys are an error rather than silently ignored.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/history"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/session"
)

const appName = "flowcanvas"

// Config is the full set of tunables.
type Config struct {
	Layout   layout.Options `toml:"layout"`
	History  History        `toml:"history"`
	Reparse  Reparse        `toml:"reparse"`
	Overview Overview       `toml:"overview"`
	Cache    Cache          `toml:"cache"`
	Server   Server         `toml:"server"`
}

// History bounds the undo stack.
type History struct {
	Capacity int `toml:"capacity"`
}

// Reparse controls how text edits are turned into trees.
type Reparse struct {
	Debounce Duration `toml:"debounce"`
}

// Overview is the minimap frame.
type Overview struct {
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Padding float64 `toml:"padding"`
}

// Cache configures the CLI layout cache.
type Cache struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"` // empty means $XDG_CACHE_HOME/flowcanvas
}

// Server configures `flowcanvas serve`.
type Server struct {
	Addr         string   `toml:"addr"`
	CacheEntries int      `toml:"cache_entries"`
	Timeout      Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout:   layout.DefaultOptions(),
		History:  History{Capacity: history.DefaultCapacity},
		Reparse:  Reparse{Debounce: Duration{session.DefaultDebounce}},
		Overview: Overview{Width: 240, Height: 160, Padding: 8},
		Server: Server{
			Addr:         ":8080",
			CacheEntries: 512,
			Timeout:      Duration{30 * time.Second},
		},
	}
}

// Load reads path on top of [Default].
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, perr.Wrap(perr.ErrCodeParse, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, perr.New(perr.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, perr.Wrap(perr.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

// LoadDefault loads the file at [DefaultPath] when it exists, and returns
// [Default] otherwise.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPath returns $XDG_CONFIG_HOME/flowcanvas/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the layout cache directory: Cache.Dir when set, else
// $XDG_CACHE_HOME/flowcanvas, falling back to ~/.cache.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	l := c.Layout
	switch {
	case l.NodeWidth <= 0, l.BaseHeight <= 0, l.RowHeight <= 0:
		return errors.New("layout node dimensions must be positive")
	case l.MaxRows < 0:
		return errors.New("layout.max_rows must not be negative")
	case l.NodeGap < 0, l.BranchGap < 0, l.WorkflowGap < 0:
		return errors.New("layout gaps must not be negative")
	case c.History.Capacity <= 0:
		return errors.New("history.capacity must be positive")
	case c.Reparse.Debounce.Duration < 0:
		return errors.New("reparse.debounce must not be negative")
	case c.Overview.Width <= 0 || c.Overview.Height <= 0:
		return errors.New("overview frame must be positive")
	case c.Overview.Padding < 0:
		return errors.New("overview.padding must not be negative")
	case c.Server.CacheEntries < 0:
		return errors.New("server.cache_entries must not be negative")
	}
	return nil
}

// SessionOptions converts the editor settings into session options.
func (c Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithLayoutOptions(c.Layout),
		session.WithHistoryCapacity(c.History.Capacity),
		session.WithDebounce(c.Reparse.Debounce.Duration),
	}
}
