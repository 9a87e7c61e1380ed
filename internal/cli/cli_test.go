package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/slots"
)

// newTestCLI isolates config and cache under t.TempDir.
func newTestCLI(t *testing.T) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return New(io.Discard, log.InfoLevel), dir
}

// sampleCopy copies testdata/sample.toml into dir.
func sampleCopy(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "sample.toml"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "sample.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c, _ := newTestCLI(t)
	root := c.RootCommand()
	want := []string{"layout", "overview", "route", "export", "fmt", "opcodes", "edit", "serve", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLayoutCommand(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)
	out := filepath.Join(dir, "out.json")

	if err := run(t, c, "layout", src, "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc layoutFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(doc.Layout.Boxes) != 4 {
		t.Errorf("boxes = %d, want 4", len(doc.Layout.Boxes))
	}
	if got := doc.Slots["start"].Output; got != (slots.Point{X: 200, Y: 24}) {
		t.Errorf("start output = %v, want (200,24)", got)
	}

	entries, _, err := cacheUsage(filepath.Join(dir, "cache", appName))
	if err != nil || entries == 0 {
		t.Errorf("cache entries = %d, %v; want the layout cached", entries, err)
	}
}

func TestLayoutCommandDefaultOutput(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)
	if err := run(t, c, "layout", src, "--no-cache", "--zoom", "2", "--pan-x", "10"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "sample.layout.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc layoutFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if got := doc.Slots["start"].Output; got != (slots.Point{X: 410, Y: 48}) {
		t.Errorf("start output = %v, want (410,48)", got)
	}
}

func TestOverviewCommand(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)
	out := filepath.Join(dir, "ov.json")
	if err := run(t, c, "overview", src, "-o", out, "--click", "120,80", "--screen", "800x600"); err != nil {
		t.Fatalf("overview: %v", err)
	}
	data, _ := os.ReadFile(out)
	var doc overviewFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Overview == nil || doc.Overview.Scale <= 0 || doc.Overview.Scale > 1 {
		t.Fatalf("overview = %+v", doc.Overview)
	}
	if doc.Viewport == nil {
		t.Error("click did not produce a viewport")
	}
}

func TestOverviewCommandNeedsScreen(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)
	if err := run(t, c, "overview", src, "--click", "1,1"); err == nil {
		t.Error("overview --click without --screen succeeded")
	}
}

func TestExportCommand(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)
	base := filepath.Join(dir, "diagram")

	if err := run(t, c, "export", src, "-f", "dot,canvas", "-o", base); err != nil {
		t.Fatalf("export: %v", err)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"check" -> "say" [label="THEN"`) {
		t.Errorf("dot output missing branch edge:\n%s", dot)
	}
	svg, err := os.ReadFile(base + ".canvas.svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("canvas output starts %q", firstLine(svg))
	}
}

func TestExportCommandRejectsFormat(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)
	if err := run(t, c, "export", src, "-f", "gif"); err == nil {
		t.Error("export -f gif succeeded")
	}
}

func TestFmtCommand(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)

	if err := run(t, c, "fmt", "--check", src); !errors.Is(err, errNotCanonical) {
		t.Fatalf("fmt --check on hand-written source = %v, want errNotCanonical", err)
	}
	if err := run(t, c, "fmt", "-w", src); err != nil {
		t.Fatalf("fmt -w: %v", err)
	}
	if err := run(t, c, "fmt", "--check", src); err != nil {
		t.Errorf("fmt --check after fmt -w = %v", err)
	}
}

func TestEditScript(t *testing.T) {
	c, dir := newTestCLI(t)
	src := sampleCopy(t, dir)

	err := run(t, c, "edit", src, "-w",
		"-e", "delete spare",
		"-e", "input say MESSAGE hi there",
		"-e", "workflow add helper",
		"-e", "undo",
	)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	data, _ := os.ReadFile(src)
	text := string(data)
	if strings.Contains(text, `"spare"`) {
		t.Error("spare survived delete")
	}
	if !strings.Contains(text, `"hi there"`) {
		t.Error("MESSAGE input not updated")
	}
	if strings.Contains(text, `"helper"`) {
		t.Error("undo did not remove the added workflow")
	}
}

func TestEditScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		op   string
	}{
		{"unknown op", "explode start"},
		{"missing node", "delete ghost"},
		{"bad arity", "connect start"},
		{"cycle", "connect check start"},
		{"nothing to redo", "redo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dir := newTestCLI(t)
			src := sampleCopy(t, dir)
			before, _ := os.ReadFile(src)
			if err := run(t, c, "edit", src, "-w", "-e", tt.op); err == nil {
				t.Errorf("edit -e %q succeeded", tt.op)
			}
			after, _ := os.ReadFile(src)
			if string(after) != string(before) {
				t.Error("failed script modified the file")
			}
		})
	}
}

func TestConfigFlag(t *testing.T) {
	c, dir := newTestCLI(t)
	cfg := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\ndisabled = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(t, c, "--config", cfg, "opcodes"); err != nil {
		t.Fatalf("opcodes: %v", err)
	}
	if !c.Config().Cache.Disabled {
		t.Error("--config file was not loaded")
	}

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[nope]\nx = 1\n"), 0o644)
	if err := run(t, New(io.Discard, log.InfoLevel), "--config", bad, "opcodes"); err == nil {
		t.Error("unknown config keys accepted")
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		node    string
		port    slots.Port
		fixed   bool
		wantErr bool
	}{
		{in: "start.output", node: "start", port: slots.Output},
		{in: "check.branch:THEN", node: "check", port: slots.BranchPort("THEN")},
		{in: "say.field:MESSAGE", node: "say", port: slots.FieldPort("MESSAGE")},
		{in: "10,20", fixed: true},
		{in: "start", wantErr: true},
		{in: "start.sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e, err := parseEndpoint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEndpoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if e.Fixed() != tt.fixed {
				t.Errorf("Fixed() = %v, want %v", e.Fixed(), tt.fixed)
			}
			if !tt.fixed && (e.NodeID != tt.node || e.Port != tt.port) {
				t.Errorf("endpoint = %s %v, want %s %v", e.NodeID, e.Port, tt.node, tt.port)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	if w, h, err := parseSize("1280x800"); err != nil || w != 1280 || h != 800 {
		t.Errorf("parseSize(1280x800) = %v, %v, %v", w, h, err)
	}
	for _, bad := range []string{"", "1280", "0x10", "ax3"} {
		if _, _, err := parseSize(bad); err == nil {
			t.Errorf("parseSize(%q) succeeded", bad)
		}
	}
}

func TestFieldsAfter(t *testing.T) {
	if got := fieldsAfter("input  say MESSAGE   hi  there ", 3); got != "hi  there" {
		t.Errorf("fieldsAfter = %q", got)
	}
	if got := fieldsAfter("input say MESSAGE", 3); got != "" {
		t.Errorf("fieldsAfter = %q, want empty", got)
	}
}

func firstLine(b []byte) string {
	s, _, _ := strings.Cut(string(b), "\n")
	return s
}
