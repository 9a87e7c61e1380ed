package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEntry(t *testing.T, dir, shard, name string, size int) {
	t.Helper()
	p := filepath.Join(dir, shard)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p, name), make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCacheUsageAndClear(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "ab", "cdef.json", 100)
	writeEntry(t, dir, "ab", "0123.json", 50)
	writeEntry(t, dir, "ff", "ee.json", 10)
	writeEntry(t, dir, "ff", "notes.txt", 999)

	n, size, err := cacheUsage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || size != 160 {
		t.Errorf("cacheUsage = %d, %d; want 3, 160", n, size)
	}

	cleared, err := clearCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cleared != 3 {
		t.Errorf("clearCache = %d, want 3", cleared)
	}
	if _, err := os.Stat(filepath.Join(dir, "ab")); !os.IsNotExist(err) {
		t.Error("empty shard directory not removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "ff", "notes.txt")); err != nil {
		t.Error("non-entry file removed")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("cache root removed")
	}
}

func TestCacheMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	if n, err := clearCache(dir); err != nil || n != 0 {
		t.Errorf("clearCache(missing) = %d, %v", n, err)
	}
	if n, size, err := cacheUsage(dir); err != nil || n != 0 || size != 0 {
		t.Errorf("cacheUsage(missing) = %d, %d, %v", n, size, err)
	}
}

func TestCachePathFollowsConfig(t *testing.T) {
	c, dir := newTestCLI(t)
	if err := run(t, c, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	got, err := c.Config().CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cache", appName); got != want {
		t.Errorf("CacheDir = %q, want %q", got, want)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
