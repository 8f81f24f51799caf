package whitelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContains_BuiltinsProtectSubtrees(t *testing.T) {
	wl := New()

	assert.True(t, wl.Contains("/System"))
	assert.True(t, wl.Contains("/System/Library/Frameworks"))
	assert.True(t, wl.Contains("/usr/local/bin/tool"))
	assert.False(t, wl.Contains("/opt/something"))
}

func TestContains_HomeIsExactOnly(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	wl := New()

	assert.True(t, wl.Contains(home))
	assert.False(t, wl.Contains(filepath.Join(home, ".npm")))
	assert.True(t, wl.Contains(filepath.Join(home, "Documents", "notes.txt")))
}

func TestContains_UserEntriesProtectAncestors(t *testing.T) {
	dir := t.TempDir()
	wl := New(filepath.Join(dir, "keep"))

	assert.True(t, wl.Contains(filepath.Join(dir, "keep")))
	assert.True(t, wl.Contains(filepath.Join(dir, "keep", "deep", "file")))
	assert.False(t, wl.Contains(filepath.Join(dir, "other")))
}

func TestContains_NormalizesPaths(t *testing.T) {
	dir := t.TempDir()
	wl := New(filepath.Join(dir, "keep"))

	assert.True(t, wl.Contains(filepath.Join(dir, "other", "..", "keep", "x")))
}

func TestEntries_UserOnlyAndSorted(t *testing.T) {
	dir := t.TempDir()
	wl := New(filepath.Join(dir, "zz"), filepath.Join(dir, "aa"))

	entries := wl.Entries()

	assert.Equal(t, []string{filepath.Join(dir, "aa"), filepath.Join(dir, "zz")}, entries)
	assert.NotContains(t, entries, "/System")
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "whitelist")

	wl := New()
	wl.path = cfg
	require.NoError(t, wl.Add(filepath.Join(dir, "keep")))

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "keep")+"\n", string(data))
}
