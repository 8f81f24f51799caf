package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestSize_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "f"), 1234)

	assert.Equal(t, int64(1234), Size(filepath.Join(dir, "f")))
}

func TestSize_Missing(t *testing.T) {
	assert.Zero(t, Size(filepath.Join(t.TempDir(), "nope")))
}

func TestDirSize_SumsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), 100)
	writeFile(t, filepath.Join(dir, "sub", "b"), 200)
	writeFile(t, filepath.Join(dir, "sub", "deep", "c"), 300)

	assert.Equal(t, int64(600), DirSize(dir))
	assert.Equal(t, int64(600), Size(dir))
}

func TestDirSize_EmptyDir(t *testing.T) {
	assert.Zero(t, DirSize(t.TempDir()))
}
