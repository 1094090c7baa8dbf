package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func TestSizeOf(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "video.mp4")
	writeFile(t, p, 2048)

	assert.Equal(t, int64(2048), SizeOf(p))
	assert.Equal(t, int64(0), SizeOf(filepath.Join(dir, "missing.mp4")))
	assert.Equal(t, int64(0), SizeOf(dir))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "video.mp4")
	writeFile(t, p, 1)

	assert.True(t, Exists(p))
	assert.False(t, Exists(filepath.Join(dir, "missing.mp4")))
	assert.False(t, Exists(dir))
	assert.False(t, Exists(""))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "clip.mp4")
	writeFile(t, p, 10)

	assert.True(t, Delete(p))
	assert.False(t, Exists(p))

	// already absent is success
	assert.True(t, Delete(p))
	assert.True(t, Delete(""))

	// a non-empty directory cannot be removed with os.Remove
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, filepath.Join(sub, "x"), 1)
	assert.False(t, Delete(sub))
}

func TestDeleteMany(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	writeFile(t, a, 1)
	writeFile(t, b, 1)

	assert.Equal(t, 3, DeleteMany([]string{a, b, filepath.Join(dir, "gone.mp4")}))
	assert.False(t, Exists(a))
	assert.False(t, Exists(b))
}

func TestOlderThan(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "clip_old.mp4")
	fresh := filepath.Join(dir, "clip_new.mp4")
	other := filepath.Join(dir, "source.mp4")
	writeFile(t, old, 1)
	writeFile(t, fresh, 1)
	writeFile(t, other, 1)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	stale, err := OlderThan(dir, "clip_*.mp4", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{old}, stale)
}
