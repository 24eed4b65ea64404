package fsops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile_IntoDirectoryKeepsMetadata(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Demo.hex")
	require.NoError(t, os.WriteFile(src, []byte(":00000001FF\n"), 0o640))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	dstDir := t.TempDir()
	written, err := CopyFile(src, dstDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dstDir, "Demo.hex"), written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, ":00000001FF\n", string(data))

	info, err := os.Stat(written)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime), "mtime %v", info.ModTime())
}

func TestCopyFile_OverwritesTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.zip")
	dst := filepath.Join(dir, "b.zip")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("older and longer"), 0o644))

	_, err := CopyFile(src, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCopyFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := CopyFile(filepath.Join(dir, "missing.hex"), dir)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = CopyFile(dir, filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
}

func TestRemoveIfFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stale.hex")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	removed, err := RemoveIfFile(path)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, IsFile(path))

	removed, err = RemoveIfFile(path)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = RemoveIfFile(dir)
	require.NoError(t, err)
	assert.False(t, removed, "directories are left alone")
}

func TestEnsureDirAndList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated", "nested")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.zip"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hex"), nil, 0o644))

	paths, err := ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.hex"), filepath.Join(dir, "b.zip")}, paths)

	_, err = ListDir(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(file))
	assert.False(t, IsDir(filepath.Join(dir, "missing")))
}
