package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipSingle(t *testing.T) {
	build := t.TempDir()
	payload := []byte{0x00, 0x20, 0x00, 0x20, 0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, os.WriteFile(filepath.Join(build, "Demo.bin"), payload, 0o644))

	archivePath := filepath.Join(build, "Demo_V1.2.3.zip")
	require.NoError(t, ZipSingle(build, "Demo.bin", archivePath))

	names, err := Entries(archivePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo.bin"}, names)

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()
	rc, err := r.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestZipSingle_ReplacesExistingArchive(t *testing.T) {
	build := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(build, "Demo.bin"), []byte("fw"), 0o644))
	archivePath := filepath.Join(build, "Demo.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("not a zip"), 0o644))

	require.NoError(t, ZipSingle(build, "Demo.bin", archivePath))

	names, err := Entries(archivePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo.bin"}, names)
}

func TestZipSingle_MissingSourceLeavesNothing(t *testing.T) {
	build := t.TempDir()
	archivePath := filepath.Join(build, "Demo.zip")

	err := ZipSingle(build, "Demo.bin", archivePath)
	require.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(build)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
