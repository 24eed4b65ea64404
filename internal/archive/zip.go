// Package archive builds the single-entry zip bundles imported by the vendor flashing tool.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ZipSingle writes archivePath containing one entry: the file entryName found in baseDir,
// stored under entryName. The archive is written to a temporary file next to
// archivePath and renamed into place, so a failed run never leaves a truncated archive.
func ZipSingle(baseDir, entryName, archivePath string) error {
	src := filepath.Join(baseDir, entryName)
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), ".fwpack-*.zip")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := writeEntry(tmp, src, entryName, info); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, archivePath); err != nil {
		return err
	}
	committed = true
	return nil
}

func writeEntry(w io.Writer, src, entryName string, info os.FileInfo) error {
	zw := zip.NewWriter(w)

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(entryName)
	hdr.Method = zip.Deflate

	ew, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := io.Copy(ew, f); err != nil {
		return err
	}
	return zw.Close()
}

// Entries lists the entry names of the archive at path.
func Entries(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}
