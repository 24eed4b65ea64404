// Package fsops holds the small filesystem primitives the packager is built from.
package fsops

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst, keeping permission bits and modification time.
// When dst is an existing directory the file is copied into it under its base name.
// It returns the path actually written.
func CopyFile(src, dst string) (string, error) {
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return dst, err
	}
	if srcInfo.IsDir() {
		return dst, &os.PathError{Op: "copy", Path: src, Err: errors.New("is a directory")}
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return dst, &os.PathError{Op: "copy", Path: dst, Err: errors.New("source and destination are the same file")}
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return dst, err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return dst, err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return dst, err
	}
	if err := dstFile.Close(); err != nil {
		return dst, err
	}

	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return dst, err
	}
	return dst, os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}

// RemoveIfFile deletes path when it is a regular file. It reports whether a file was removed.
func RemoveIfFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, err
	}
	return true, nil
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureDir creates dir and any parents when it does not exist yet.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// ListDir returns the paths of the entries in dir, sorted by name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
