package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WriteFileAtomic replaces path with data. Readers see either the old
// content or the new, never a partial file. Parent directories are created.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	return replaceVia(path, mode, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// MoveFile renames src to dst, creating dst's parent directories. Across
// filesystems the file is copied, checked against the source digest and the
// source removed.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent %s: %w", filepath.Dir(dst), err)
	}
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, unix.EXDEV) {
		return err
	}
	if err := copyAcrossDevices(src, dst); err != nil {
		return fmt.Errorf("move %s across devices: %w", src, err)
	}
	return os.Remove(src)
}

// RemoveIfExists deletes path; a missing file is success.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether path exists. Only "not exist" maps to false; any
// other stat failure is returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func copyAcrossDevices(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	want := sha256.New()
	if err := replaceVia(dst, info.Mode().Perm(), func(w io.Writer) error {
		n, err := io.Copy(w, io.TeeReader(in, want))
		if err == nil && n != info.Size() {
			err = fmt.Errorf("copied %d of %d bytes", n, info.Size())
		}
		return err
	}); err != nil {
		return err
	}

	got, err := digest(dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("digest mismatch after copying to %s", dst)
	}
	return nil
}

// replaceVia streams fill into a temp file beside path, syncs it and renames
// it over path.
func replaceVia(path string, mode os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true
	return nil
}

func digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
