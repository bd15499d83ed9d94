package fileutil

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// MoveFile renames src to dst, replacing dst. When the two paths live on
// different filesystems the file is copied next to dst, verified, renamed
// into place and src is removed, so dst is never observed half-written.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, unix.EXDEV) {
		return err
	}

	partial := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".partial")
	if err := CopyVerified(src, partial); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("copy across filesystems: %w", err)
	}
	if err := os.Rename(partial, dst); err != nil {
		_ = os.Remove(partial)
		return err
	}
	return os.Remove(src)
}

// CopyVerified copies src to dst, then reads dst back and compares its
// SHA-256 digest with the one taken while copying. dst is removed on
// mismatch.
func CopyVerified(src, dst string) error {
	want, size, err := copyHashed(src, dst)
	if err != nil {
		return err
	}
	got, gotSize, err := digest(dst)
	if err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	if gotSize != size || got != want {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: %s differs from %s (%d vs %d bytes)", dst, src, gotSize, size)
	}
	return nil
}

func copyHashed(src, dst string) ([sha256.Size]byte, int64, error) {
	var sum [sha256.Size]byte

	in, err := os.Open(src)
	if err != nil {
		return sum, 0, err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return sum, 0, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return sum, 0, err
	}
	hasher := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(out, hasher), in)
	syncErr := out.Sync()
	closeErr := out.Close()
	if err := errors.Join(copyErr, syncErr, closeErr); err != nil {
		return sum, 0, err
	}
	copy(sum[:], hasher.Sum(nil))
	return sum, n, nil
}

func digest(path string) ([sha256.Size]byte, int64, error) {
	var sum [sha256.Size]byte
	f, err := os.Open(path)
	if err != nil {
		return sum, 0, err
	}
	defer f.Close()
	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return sum, 0, err
	}
	copy(sum[:], hasher.Sum(nil))
	return sum, n, nil
}
