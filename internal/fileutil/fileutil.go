package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SidecarSuffixes lists the companion files that travel with a payload.
var SidecarSuffixes = []string{".checksum", ".checksums"}

// ErrTargetExists reports a relocation that would overwrite an existing file.
var ErrTargetExists = errors.New("target already exists")

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

// Move renames source to target, creating the target directory. Moves across
// filesystems fall back to copy and remove. An existing target is never
// overwritten.
func Move(source, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("move %s: %w: %s", filepath.Base(source), ErrTargetExists, target)
	}

	renameErr := os.Rename(source, target)
	if renameErr == nil {
		return nil
	}
	if !IsCrossDevice(renameErr) {
		return fmt.Errorf("move file: %w", renameErr)
	}

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if err := CopyFileMode(source, target, info.Mode().Perm()); err != nil {
		_ = os.Remove(target)
		return fmt.Errorf("copy file across devices: %w", err)
	}
	if err := os.Remove(source); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// MoveWithSidecars relocates payload and any sidecars into targetDir under the
// same base names. Every target is checked before anything moves, so a
// conflict leaves all files in place. Sidecars move first; the payload is
// renamed last so it never appears in targetDir without its companions.
func MoveWithSidecars(payload, targetDir string) (string, error) {
	base := filepath.Base(payload)
	target := filepath.Join(targetDir, base)

	type pair struct{ from, to string }
	var moves []pair
	for _, suffix := range SidecarSuffixes {
		sidecar := payload + suffix
		if _, err := os.Stat(sidecar); err == nil {
			moves = append(moves, pair{sidecar, target + suffix})
		}
	}
	moves = append(moves, pair{payload, target})
	for _, m := range moves {
		if _, err := os.Lstat(m.to); err == nil {
			return "", fmt.Errorf("relocate %s: %w: %s", base, ErrTargetExists, m.to)
		}
	}
	for _, m := range moves {
		if err := Move(m.from, m.to); err != nil {
			return "", err
		}
	}
	return target, nil
}

// IsCrossDevice reports whether err came from a rename across filesystems.
func IsCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, unix.EXDEV)
	}
	return errors.Is(err, unix.EXDEV)
}
