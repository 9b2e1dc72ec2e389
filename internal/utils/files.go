package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File: u=rw, g=rw, o=r
const PermFile os.FileMode = 0664

// Dir: u=rwx, g=rwx, o=rx
const PermDir os.FileMode = 0775

// Exec: u=rwx, g=rwx, o=rx
const PermExec os.FileMode = 0775

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// PathExists checks existence without caring about the type.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CheckExists returns an error naming the path if it does not exist.
func CheckExists(path string) error {
	if !PathExists(path) {
		return fmt.Errorf("'%s' does not exist", path)
	}
	return nil
}

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, PermDir)
}

// FullDir resolves dir to an absolute, symlink-free path. Relative paths are
// taken relative to base. When create is set the directory is created first.
func FullDir(dir, base string, create bool) (string, error) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	if create {
		if err := EnsureDir(dir); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	full, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("'%s' does not exist", dir)
	}
	return full, nil
}

// FullFile resolves path to an absolute, symlink-free path that must exist.
func FullFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	full, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("'%s' does not exist", abs)
	}
	return full, nil
}

// CopyFile copies src to dst keeping the source permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
