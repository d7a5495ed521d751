// Package fsutil holds the small filesystem helpers shared by config
// loading and the history store.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// ~/.unitconverter/history.db
	rest := strings.TrimLeft(path[1:], `/\`)
	return filepath.Join(home, rest), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// EnsureParentDir creates the directory that will hold file.
func EnsureParentDir(file string) error {
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// IsPathLike reports whether cmd names a file rather than a program to be
// found on PATH.
func IsPathLike(cmd string) bool {
	return strings.ContainsAny(cmd, `/`+string(os.PathSeparator))
}

// CheckCommand verifies a path-like worker command points at a regular
// file. Bare program names are left to PATH lookup at spawn time.
func CheckCommand(cmd string) error {
	if cmd == "" {
		return errors.New("command is empty")
	}
	if !IsPathLike(cmd) {
		return nil
	}
	fi, err := os.Stat(cmd)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("command not found: %s", cmd)
		}
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("command is a directory: %s", cmd)
	}
	return nil
}
