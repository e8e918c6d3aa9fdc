// Package pathutil normalizes repo-relative paths so every store and wire
// payload agrees on one representation: forward slashes, no leading "./",
// no trailing slash.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize converts an absolute or OS-native path, relative to root, into
// the repo-relative forward-slash form used as the canonical key for File,
// Symbol, and Edge records.
func Normalize(root, path string) string {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.TrimSuffix(rel, "/")
	return rel
}

// Contains reports whether child (already cleaned/absolute) lies within
// parent (already cleaned/absolute), using a path-segment boundary so that
// "/root/a" does not contain "/root/ab".
func Contains(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if parent == child {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(parent, sep) {
		parent += sep
	}
	return strings.HasPrefix(child, parent)
}

// Canonicalize resolves symlinks and returns an absolute, cleaned path. If
// the path does not exist, it falls back to a best-effort absolute/clean of
// the path as given (used for configured roots that may not exist yet).
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}
