// Package pathutil converts between absolute and relative paths.
//
// hivegen resolves everything to absolute paths internally; user-facing
// output (logs, dump headers, skip notices) shows paths relative to the
// project root for readability.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	// outside the root the absolute path is clearer than a ../.. chain
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToAbsolute resolves a possibly-relative path against a root directory
func ToAbsolute(path, rootDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(rootDir, path))
}
