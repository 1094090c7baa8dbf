// Package fileutil holds best-effort filesystem helpers shared by the pipeline.
package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// SizeOf returns the size of path in bytes, or 0 on any error.
// Callers treat 0 as unknown.
func SizeOf(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// Exists reports whether path exists and is a regular file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// Delete removes path. An already-absent file counts as success.
// Failures are logged, never returned.
func Delete(path string) bool {
	if path == "" {
		return true
	}
	err := os.Remove(path)
	if err == nil {
		log.Debug().Str("path", path).Msg("Deleted file")
		return true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	log.Error().Err(err).Str("path", path).Msg("Failed to delete file")
	return false
}

// DeleteMany removes every path and returns how many were removed or already absent.
func DeleteMany(paths []string) int {
	n := 0
	for _, p := range paths {
		if Delete(p) {
			n++
		}
	}
	return n
}

// OlderThan lists regular files in dir matching pattern whose modification
// time is before cutoff.
func OlderThan(dir, pattern string, cutoff time.Time) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, m)
		}
	}
	return stale, nil
}
