// =============================================================================
// Map Data Converter - File Manager Utility
// =============================================================================
//
// This module provides the small set of file operations both converters share:
//   - Non-recursive file discovery by extension
//   - Companion file lookup (same base name, different extension)
//   - Output writing with guaranteed handle release
//   - Existence and size checks used for logging
//
// OUTPUT STRATEGY:
//   - Output files are created or truncated in place; an existing file is
//     overwritten without warning
//   - Parent directories of the output path are created if missing
//   - No temporary files, no archival
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverFiles lists the regular files directly inside dir whose extension
// matches ext, ignoring case.
//
// PARAMETERS:
//   - dir: The directory to scan. Subdirectories are not descended into.
//   - ext: The extension to match, including the dot (e.g., ".shp").
//
// RETURNS:
//   - The matching paths in directory-listing order (sorted by file name).
//   - An error if the directory cannot be read.
func DiscoverFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// CompanionPath returns the path that shares path's base name but has the
// extension ext (e.g., "roads.shp" + ".dbf" -> "roads.dbf").
func CompanionPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// FindCompanion looks for a companion file with either the lower- or the
// upper-case form of ext. It returns the path found and true, or the
// lower-case path and false.
func FindCompanion(path, ext string) (string, bool) {
	lower := CompanionPath(path, strings.ToLower(ext))
	if FileExists(lower) {
		return lower, true
	}
	upper := CompanionPath(path, strings.ToUpper(ext))
	if FileExists(upper) {
		return upper, true
	}
	return lower, false
}

// =============================================================================
// OUTPUT
// =============================================================================

// WriteFile creates or truncates path and lets write fill it. The file is
// closed on every exit path; a failed write may leave a partial file behind.
func WriteFile(path string, write func(w io.Writer) error) (err error) {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return file.Sync()
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists at path.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
