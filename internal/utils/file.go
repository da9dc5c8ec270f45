package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// SplitExt splits a filename into its stem and extension. The extension is
// returned without the dot and keeps its case.
func SplitExt(filename string) (string, string) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return base, ""
	}
	return strings.TrimSuffix(base, ext), ext[1:]
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	_, ext := SplitExt(filename)
	return strings.ToLower(ext)
}

// GenerateOutputFilename builds "{subject}.{background}.{index}.{ext}" from
// the extension-less subject and background names.
func GenerateOutputFilename(subject, background string, index int, ext string) string {
	return fmt.Sprintf("%s.%s.%d.%s", subject, background, index, ext)
}

// ListFiles lists the regular files directly inside dir, sorted by name
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	return files, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && info.IsDir()
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
