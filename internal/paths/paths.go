// Package paths resolves the gateway's local cache locations and provides
// small path and formatting helpers used when staging model artifacts.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable honored for cache relocation.
const envCacheDir = "CACHE_DIR"

// Directory layout constants.
const (
	appName               = "speech-gateway"
	modelsDirName         = "models"
	dotCache              = ".cache"
	tmpDir                = "/tmp"
	defaultDirPermissions = 0o750
	invalidCharFallback   = "_"
)

// Data size constants for human-readable byte formatting.
const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Byte format strings.
const (
	formatGB    = "%.1f GB"
	formatMB    = "%.1f MB"
	formatKB    = "%.1f KB"
	formatBytes = "%d B"
)

// CacheDir returns the gateway cache directory, honoring CACHE_DIR and
// falling back to ~/.cache/speech-gateway, then /tmp.
func CacheDir() string {
	if cacheDir := os.Getenv(envCacheDir); cacheDir != "" {
		return cacheDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(tmpDir, appName)
	}

	return filepath.Join(homeDir, dotCache, appName)
}

// ModelsDir returns the directory model artifacts are staged into.
func ModelsDir() string {
	return filepath.Join(CacheDir(), modelsDirName)
}

// EnsureDir creates the directory (and parents) if it does not exist.
func EnsureDir(dir string) error {
	err := os.MkdirAll(dir, defaultDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}

// SanitizeFilename replaces path separators and other unsafe characters so an
// artifact key can be used as a local file name.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", invalidCharFallback,
		"\\", invalidCharFallback,
		"..", invalidCharFallback,
		":", invalidCharFallback,
		"\x00", invalidCharFallback,
	)

	sanitized := replacer.Replace(name)
	if sanitized == "" {
		return invalidCharFallback
	}

	return sanitized
}

// FormatBytes renders a byte count for log output.
func FormatBytes(size int64) string {
	switch {
	case size >= gigabyte:
		return fmt.Sprintf(formatGB, float64(size)/float64(gigabyte))
	case size >= megabyte:
		return fmt.Sprintf(formatMB, float64(size)/float64(megabyte))
	case size >= kilobyte:
		return fmt.Sprintf(formatKB, float64(size)/float64(kilobyte))
	default:
		return fmt.Sprintf(formatBytes, size)
	}
}
