// Package paths_test tests cache path resolution and helpers.
package paths_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/speech-gateway/internal/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheDir_HonorsEnvironmentOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv("CACHE_DIR", override)

	assert.Equal(t, override, paths.CacheDir())
	assert.Equal(t, filepath.Join(override, "models"), paths.ModelsDir())
}

func TestEnsureDir_CreatesNestedDirectories(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, paths.EnsureDir(target))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "models_english_v1.bin", paths.SanitizeFilename("models/english/v1.bin"))
	assert.Equal(t, "_", paths.SanitizeFilename(""))
	assert.Equal(t, "__etc_passwd", paths.SanitizeFilename("../etc/passwd"))
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", paths.FormatBytes(512))
	assert.Equal(t, "1.5 KB", paths.FormatBytes(1536))
	assert.Equal(t, "2.0 MB", paths.FormatBytes(2*1024*1024))
	assert.Equal(t, "3.0 GB", paths.FormatBytes(3*1024*1024*1024))
}
