package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, "auto", cfg.Language)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, float64(100), cfg.PixelsPerSecond)
	assert.Equal(t, "local", cfg.Cache.Type)
}

func TestLoadReadsEnvFileWithoutOverridingProcessEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("APP_ENV", "test")
	t.Setenv("JOB_TIMEOUT", "90s")
	content := "POLL_INTERVAL=250ms\nJOB_TIMEOUT=10m\n# comment\nTIMELINE_PIXELS_PER_SECOND=\"42.5\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(content), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("POLL_INTERVAL")
		os.Unsetenv("TIMELINE_PIXELS_PER_SECOND")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.JobTimeout)
	assert.Equal(t, 42.5, cfg.PixelsPerSecond)
}
