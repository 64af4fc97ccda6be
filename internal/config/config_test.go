package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CLIPKEEP_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("CLIPKEEP_DATA_DIR", filepath.Join(dir, "data"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.PollingInterval)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.SweepInterval)
	assert.Equal(t, 500, cfg.Retention.MaxItems)
	assert.Zero(t, cfg.Retention.MaxAge, "age policy is off by default")

	assert.Equal(t, int64(256*1024*1024), cfg.Limits.MaxImageBytes)
	assert.Equal(t, int64(512*1024*1024), cfg.Limits.MaxOtherBytes)
	assert.Equal(t, int64(5*1024*1024), cfg.Limits.ImageSpillThreshold)
	assert.Equal(t, int64(1*1024*1024), cfg.Limits.TextSpillThreshold)

	assert.True(t, cfg.Capture.EnableText)
	assert.True(t, cfg.Capture.EnableImage)
	assert.Contains(t, cfg.Capture.SensitiveApps, "1password")

	assert.False(t, cfg.Enrich.Enabled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Retention.MaxItems = 42
	cfg.Retention.MaxAge = 48 * time.Hour
	cfg.Capture.ExcludedApps = []string{"vault", "secrets"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Log.Level)
	assert.Equal(t, 42, loaded.Retention.MaxItems)
	assert.Equal(t, 48*time.Hour, loaded.Retention.MaxAge)
	assert.Equal(t, []string{"vault", "secrets"}, loaded.Capture.ExcludedApps)
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Retention.MaxItems)

	// The default file was written and is loadable.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Monitor.PollingInterval, again.Monitor.PollingInterval)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retention:\n  max_items: 7\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retention.MaxItems, "explicit value wins")
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.PollingInterval, "unset fields keep defaults")
}

func TestEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	t.Setenv("CLIPKEEP_LOG_LEVEL", "warn")
	t.Setenv("CLIPKEEP_POLLING_INTERVAL", "250ms")
	t.Setenv("CLIPKEEP_MAX_ITEMS", "99")
	t.Setenv("CLIPKEEP_MAX_AGE", "72h")
	t.Setenv("CLIPKEEP_ENRICH_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Monitor.PollingInterval)
	assert.Equal(t, 99, cfg.Retention.MaxItems)
	assert.Equal(t, 72*time.Hour, cfg.Retention.MaxAge)
	assert.True(t, cfg.Enrich.Enabled)
}

func TestMalformedEnvValuesAreIgnored(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	t.Setenv("CLIPKEEP_POLLING_INTERVAL", "not-a-duration")
	t.Setenv("CLIPKEEP_MAX_ITEMS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.PollingInterval)
	assert.Equal(t, 500, cfg.Retention.MaxItems)
}
