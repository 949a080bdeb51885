package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 50, cfg.Performance.IndexWorkers)
	assert.Equal(t, 256, cfg.Performance.QueryCacheSize)
	assert.Equal(t, "2s", cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ExternalPaths)
	assert.Equal(t, filepath.Join(DefaultDataDir(), "backgrounds"), cfg.Paths.Backgrounds)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Performance, cfg.Performance)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
paths:
  backgrounds: /srv/bg
external_paths:
  - /mnt/a
  - /mnt/b
local_tags:
  - name: Cozy
    category: mood
performance:
  index_workers: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/bg", cfg.Paths.Backgrounds)
	assert.Equal(t, DefaultDataDir(), cfg.Paths.DataDir, "absent keys keep defaults")
	assert.Equal(t, []string{"/mnt/a", "/mnt/b"}, cfg.ExternalPaths)
	assert.Equal(t, []LocalTag{{Name: "Cozy", Category: "mood"}}, cfg.LocalTags)
	assert.Equal(t, 8, cfg.Performance.IndexWorkers)
	assert.Equal(t, 256, cfg.Performance.QueryCacheSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "performance:\n  index_workers: 8\n")
	t.Setenv("BACKDROPS_INDEX_WORKERS", "3")
	t.Setenv("BACKDROPS_DATA_DIR", "/var/lib/backdrops")
	t.Setenv("BACKDROPS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Performance.IndexWorkers)
	assert.Equal(t, "/var/lib/backdrops", cfg.Paths.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join("/var/lib/backdrops", "catalog.json"), cfg.CatalogPath())
}

func TestLoad_InvalidEnvWorkersIgnored(t *testing.T) {
	t.Setenv("BACKDROPS_INDEX_WORKERS", "zero")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Performance.IndexWorkers)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, "external_paths: {not: [a list\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero workers", func(c *Config) { c.Performance.IndexWorkers = 0 }, "index_workers"},
		{"zero cache", func(c *Config) { c.Performance.QueryCacheSize = 0 }, "query_cache_size"},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }, "watch.debounce"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = "-1s" }, "watch.debounce"},
		{"empty external path", func(c *Config) { c.ExternalPaths = []string{" "} }, "external_paths[0]"},
		{"empty tag name", func(c *Config) { c.LocalTags = []LocalTag{{}} }, "local_tags[0]"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"empty backgrounds", func(c *Config) { c.Paths.Backgrounds = "" }, "paths.backgrounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDebounceDuration(t *testing.T) {
	cfg := NewConfig()
	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestGetUserConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "backdrops", "config.yaml"), GetUserConfigPath())
}

func TestAllowedTags(t *testing.T) {
	allowed := AllowedTags([]LocalTag{{Name: "Cozy"}, {Name: "  "}})

	assert.Contains(t, allowed, "landscape")
	assert.Contains(t, allowed, "space")
	assert.Contains(t, allowed, "cozy")
	assert.NotContains(t, allowed, "Cozy")
	assert.NotContains(t, allowed, "")
}
