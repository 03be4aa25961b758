package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellysports/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TSDB_API_KEY", "test-key")
	t.Setenv("JELLYFIN_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
	assert.False(t, exists, "config file should be absent in temp HOME")

	assert.Equal(t, filepath.Join(tempHome, ".cache", "jellysports"), cfg.Paths.CacheDir)
	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "jellysports", "logs"), cfg.Paths.LogDir)
	assert.Equal(t, "test-key", cfg.Sportsdb.APIKey)
	assert.Equal(t, config.Default().Sportsdb.BaseURL, cfg.Sportsdb.BaseURL)
	assert.Equal(t, 600, cfg.Sportsdb.MemoryTTLSeconds)
	assert.Equal(t, 86400, cfg.Sportsdb.DiskTTLSeconds)
	assert.False(t, cfg.Jellyfin.Enabled)
	assert.Len(t, cfg.Watcher.Extensions, 8)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	t.Setenv("TSDB_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, _, _, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sportsdb.api_key is required")
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("TSDB_API_KEY", "")
	t.Setenv("JELLYFIN_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := struct {
		Paths struct {
			LibraryRoots []string `toml:"library_roots"`
			CacheDir     string   `toml:"cache_dir"`
		} `toml:"paths"`
		Sportsdb struct {
			APIKey string `toml:"api_key"`
		} `toml:"sportsdb"`
		Watcher struct {
			Extensions []string `toml:"extensions"`
		} `toml:"watcher"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}{}
	payload.Paths.LibraryRoots = []string{"~/sports", "~/sports", " "}
	payload.Paths.CacheDir = "~/cache"
	payload.Sportsdb.APIKey = "file-key"
	payload.Watcher.Extensions = []string{"MKV", ".mp4"}
	payload.Logging.Format = "JSON"
	payload.Logging.Level = "warning"

	data, err := toml.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	cfg, resolved, exists, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, "file-key", cfg.Sportsdb.APIKey)
	assert.Equal(t, []string{filepath.Join(tempHome, "sports")}, cfg.Paths.LibraryRoots)
	assert.Equal(t, filepath.Join(tempHome, "cache"), cfg.Paths.CacheDir)
	assert.Equal(t, []string{".mkv", ".mp4"}, cfg.Watcher.Extensions)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.IsVideo("/x/Race.MKV"))
	assert.False(t, cfg.IsVideo("/x/race.avi"))
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	t.Setenv("TSDB_API_KEY", "k")
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[paths\ncache_dir = 1"), 0o644))

	_, _, _, err := config.Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidateFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "workers",
			mutate: func(c *config.Config) { c.Watcher.Workers = 0 },
			want:   "watcher.workers",
		},
		{
			name:   "base url",
			mutate: func(c *config.Config) { c.Sportsdb.BaseURL = "not a url" },
			want:   "sportsdb.base_url",
		},
		{
			name:   "retry delay",
			mutate: func(c *config.Config) { c.Sportsdb.RetryDelayMillis = -1 },
			want:   "sportsdb.retry_delay_ms",
		},
		{
			name:   "metrics bind",
			mutate: func(c *config.Config) { c.Metrics.Enabled = true; c.Metrics.Bind = "" },
			want:   "metrics.bind",
		},
		{
			name:   "jellyfin url",
			mutate: func(c *config.Config) { c.Jellyfin.Enabled = true; c.Jellyfin.URL = ""; c.Jellyfin.APIKey = "k" },
			want:   "jellyfin.url must be set",
		},
		{
			name:   "jellyfin key",
			mutate: func(c *config.Config) { c.Jellyfin.Enabled = true; c.Jellyfin.APIKey = "" },
			want:   "jellyfin.api_key must be set",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Sportsdb.APIKey = "k"
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Sportsdb.APIKey = "k"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1500, cfg.Sportsdb.RetryDelayMillis)
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("TSDB_API_KEY", "from-env")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err, "sample config should load")
	assert.True(t, exists)
	assert.Equal(t, "from-env", cfg.Sportsdb.APIKey, "empty sample key falls back to env")
	assert.Equal(t, 1500, cfg.Sportsdb.RetryDelayMillis)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		assert.DirExists(t, dir)
	}
}
