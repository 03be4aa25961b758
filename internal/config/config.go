package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryRoots []string `toml:"library_roots"`
	CacheDir     string   `toml:"cache_dir" validate:"required"`
	LogDir       string   `toml:"log_dir"`
}

// Sportsdb contains configuration for the remote sports catalog.
type Sportsdb struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url" validate:"required,url"`
	TimeoutSeconds    int    `toml:"timeout_seconds" validate:"gte=1,lte=300"`
	RequestsPerMinute int    `toml:"requests_per_minute" validate:"gte=1"`
	RetryAttempts     int    `toml:"retry_attempts" validate:"gte=1,lte=10"`
	RetryDelayMillis  int    `toml:"retry_delay_ms" validate:"gte=0,lte=60000"`
	MemoryTTLSeconds  int    `toml:"memory_ttl_seconds" validate:"gte=1"`
	DiskTTLSeconds    int    `toml:"disk_ttl_seconds" validate:"gte=1"`
}

// Jellyfin contains configuration for Jellyfin Media Server integration.
type Jellyfin struct {
	Enabled           bool   `toml:"enabled"`
	URL               string `toml:"url"`
	APIKey            string `toml:"api_key"`
	RefreshRetries    int    `toml:"refresh_retries" validate:"gte=0,lte=50"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds" validate:"gte=0"`
}

// Watcher contains configuration for the library file watcher.
type Watcher struct {
	Extensions    []string `toml:"extensions" validate:"min=1,dive,startswith=."`
	SettleSeconds int      `toml:"settle_seconds" validate:"gte=0"`
	Workers       int      `toml:"workers" validate:"gte=1,lte=32"`
}

// Metrics contains configuration for the prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind" validate:"required_if=Enabled true"`
}

// Notifications contains configuration for ntfy alerts.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic" validate:"omitempty,url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" validate:"gte=0,lte=120"`
	NotifyUnmatched       bool   `toml:"notify_unmatched"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format" validate:"oneof=console json"`
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" validate:"gte=0"`
}

// Config encapsulates all configuration values for jellysports.
//
// Configuration sections by subsystem:
//   - Paths: watched library roots, catalog cache and log directories
//   - Sportsdb: catalog credentials, rate limit and cache lifetimes
//   - Jellyfin: media server refresh and metadata updates
//   - Watcher: video extensions, settle interval and worker count
//   - Metrics: optional prometheus endpoint
//   - Notifications: ntfy alerts for files needing attention
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sportsdb      Sportsdb      `toml:"sportsdb"`
	Jellyfin      Jellyfin      `toml:"jellyfin"`
	Watcher       Watcher       `toml:"watcher"`
	Metrics       Metrics       `toml:"metrics"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
// Library roots are left alone; an offline share should not stop the daemon.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IsVideo reports whether name carries one of the configured video extensions.
func (c *Config) IsVideo(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, candidate := range c.Watcher.Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
