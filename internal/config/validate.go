package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSportsdb(); err != nil {
		return err
	}
	if err := c.validateFields(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSportsdb() error {
	if c.Sportsdb.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("sportsdb.api_key is required. Set TSDB_API_KEY env var or edit %s (create with 'jellysports config init')", defaultPath)
	}
	return nil
}

// validateFields runs the struct tag rules and reports the first violation
// using the TOML key path.
func (c *Config) validateFields() error {
	err := structValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	first := fieldErrs[0]
	key := tomlKey(first.Namespace())
	if first.Param() != "" {
		return fmt.Errorf("%s: failed %s=%s (got %v)", key, first.Tag(), first.Param(), first.Value())
	}
	return fmt.Errorf("%s: failed %s (got %v)", key, first.Tag(), first.Value())
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true")
	}
	return nil
}

var fieldKeys = map[string]string{
	"Paths":             "paths",
	"CacheDir":          "cache_dir",
	"Sportsdb":          "sportsdb",
	"BaseURL":           "base_url",
	"TimeoutSeconds":    "timeout_seconds",
	"RequestsPerMinute": "requests_per_minute",
	"RetryAttempts":     "retry_attempts",
	"RetryDelayMillis":  "retry_delay_ms",
	"MemoryTTLSeconds":  "memory_ttl_seconds",
	"DiskTTLSeconds":    "disk_ttl_seconds",
	"Jellyfin":          "jellyfin",
	"RefreshRetries":    "refresh_retries",
	"RetryDelaySeconds": "retry_delay_seconds",
	"Watcher":           "watcher",
	"Extensions":        "extensions",
	"SettleSeconds":     "settle_seconds",
	"Workers":           "workers",
	"Metrics":           "metrics",
	"Bind":              "bind",
	"Logging":           "logging",
	"Format":            "format",
	"Level":             "level",
	"MaxSizeMB":         "max_size_mb",
	"MaxBackups":        "max_backups",
	"MaxAgeDays":        "max_age_days",
}

// tomlKey turns "Config.Logging.Level" into "logging.level".
func tomlKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, part := range parts {
		name, index, _ := strings.Cut(part, "[")
		if mapped, ok := fieldKeys[name]; ok {
			name = mapped
		}
		if index != "" {
			name += "[" + index
		}
		parts[i] = name
	}
	return strings.Join(parts, ".")
}
