package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSportsdb()
	c.normalizeJellyfin()
	c.normalizeWatcher()
	c.normalizeLogging()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func (c *Config) normalizePaths() error {
	roots := make([]string, 0, len(c.Paths.LibraryRoots))
	seen := make(map[string]struct{}, len(c.Paths.LibraryRoots))
	for idx, root := range c.Paths.LibraryRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(root))
		if err != nil {
			return fmt.Errorf("paths.library_roots[%d]: %w", idx, err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Paths.LibraryRoots = roots

	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSportsdb() {
	c.Sportsdb.APIKey = strings.TrimSpace(c.Sportsdb.APIKey)
	if c.Sportsdb.APIKey == "" {
		if value, ok := os.LookupEnv("TSDB_API_KEY"); ok {
			c.Sportsdb.APIKey = strings.TrimSpace(value)
		}
	}
	c.Sportsdb.BaseURL = strings.TrimRight(strings.TrimSpace(c.Sportsdb.BaseURL), "/")
	if c.Sportsdb.BaseURL == "" {
		c.Sportsdb.BaseURL = defaultSportsdbBaseURL
	}
}

func (c *Config) normalizeJellyfin() {
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeWatcher() {
	exts := make([]string, 0, len(c.Watcher.Extensions))
	for _, ext := range c.Watcher.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Watcher.Extensions = exts
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	default:
		c.Logging.Level = level
	}
}
