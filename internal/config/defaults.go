package config

const (
	defaultConfigPath           = "~/.config/jellysports/config.toml"
	projectConfigName           = "jellysports.toml"
	defaultCacheDir             = "~/.cache/jellysports"
	defaultLogDir               = "~/.local/share/jellysports/logs"
	defaultSportsdbBaseURL      = "https://www.thesportsdb.com/api/v2/json"
	defaultSportsdbTimeout      = 20
	defaultRequestsPerMinute    = 100
	defaultRetryAttempts        = 3
	defaultRetryDelayMillis     = 1500
	defaultMemoryTTLSeconds     = 600
	defaultDiskTTLSeconds       = 86400
	defaultJellyfinEnabled      = false
	defaultJellyfinURL          = "http://localhost:8096"
	defaultJellyfinRetries      = 5
	defaultJellyfinRetryDelay   = 5
	defaultWatcherSettleSeconds = 5
	defaultWatcherWorkers       = 2
	defaultMetricsBind          = "127.0.0.1:9464"
	defaultNtfyTimeoutSeconds   = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 10
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 30
)

func defaultExtensions() []string {
	return []string{".mkv", ".mp4", ".avi", ".mov", ".ts", ".m2ts", ".mpg", ".webm"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Sportsdb: Sportsdb{
			BaseURL:           defaultSportsdbBaseURL,
			TimeoutSeconds:    defaultSportsdbTimeout,
			RequestsPerMinute: defaultRequestsPerMinute,
			RetryAttempts:     defaultRetryAttempts,
			RetryDelayMillis:  defaultRetryDelayMillis,
			MemoryTTLSeconds:  defaultMemoryTTLSeconds,
			DiskTTLSeconds:    defaultDiskTTLSeconds,
		},
		Jellyfin: Jellyfin{
			Enabled:           defaultJellyfinEnabled,
			URL:               defaultJellyfinURL,
			RefreshRetries:    defaultJellyfinRetries,
			RetryDelaySeconds: defaultJellyfinRetryDelay,
		},
		Watcher: Watcher{
			Extensions:    defaultExtensions(),
			SettleSeconds: defaultWatcherSettleSeconds,
			Workers:       defaultWatcherWorkers,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			NotifyUnmatched:       true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
