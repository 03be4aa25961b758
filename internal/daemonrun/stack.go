package daemonrun

import (
	"fmt"
	"log/slog"
	"time"

	"jellysports/internal/artwork"
	"jellysports/internal/catalogcache"
	"jellysports/internal/config"
	"jellysports/internal/processor"
	"jellysports/internal/resolver"
	"jellysports/internal/services/jellyfin"
	"jellysports/internal/sportsdb"
)

// Stack is the wired pipeline shared by the daemon and one-shot commands.
type Stack struct {
	Client    *sportsdb.Client
	Cache     *catalogcache.Cache
	Media     jellyfin.Service
	Processor *processor.Processor
}

// Build wires the catalog client, cache, resolver, media server and
// processor from cfg.
func Build(cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	client, err := sportsdb.New(cfg.Sportsdb.APIKey, cfg.Sportsdb.BaseURL,
		sportsdb.WithTimeout(time.Duration(cfg.Sportsdb.TimeoutSeconds)*time.Second),
		sportsdb.WithRequestsPerMinute(cfg.Sportsdb.RequestsPerMinute),
		sportsdb.WithRetry(cfg.Sportsdb.RetryAttempts, time.Duration(cfg.Sportsdb.RetryDelayMillis)*time.Millisecond),
		sportsdb.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	cache := catalogcache.New(client, cfg.Paths.CacheDir,
		catalogcache.WithTTL(
			time.Duration(cfg.Sportsdb.MemoryTTLSeconds)*time.Second,
			time.Duration(cfg.Sportsdb.DiskTTLSeconds)*time.Second,
		),
		catalogcache.WithLogger(logger),
	)
	res := resolver.New(client, cache, resolver.WithLogger(logger))
	media := jellyfin.NewConfiguredService(cfg, logger)

	proc := processor.New(res, cache,
		processor.WithArtwork(artwork.NewSink(nil, client, logger)),
		processor.WithMediaServer(media),
		processor.WithLogger(logger),
	)
	return &Stack{Client: client, Cache: cache, Media: media, Processor: proc}, nil
}
