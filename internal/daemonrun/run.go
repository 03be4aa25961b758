// Package daemonrun runs jellysports in watch mode: library roots are watched
// for settled video files, which a bounded pool of workers hands to the
// processor.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"jellysports/internal/config"
	"jellysports/internal/logging"
	"jellysports/internal/metrics"
	"jellysports/internal/notifications"
	"jellysports/internal/preflight"
	"jellysports/internal/processor"
	"jellysports/internal/services"
	"jellysports/internal/services/jellyfin"
	"jellysports/internal/watcher"
)

const (
	queueSize       = 256
	shutdownTimeout = 5 * time.Second
	lockFileName    = "jellysportsd.lock"
	pidFileName     = "jellysportsd.pid"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when set.
	LogLevel string
	// Roots overrides the configured library roots when set.
	Roots []string
	// Logger replaces the logger built from the configuration.
	Logger *slog.Logger
}

// FileProcessor handles one settled file.
type FileProcessor interface {
	Process(ctx context.Context, path string, depth int) (processor.Record, error)
}

// Run starts the watch loop and blocks until the context is cancelled or a
// SIGINT or SIGTERM arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := opts.Logger
	if logger == nil {
		logCfg := *cfg
		if strings.TrimSpace(opts.LogLevel) != "" {
			logCfg.Logging.Level = opts.LogLevel
		}
		built, err := logging.NewFromConfig(&logCfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = built
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(cfg.Paths.CacheDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another jellysports daemon holds %s", lock.Path())
	}
	defer lock.Unlock()

	pidPath := filepath.Join(cfg.Paths.LogDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	stack, err := Build(cfg, logger)
	if err != nil {
		return err
	}

	for _, check := range preflight.Failed(preflight.RunAll(signalCtx, cfg, stack.Client, stack.Media)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldImpact, "files may fail to resolve until this is fixed"),
		)
	}

	roots := opts.Roots
	if len(roots) == 0 {
		roots = LibraryRoots(signalCtx, cfg, stack.Media, logger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	w, err := watcher.New(roots,
		watcher.WithExtensions(cfg.Watcher.Extensions),
		watcher.WithSettle(time.Duration(cfg.Watcher.SettleSeconds)*time.Second),
		watcher.WithLogger(logger),
		watcher.WithDirectoryCount(func(n int) { m.WatchedDirectories.Set(float64(n)) }),
	)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	g, ctx := errgroup.WithContext(signalCtx)
	events := make(chan watcher.Event, queueSize)
	g.Go(func() error {
		defer close(events)
		return w.Run(ctx, events)
	})
	g.Go(func() error {
		return Workers{
			Processor: stack.Processor,
			Metrics:   m,
			Notifier:  notifications.NewService(cfg),
			Count:     cfg.Watcher.Workers,
			Logger:    logger,
		}.Drain(ctx, events)
	})
	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Bind, reg, logger)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("jellysports daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Int("roots", len(roots)),
		logging.Int("workers", cfg.Watcher.Workers),
		logging.Bool("jellyfin_enabled", cfg.Jellyfin.Enabled),
		logging.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)

	err = g.Wait()
	logger.Info("jellysports daemon shutting down")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Workers process settled files with a bounded pool.
type Workers struct {
	Processor FileProcessor
	Metrics   *metrics.Metrics
	Notifier  notifications.Service
	Count     int
	Logger    *slog.Logger
}

// Drain processes events until the channel is closed or ctx is done.
// Per-file failures are logged and counted; they never stop the pool.
func (w Workers) Drain(ctx context.Context, events <-chan watcher.Event) error {
	count := w.Count
	if count < 1 {
		count = 1
	}
	if w.Logger == nil {
		w.Logger = logging.NewNop()
	}
	if w.Notifier == nil {
		w.Notifier = notifications.NewService(nil)
	}
	g, ctx := errgroup.WithContext(ctx)
	for range count {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if w.Metrics != nil {
						w.Metrics.WatchEvents.Inc()
						w.Metrics.QueueDepth.Set(float64(len(events)))
					}
					w.processOne(ctx, ev)
				}
			}
		})
	}
	return g.Wait()
}

func (w Workers) processOne(ctx context.Context, ev watcher.Event) {
	start := time.Now()
	rec, err := w.Processor.Process(ctx, ev.Path, ev.Depth)
	outcome := err
	if outcome == nil && !rec.Matched() {
		outcome = services.ErrNoMatch
	}
	w.Metrics.ObserveFile(outcome, rec.Strategy, time.Since(start))

	var notifyErr error
	switch {
	case err == nil && rec.Matched():
		return
	case err == nil:
		notifyErr = w.Notifier.NotifyUnmatched(ctx, ev.Path, rec.Show, rec.Title)
	case errors.Is(err, services.ErrRejected):
		notifyErr = w.Notifier.NotifyRejected(ctx, ev.Path, err.Error())
	default:
		logging.WarnWithContext(w.Logger, "file processing failed", "process_failed",
			logging.String(logging.FieldFile, ev.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file keeps its current metadata"),
		)
		notifyErr = w.Notifier.NotifyError(ctx, err, filepath.Base(ev.Path))
	}
	if notifyErr != nil {
		logging.WarnWithContext(w.Logger, "notification failed", "notification_failed",
			logging.String(logging.FieldFile, ev.Path),
			logging.Error(notifyErr),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// LibraryRoots returns the configured roots, or the existing locations of
// the media server's libraries when none are configured.
func LibraryRoots(ctx context.Context, cfg *config.Config, media jellyfin.Service, logger *slog.Logger) []string {
	if len(cfg.Paths.LibraryRoots) > 0 {
		return cfg.Paths.LibraryRoots
	}
	if media == nil {
		return nil
	}
	libs, err := media.Libraries(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "library discovery failed", "library_discovery_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set paths.library_roots or check the jellyfin connection"),
		)
		return nil
	}
	seen := make(map[string]struct{})
	var roots []string
	for _, lib := range libs {
		for _, loc := range lib.Locations {
			info, err := os.Stat(loc)
			if err != nil || !info.IsDir() {
				logger.Debug("library location skipped",
					logging.String("library", lib.Name),
					logging.String("location", loc),
				)
				continue
			}
			if _, ok := seen[loc]; ok {
				continue
			}
			seen[loc] = struct{}{}
			roots = append(roots, loc)
		}
	}
	return roots
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
