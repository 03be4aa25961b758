// Package catalogcache keeps the league-name and sport-format maps of the
// catalog in memory and on disk, refreshing each on its own TTL.
package catalogcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"jellysports/internal/fileutil"
	"jellysports/internal/logging"
	"jellysports/internal/sportsdb"
)

const (
	// LeaguesFile holds the league-name map.
	LeaguesFile = "lcache.json"
	// SportsFile holds the sport-format map.
	SportsFile = "scache.json"

	lockFile = ".catalog.lock"

	DefaultMemoryTTL = 10 * time.Minute
	DefaultDiskTTL   = 24 * time.Hour

	lockRetry = 50 * time.Millisecond
)

var seasonSuffix = regexp.MustCompile(`[_ ]?\([0-9]{4}\)`)

// Source is the part of the catalog client the cache reads through to.
type Source interface {
	AllLeagues(ctx context.Context) ([]sportsdb.League, error)
	AllSports(ctx context.Context) ([]sportsdb.Sport, error)
	SearchLeagues(ctx context.Context, name string) ([]sportsdb.League, error)
}

type entry struct {
	data     map[string]string
	loadedAt time.Time
}

// diskEntry is the on-disk form of one map.
type diskEntry struct {
	CacheTime int64             `json:"cachetime"`
	Entries   map[string]string `json:"entries"`
}

type kind struct {
	file  string
	fetch func(ctx context.Context) (map[string]string, error)
}

// Cache is safe for concurrent use. Reads share a lock, and refreshes of
// the same map are collapsed into one remote call.
type Cache struct {
	source    Source
	fs        afero.Fs
	dir       string
	lock      *flock.Flock
	clock     clockwork.Clock
	memoryTTL time.Duration
	diskTTL   time.Duration
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	// diskMu serializes file access within the process; the flock only
	// excludes other processes.
	diskMu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithFS stores cache files on fs. The OS file lock only guards the real
// filesystem, so it is not taken for other implementations.
func WithFS(fs afero.Fs) Option {
	return func(c *Cache) {
		if fs == nil {
			return
		}
		c.fs = fs
		if _, ok := fs.(*afero.OsFs); !ok {
			c.lock = nil
		}
	}
}

// WithTTL sets the in-memory and on-disk lifetimes.
func WithTTL(memory, disk time.Duration) Option {
	return func(c *Cache) {
		if memory > 0 {
			c.memoryTTL = memory
		}
		if disk > 0 {
			c.diskTTL = disk
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.NewComponentLogger(logger, "catalogcache")
	}
}

// New builds a cache that keeps its files in dir.
func New(source Source, dir string, opts ...Option) *Cache {
	c := &Cache{
		source:    source,
		fs:        afero.NewOsFs(),
		dir:       dir,
		lock:      flock.New(filepath.Join(dir, lockFile)),
		clock:     clockwork.NewRealClock(),
		memoryTTL: DefaultMemoryTTL,
		diskTTL:   DefaultDiskTTL,
		logger:    logging.NewComponentLogger(nil, "catalogcache"),
		entries:   make(map[string]entry, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LeagueID resolves a show name to a league id. A "(YYYY)" season suffix is
// ignored. Names missing from the cached map are searched remotely, and a
// search returning more than one league is treated as no match.
func (c *Cache) LeagueID(ctx context.Context, showName string) (string, bool) {
	name := strings.TrimSpace(seasonSuffix.ReplaceAllString(showName, ""))
	if name == "" {
		return "", false
	}
	logger := logging.WithContext(ctx, c.logger)

	leagues := c.load(ctx, c.leaguesKind())
	if id, ok := leagues[strings.ToLower(name)]; ok {
		logger.Debug("league resolved from cache", logging.String("show", name), logging.String("league_id", id))
		return id, true
	}

	found, err := c.source.SearchLeagues(ctx, name)
	if err != nil {
		logging.WarnWithContext(logger, "league search failed", "league_search_failed",
			logging.String("show", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the catalog api key and connectivity"),
			logging.String(logging.FieldImpact, "file will not be matched against the catalog"),
		)
		return "", false
	}
	switch len(found) {
	case 0:
		logger.Info("league not found", logging.String("show", name))
		return "", false
	case 1:
		logger.Info("league resolved by search",
			logging.Args(append(logging.DecisionAttrs("league_lookup", "matched", "single search result"),
				logging.String("show", name),
				logging.String("league_id", found[0].ID))...)...)
		return found[0].ID, true
	default:
		logger.Info("league search ambiguous",
			logging.Args(append(logging.DecisionAttrs("league_lookup", "no_match", "more than one league found"),
				logging.String("show", name),
				logging.Int("candidates", len(found)))...)...)
		return "", false
	}
}

// SportFormat returns the catalog format (TeamvsTeam, EventSport) of a sport.
func (c *Cache) SportFormat(ctx context.Context, sport string) (string, bool) {
	sports := c.load(ctx, c.sportsKind())
	format, ok := sports[sport]
	return format, ok && format != ""
}

// Clear drops both maps from memory and disk.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]entry, 2)
	c.mu.Unlock()

	unlock, err := c.acquire(context.Background(), false)
	if err != nil {
		return err
	}
	defer unlock()

	var errs []error
	for _, name := range []string{LeaguesFile, SportsFile} {
		path := filepath.Join(c.dir, name)
		if err := c.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// FileStatus describes one cache file on disk.
type FileStatus struct {
	Name     string
	Path     string
	Exists   bool
	Entries  int
	CachedAt time.Time
	Expired  bool
	Err      error
}

// Status reports the state of the cache files without refreshing them.
func (c *Cache) Status() []FileStatus {
	now := c.clock.Now()
	out := make([]FileStatus, 0, 2)
	for _, name := range []string{LeaguesFile, SportsFile} {
		status := FileStatus{Name: name, Path: filepath.Join(c.dir, name)}
		disk, err := c.readDisk(name)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			status.Exists = true
			status.Err = err
		default:
			status.Exists = true
			status.Entries = len(disk.Entries)
			status.CachedAt = time.Unix(disk.CacheTime, 0)
			status.Expired = now.Sub(status.CachedAt) >= c.diskTTL
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Cache) leaguesKind() kind {
	return kind{file: LeaguesFile, fetch: c.fetchLeagues}
}

func (c *Cache) sportsKind() kind {
	return kind{file: SportsFile, fetch: c.fetchSports}
}

func (c *Cache) fetchLeagues(ctx context.Context) (map[string]string, error) {
	leagues, err := c.source.AllLeagues(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(leagues)*2)
	for _, league := range leagues {
		for _, name := range league.Names() {
			out[strings.ToLower(name)] = league.ID
		}
	}
	return out, nil
}

func (c *Cache) fetchSports(ctx context.Context) (map[string]string, error) {
	sports, err := c.source.AllSports(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(sports))
	for _, sport := range sports {
		out[sport.Name] = sport.Format
	}
	return out, nil
}

// load returns the map for k, refreshing it when the in-memory copy is older
// than the memory TTL. It never returns nil.
func (c *Cache) load(ctx context.Context, k kind) map[string]string {
	now := c.clock.Now()
	c.mu.RLock()
	current, ok := c.entries[k.file]
	c.mu.RUnlock()
	if ok && now.Sub(current.loadedAt) < c.memoryTTL {
		return current.data
	}

	v, _, _ := c.group.Do(k.file, func() (any, error) {
		return c.refresh(ctx, k, current.data), nil
	})
	data, _ := v.(map[string]string)
	if data == nil {
		return map[string]string{}
	}
	return data
}

// refresh rereads the disk file, falling back to the remote catalog when the
// file is missing, corrupt or older than the disk TTL. stale is served when
// the remote fetch fails.
func (c *Cache) refresh(ctx context.Context, k kind, stale map[string]string) map[string]string {
	logger := logging.WithContext(ctx, c.logger)
	now := c.clock.Now()

	disk, err := c.readDisk(k.file)
	switch {
	case err == nil && now.Sub(time.Unix(disk.CacheTime, 0)) < c.diskTTL:
		logger.Debug("catalog cache loaded from disk", logging.String("cache_file", k.file), logging.Int("entries", len(disk.Entries)))
		c.store(k.file, disk.Entries, now)
		return disk.Entries
	case err == nil:
		stale = disk.Entries
	case errors.Is(err, os.ErrNotExist):
	default:
		logging.WarnWithContext(logger, "discarding unreadable catalog cache", "catalog_cache_corrupt",
			logging.String("cache_file", k.file),
			logging.Error(err),
			logging.String(logging.FieldImpact, "cache will be rebuilt from the catalog"),
		)
	}

	fresh, err := k.fetch(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "catalog cache refresh failed", "catalog_cache_refresh_failed",
			logging.String("cache_file", k.file),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the catalog api key and connectivity"),
			logging.String(logging.FieldImpact, "lookups use the previous cache contents"),
		)
		return stale
	}
	if err := c.writeDisk(ctx, k.file, diskEntry{CacheTime: now.Unix(), Entries: fresh}); err != nil {
		logging.WarnWithContext(logger, "catalog cache write failed", "catalog_cache_write_failed",
			logging.String("cache_file", k.file),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on paths.cache_dir"),
			logging.String(logging.FieldImpact, "the next run refetches from the catalog"),
		)
	}
	c.store(k.file, fresh, now)
	logger.Info("catalog cache refreshed", logging.String("cache_file", k.file), logging.Int("entries", len(fresh)))
	return fresh
}

func (c *Cache) store(file string, data map[string]string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[file] = entry{data: data, loadedAt: at}
}

func (c *Cache) readDisk(file string) (diskEntry, error) {
	unlock, err := c.acquire(context.Background(), true)
	if err != nil {
		return diskEntry{}, err
	}
	defer unlock()

	raw, err := afero.ReadFile(c.fs, filepath.Join(c.dir, file))
	if err != nil {
		return diskEntry{}, err
	}
	var disk diskEntry
	if err := json.Unmarshal(raw, &disk); err != nil {
		return diskEntry{}, fmt.Errorf("decode %s: %w", file, err)
	}
	if disk.Entries == nil {
		return diskEntry{}, fmt.Errorf("decode %s: no entries", file)
	}
	return disk, nil
}

func (c *Cache) writeDisk(ctx context.Context, file string, disk diskEntry) error {
	raw, err := json.Marshal(disk)
	if err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}
	unlock, err := c.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()
	return fileutil.WriteFileAtomic(c.fs, filepath.Join(c.dir, file), raw, 0o644)
}

// acquire takes the cross-process file lock, shared for reads.
func (c *Cache) acquire(ctx context.Context, shared bool) (func(), error) {
	c.diskMu.Lock()
	if c.lock == nil {
		return c.diskMu.Unlock, nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.diskMu.Unlock()
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = c.lock.TryRLockContext(ctx, lockRetry)
	} else {
		ok, err = c.lock.TryLockContext(ctx, lockRetry)
	}
	if err != nil || !ok {
		c.diskMu.Unlock()
		if err == nil {
			err = errors.New("not acquired")
		}
		return nil, fmt.Errorf("lock catalog cache: %w", err)
	}
	return func() {
		_ = c.lock.Unlock()
		c.diskMu.Unlock()
	}, nil
}
