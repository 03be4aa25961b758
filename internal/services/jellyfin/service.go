package jellyfin

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/spf13/afero"

	"jellysports/internal/config"
	"jellysports/internal/fileutil"
	"jellysports/internal/logging"
	"jellysports/internal/services"
)

const (
	defaultRefreshRetries = 2
	defaultRetryDelay     = 2 * time.Second
	// Episodes show up later than their series on a fresh scan.
	episodeRetryFactor = 5
)

var errNotVisible = errors.New("item not visible yet")

// Update is the metadata pushed for one file.
type Update struct {
	// Show is the series name; BackupShow is tried when the server knows
	// the series under another name.
	Show       string
	BackupShow string
	Path       string
	Season     int
	Episode    int
	Title      string
	SeasonName string
	// SeasonPoster is a local image uploaded as the season primary image.
	SeasonPoster string
}

// Service defines the Jellyfin operations used by the processor and daemon.
type Service interface {
	Sync(ctx context.Context, update Update) error
	Libraries(ctx context.Context) ([]Library, error)
}

type noopService struct{}

func (noopService) Sync(context.Context, Update) error { return nil }

func (noopService) Libraries(context.Context) ([]Library, error) { return nil, nil }

// NewNoopService returns a Service that does nothing.
func NewNoopService() Service { return noopService{} }

// Option configures the HTTP service.
type Option func(*httpService)

// WithFS sets the filesystem posters are read from.
func WithFS(fs afero.Fs) Option {
	return func(s *httpService) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithRetry sets how many refresh rounds are spent waiting for an item and
// the pause between them.
func WithRetry(retries int, delay time.Duration) Option {
	return func(s *httpService) {
		if retries >= 0 {
			s.retries = retries
		}
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *httpService) {
		s.logger = logging.NewComponentLogger(logger, "jellyfin")
	}
}

type httpService struct {
	client  *Client
	fs      afero.Fs
	retries int
	delay   time.Duration
	logger  *slog.Logger
}

// NewConfiguredService returns the HTTP service when Jellyfin is enabled and
// configured, and a no-op service otherwise.
func NewConfiguredService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil || !cfg.Jellyfin.Enabled {
		return NewNoopService()
	}
	client, err := NewClient(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, nil)
	if err != nil {
		return NewNoopService()
	}
	return NewHTTPService(client,
		WithRetry(cfg.Jellyfin.RefreshRetries, time.Duration(cfg.Jellyfin.RetryDelaySeconds)*time.Second),
		WithLogger(logger),
	)
}

// NewHTTPService constructs an HTTP-backed Jellyfin service.
func NewHTTPService(client *Client, opts ...Option) Service {
	s := &httpService{
		client:  client,
		fs:      afero.NewOsFs(),
		retries: defaultRefreshRetries,
		delay:   defaultRetryDelay,
		logger:  logging.NewComponentLogger(nil, "jellyfin"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *httpService) Libraries(ctx context.Context) ([]Library, error) {
	return s.client.VirtualFolders(ctx)
}

// Sync walks the library, series, episode and season items of the file and
// corrects what the server scanned differently.
func (s *httpService) Sync(ctx context.Context, u Update) error {
	logger := logging.WithContext(ctx, s.logger)
	dir, filename := filepath.Split(u.Path)

	libraryID, err := s.findLibrary(ctx, filepath.Clean(dir))
	if err != nil {
		return err
	}
	if err := s.client.Refresh(ctx, libraryID); err != nil {
		return err
	}

	seriesID, err := s.findSeries(ctx, libraryID, u, filename)
	if err != nil {
		return err
	}
	logger.Debug("series found", logging.String("series_id", seriesID))

	var episode Item
	err = s.waitFor(ctx, s.retries*episodeRetryFactor, seriesID, func() error {
		found, ok, err := s.episodeByFile(ctx, seriesID, filename)
		if err != nil {
			return err
		}
		if !ok {
			return errNotVisible
		}
		episode = found
		return nil
	})
	if err != nil {
		return notFound("episode", filename, err)
	}

	episode, err = s.client.Item(ctx, episode.ID)
	if err != nil {
		return err
	}
	if intOr(episode.IndexNumber) != u.Episode || intOr(episode.ParentIndexNumber) != u.Season || episode.Name != u.Title {
		logger.Info("correcting episode numbering",
			logging.Args(append(logging.DecisionAttrs("jellyfin_episode", "updated", "numbering or name differ"),
				logging.Int("season", u.Season),
				logging.Int("episode", u.Episode),
				logging.String("title", u.Title))...)...)
		overrides := map[string]any{"IndexNumber": u.Episode, "ParentIndexNumber": u.Season, "Name": u.Title}
		if err := s.client.UpdateItem(ctx, episode, overrides); err != nil {
			return err
		}
		// New seasons only appear after the series is rescanned.
		if err := s.client.Refresh(ctx, seriesID); err != nil {
			return err
		}
	}

	seasonID, err := s.findSeason(ctx, seriesID, episode.ID, u.Season)
	if err != nil {
		return err
	}
	season, err := s.client.Item(ctx, seasonID)
	if err != nil {
		return err
	}
	if u.SeasonName != "" && season.Name != u.SeasonName {
		logger.Info("renaming season", logging.Int("season", u.Season), logging.String("name", u.SeasonName))
		if err := s.client.UpdateItem(ctx, season, map[string]any{"Name": u.SeasonName}); err != nil {
			return err
		}
	}

	if u.SeasonPoster != "" && fileutil.Exists(s.fs, u.SeasonPoster) {
		data, err := afero.ReadFile(s.fs, u.SeasonPoster)
		if err != nil {
			logging.WarnWithContext(logger, "season poster unreadable", "jellyfin_poster_read_failed",
				logging.String("path", u.SeasonPoster),
				logging.Error(err),
				logging.String(logging.FieldImpact, "season keeps its current image"),
			)
		} else if err := s.client.UploadPrimaryImage(ctx, seasonID, data); err != nil {
			logging.WarnWithContext(logger, "season poster upload failed", "jellyfin_poster_upload_failed",
				logging.String("path", u.SeasonPoster),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the api key may edit items"),
				logging.String(logging.FieldImpact, "season keeps its current image"),
			)
		}
	}

	return s.client.Refresh(ctx, seriesID)
}

// findLibrary picks the virtual folder whose location name is a component of
// dir, falling back to the last media folder.
func (s *httpService) findLibrary(ctx context.Context, dir string) (string, error) {
	folders, err := s.client.VirtualFolders(ctx)
	if err != nil {
		return "", err
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	for _, vf := range folders {
		for _, loc := range vf.Locations {
			base := filepath.Base(filepath.Clean(loc))
			for _, p := range parts {
				if p != "" && p == base {
					return vf.ItemID, nil
				}
			}
		}
	}
	media, err := s.client.MediaFolders(ctx)
	if err != nil {
		return "", err
	}
	if len(media) == 0 {
		return "", services.Wrap(services.ErrNotFound, "jellyfin", "find library", dir, nil)
	}
	return media[len(media)-1].ID, nil
}

func (s *httpService) findSeries(ctx context.Context, libraryID string, u Update, filename string) (string, error) {
	if id, err := s.seriesByName(ctx, u.Show); err != nil || id != "" {
		return id, err
	}

	// The series may be known under another name; its episodes still carry
	// the file name.
	episodes, err := s.client.Items(ctx, url.Values{
		"ParentId":         {libraryID},
		"Recursive":        {"true"},
		"IncludeItemTypes": {"Episode"},
		"Fields":           {"Path"},
	})
	if err != nil {
		return "", err
	}
	for _, ep := range episodes {
		if filepath.Base(ep.Path) == filename && ep.SeriesID != "" {
			return ep.SeriesID, nil
		}
	}

	for _, name := range []string{u.Show, u.BackupShow} {
		if name == "" {
			continue
		}
		var id string
		err := s.waitFor(ctx, s.retries, libraryID, func() error {
			found, err := s.seriesByName(ctx, name)
			if err != nil {
				return err
			}
			if found == "" {
				return errNotVisible
			}
			id = found
			return nil
		})
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, errNotVisible) {
			return "", err
		}
	}
	return "", notFound("series", u.Show, errNotVisible)
}

func (s *httpService) seriesByName(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	series, err := s.client.Items(ctx, url.Values{"Recursive": {"true"}, "IncludeItemTypes": {"Series"}})
	if err != nil {
		return "", err
	}
	for _, item := range series {
		if item.Name == name {
			return item.ID, nil
		}
	}
	return "", nil
}

func (s *httpService) episodeByFile(ctx context.Context, seriesID, filename string) (Item, bool, error) {
	episodes, err := s.client.Items(ctx, url.Values{
		"ParentId":         {seriesID},
		"Recursive":        {"true"},
		"IncludeItemTypes": {"Episode"},
		"Fields":           {"Path"},
	})
	if err != nil {
		return Item{}, false, err
	}
	for _, ep := range episodes {
		if filepath.Base(ep.Path) == filename {
			return ep, true, nil
		}
	}
	return Item{}, false, nil
}

func (s *httpService) findSeason(ctx context.Context, seriesID, episodeID string, number int) (string, error) {
	var seasonID string
	err := s.waitFor(ctx, s.retries, seriesID, func() error {
		seasons, err := s.client.Items(ctx, url.Values{"ParentId": {seriesID}, "IncludeItemTypes": {"Season"}})
		if err != nil {
			return err
		}
		for _, season := range seasons {
			if season.IndexNumber != nil && *season.IndexNumber == number {
				seasonID = season.ID
				return nil
			}
		}
		return errNotVisible
	})
	if err == nil {
		return seasonID, nil
	}
	if !errors.Is(err, errNotVisible) {
		return "", err
	}

	// The updated episode already points at its season.
	episode, err := s.client.Item(ctx, episodeID)
	if err != nil {
		return "", err
	}
	if episode.ParentID != "" {
		parent, err := s.client.Item(ctx, episode.ParentID)
		if err != nil {
			return "", err
		}
		if parent.IndexNumber != nil && *parent.IndexNumber == number {
			return parent.ID, nil
		}
	}
	return "", notFound("season", seriesID, errNotVisible)
}

// waitFor runs check up to rounds+1 times, refreshing refreshID before each
// retry while the item is not visible.
func (s *httpService) waitFor(ctx context.Context, rounds int, refreshID string, check func() error) error {
	return retry.Do(check,
		retry.Context(ctx),
		retry.Attempts(uint(rounds)+1),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errNotVisible) }),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(s.delay),
		retry.OnRetry(func(n uint, _ error) {
			s.logger.Debug("item not visible, refreshing", logging.String("refresh_id", refreshID), logging.Int("attempt", int(n)+1))
			_ = s.client.Refresh(ctx, refreshID)
		}),
	)
}

func notFound(kind, name string, err error) error {
	return services.Wrap(services.ErrNotFound, "jellyfin", "find "+kind, name, err)
}

func intOr(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
