package processor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"jellysports/internal/artwork"
	"jellysports/internal/episode"
	"jellysports/internal/logging"
	"jellysports/internal/normalize"
	"jellysports/internal/resolver"
	"jellysports/internal/services"
	"jellysports/internal/services/jellyfin"
	"jellysports/internal/session"
	"jellysports/internal/sidecar"
)

// Resolver finds the catalog event of a request.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) (resolver.Result, bool)
}

// Leagues maps show names to league ids.
type Leagues interface {
	LeagueID(ctx context.Context, show string) (string, bool)
}

// ArtworkSink fetches missing artwork.
type ArtworkSink interface {
	Apply(ctx context.Context, plan, sources artwork.Set) (artwork.Set, int)
}

// Processor runs the per-file pipeline. It is safe for concurrent use when
// its collaborators are.
type Processor struct {
	fs         afero.Fs
	normalizer *normalize.Normalizer
	resolver   Resolver
	leagues    Leagues
	art        ArtworkSink
	media      jellyfin.Service
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithFS sets the filesystem sidecars and artwork live on.
func WithFS(fs afero.Fs) Option {
	return func(p *Processor) {
		if fs != nil {
			p.fs = fs
		}
	}
}

// WithNormalizer replaces the default file-name normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Processor) {
		if n != nil {
			p.normalizer = n
		}
	}
}

// WithArtwork sets the artwork sink. Without one no artwork is fetched.
func WithArtwork(sink ArtworkSink) Option {
	return func(p *Processor) { p.art = sink }
}

// WithMediaServer sets the media-server sink.
func WithMediaServer(svc jellyfin.Service) Option {
	return func(p *Processor) {
		if svc != nil {
			p.media = svc
		}
	}
}

// WithLogger sets the processor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logging.NewComponentLogger(logger, "processor")
	}
}

// New builds a processor. A nil resolver or leagues disables catalog matching.
func New(res Resolver, leagues Leagues, opts ...Option) *Processor {
	p := &Processor{
		fs:         afero.NewOsFs(),
		normalizer: normalize.New(),
		resolver:   res,
		leagues:    leagues,
		media:      jellyfin.NewNoopService(),
		logger:     logging.NewComponentLogger(nil, "processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Derive reads a file name without touching the filesystem or the catalog.
func (p *Processor) Derive(path string) Derived {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	title := p.normalizer.Normalize(name)
	ep := episode.Extract(title.Clean)
	var sess session.Info
	if ep.Matched() {
		sess = session.Extract(ep)
	}
	return Derived{Name: name, Title: title, Episode: ep, Session: sess}
}

// Process resolves the file at path, found depth folders below its library
// root, and hands the record to the sinks. A record missing its show, title
// or episode number is returned with an ErrRejected error and reaches no
// sink. Sink failures are logged and do not fail the file.
func (p *Processor) Process(ctx context.Context, path string, depth int) (Record, error) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithFile(ctx, path)
	ctx = services.WithDepth(ctx, depth)
	ctx = services.WithStage(ctx, "process")
	logger := logging.WithContext(ctx, p.logger)

	d := p.Derive(path)
	logger.Debug("file name parsed",
		logging.Args(append(logging.DecisionAttrs("episode_pattern", string(d.Episode.Kind), "first matching pattern"),
			logging.String("clean", d.Title.Clean),
			logging.Bool("reversed", d.Title.Reversed),
			logging.String("session", string(d.Session.Kind)),
			logging.Int("episode_number", d.Session.Number))...)...)

	rec := fromName(d)
	rec.Path, rec.Depth = path, depth

	meta, err := sidecar.ReadMetadata(p.fs, path)
	if err != nil {
		logging.WarnWithContext(logger, "sidecar metadata unreadable", "sidecar_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or remove the episode nfo"),
			logging.String(logging.FieldImpact, "file name values are used instead"),
		)
		meta = sidecar.Metadata{}
	}
	overlaySidecar(&rec, meta)

	eventID, _, err := sidecar.ReadEventID(p.fs, path)
	if err != nil {
		logging.WarnWithContext(logger, "event id sidecar unreadable", "sidecar_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "event is searched for instead"),
		)
	}

	result, matched := p.resolve(ctx, rec, d, eventID)
	if matched {
		overlayCatalog(&rec, result.League, result.Event, d.Session)
		overlaySidecar(&rec, meta)
		rec.Strategy = result.Strategy
	}
	rec.SeasonName = seasonName(rec.Season, rec.EventName, rec.Venue)

	if missing := rec.missing(); len(missing) > 0 {
		logger.Info("record rejected",
			logging.Args(append(logging.DecisionAttrs("record", "rejected", "required fields empty"),
				logging.String("missing", strings.Join(missing, ",")))...)...)
		return rec, services.Wrap(services.ErrRejected, "process", "validate record", "missing "+strings.Join(missing, ", "), nil)
	}

	plan := artwork.Plan(p.fs, path, depth, rec.Season)
	if matched && p.art != nil {
		rec.Artwork, _ = p.art.Apply(services.WithStage(ctx, "artwork"), plan, artwork.Set{
			ShowPoster:   result.League.Poster,
			SeasonPoster: result.Event.Poster,
			SeasonBanner: result.Event.Banner,
			SeasonSquare: result.Event.Square,
			Thumb:        result.Event.Thumb,
		})
	} else {
		rec.Artwork = artwork.Present(p.fs, plan)
	}

	p.writeNFO(services.WithStage(ctx, "nfo"), rec, result, matched)

	if err := p.media.Sync(services.WithStage(ctx, "jellyfin"), jellyfin.Update{
		Show:         rec.Show,
		BackupShow:   meta.Show,
		Path:         path,
		Season:       rec.Season,
		Episode:      rec.Episode,
		Title:        rec.Title,
		SeasonName:   rec.SeasonName,
		SeasonPoster: rec.Artwork.SeasonPoster,
	}); err != nil {
		logging.WarnWithContext(logger, "media server update failed", "jellyfin_sync_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the jellyfin url, api key and library paths"),
			logging.String(logging.FieldImpact, "jellyfin keeps its own reading of this file"),
		)
	}

	logger.Info("file processed",
		logging.String("show", rec.Show),
		logging.Int("season", rec.Season),
		logging.Int("episode", rec.Episode),
		logging.String("title", rec.Title),
		logging.Bool("catalog_match", matched),
	)
	return rec, nil
}

func (p *Processor) resolve(ctx context.Context, rec Record, d Derived, eventID string) (resolver.Result, bool) {
	if p.resolver == nil {
		return resolver.Result{}, false
	}
	req := resolver.Request{
		EventID: eventID,
		Episode: d.Episode,
		Session: d.Session,
		AirDate: rec.AirDate,
	}
	if eventID == "" && rec.Show != "" && p.leagues != nil {
		req.LeagueID, _ = p.leagues.LeagueID(ctx, rec.Show)
	}
	return p.resolver.Resolve(ctx, req)
}

func (p *Processor) writeNFO(ctx context.Context, rec Record, result resolver.Result, matched bool) {
	logger := logging.WithContext(ctx, p.logger)
	show := sidecar.ShowInfo{
		Title:        rec.Show,
		Season:       rec.Season,
		SeasonName:   rec.SeasonName,
		SeasonPoster: rec.Artwork.SeasonPoster,
		ShowPoster:   rec.Artwork.ShowPoster,
	}
	ep := sidecar.EpisodeInfo{
		Title:   rec.Title,
		Aired:   rec.AirDate,
		Season:  rec.Season,
		Episode: rec.Episode,
		Thumb:   rec.Artwork.Thumb,
	}
	if matched {
		show.Description = result.League.Description
		show.LeagueID = result.League.ID
		show.Sport = result.League.Sport
		ep.Description = result.Event.Description
		ep.EventID = result.Event.ID
	}

	showPath := sidecar.ShowNFOPath(p.fs, rec.Path, rec.Depth)
	if changed, err := sidecar.WriteShow(p.fs, showPath, show); err != nil {
		p.nfoFailed(logger, showPath, err)
	} else if changed {
		logger.Debug("show nfo written", logging.String("path", showPath))
	}
	episodePath := sidecar.EpisodeNFOPath(rec.Path)
	if changed, err := sidecar.WriteEpisode(p.fs, episodePath, ep); err != nil {
		p.nfoFailed(logger, episodePath, err)
	} else if changed {
		logger.Debug("episode nfo written", logging.String("path", episodePath))
	}
}

func (p *Processor) nfoFailed(logger *slog.Logger, path string, err error) {
	logging.WarnWithContext(logger, "nfo write failed", "nfo_write_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check folder permissions"),
		logging.String(logging.FieldImpact, "media server falls back to its own scan"),
	)
}
