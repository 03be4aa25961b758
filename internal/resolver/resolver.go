package resolver

import (
	"context"
	"log/slog"
	"strings"

	"jellysports/internal/episode"
	"jellysports/internal/fuzzy"
	"jellysports/internal/logging"
	"jellysports/internal/services"
	"jellysports/internal/session"
	"jellysports/internal/sportsdb"
)

// Catalog is the remote lookup surface the resolver needs.
type Catalog interface {
	LookupEvent(ctx context.Context, id string) (sportsdb.Event, error)
	LookupLeague(ctx context.Context, id string) (sportsdb.League, error)
	ListSeasons(ctx context.Context, leagueID string) ([]sportsdb.Season, error)
	FilterEvents(ctx context.Context, leagueID, season string) ([]sportsdb.Event, error)
	ScheduleEvents(ctx context.Context, leagueID, season string) ([]sportsdb.Event, error)
}

// Leagues resolves show names and sport formats, usually from a cache.
type Leagues interface {
	LeagueID(ctx context.Context, showName string) (string, bool)
	SportFormat(ctx context.Context, sport string) (string, bool)
}

// Scorer compares the parsed event name with a catalog event name.
type Scorer func(a, b string) float64

// Request carries everything known about one file.
type Request struct {
	// EventID is an operator supplied catalog event id; it wins outright.
	EventID  string
	LeagueID string
	Episode  episode.Info
	Session  session.Info
	// AirDate is the best known air date as YYYY-MM-DD.
	AirDate string
}

// Result is a matched event with its league.
type Result struct {
	League sportsdb.League
	Event  sportsdb.Event
	// Strategy names the step that produced the match.
	Strategy string
}

// Resolver disambiguates catalog events.
type Resolver struct {
	catalog   Catalog
	leagues   Leagues
	score     Scorer
	threshold float64
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithScorer replaces the fuzzy name comparison.
func WithScorer(score Scorer) Option {
	return func(r *Resolver) {
		if score != nil {
			r.score = score
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "resolver")
	}
}

// FuzzyThreshold is the score a single-event name match must exceed.
const FuzzyThreshold = 0.8

// mainEventScore is the score given to a main event when the file is a race.
const mainEventScore = 0.90

// New builds a Resolver.
func New(catalog Catalog, leagues Leagues, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:   catalog,
		leagues:   leagues,
		score:     fuzzy.Similarity,
		threshold: FuzzyThreshold,
		logger:    logging.NewComponentLogger(nil, "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the single catalog event req describes, if there is one.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, bool) {
	ctx = services.WithStage(ctx, "resolve")
	logger := logging.WithContext(ctx, r.logger)

	if id := strings.TrimSpace(req.EventID); id != "" {
		return r.byEventID(ctx, logger, id)
	}

	leagueID := strings.TrimSpace(req.LeagueID)
	if leagueID == "" && req.Episode.Show != "" {
		logger.Debug("league id missing, retrying with episode show", logging.String("show", req.Episode.Show))
		leagueID, _ = r.leagues.LeagueID(ctx, req.Episode.Show)
	}
	if leagueID == "" {
		logger.Info("no catalog match",
			logging.Args(logging.DecisionAttrs("catalog_match", "no_match", "league not found")...)...)
		return Result{}, false
	}

	league, err := r.catalog.LookupLeague(ctx, leagueID)
	if err != nil {
		r.fetchFailed(logger, "league lookup failed", err, logging.String("league_id", leagueID))
		return Result{}, false
	}
	format, ok := r.leagues.SportFormat(ctx, league.Sport)
	if !ok {
		logger.Info("no catalog match",
			logging.Args(append(logging.DecisionAttrs("catalog_match", "no_match", "sport format unknown"),
				logging.String("sport", league.Sport))...)...)
		return Result{}, false
	}

	var (
		event    sportsdb.Event
		matched  bool
		strategy string
	)
	switch format {
	case sportsdb.FormatTeamVsTeam:
		strategy = "team_game"
		event, matched = r.teamGame(ctx, logger, leagueID, req)
	case sportsdb.FormatEvent:
		event, matched, strategy = r.singleEvent(ctx, logger, leagueID, req)
	default:
		logger.Info("no catalog match",
			logging.Args(append(logging.DecisionAttrs("catalog_match", "no_match", "unsupported sport format"),
				logging.String("format", format))...)...)
		return Result{}, false
	}
	if !matched {
		return Result{}, false
	}
	logger.Info("catalog event matched",
		logging.Args(append(logging.DecisionAttrs("catalog_match", "matched", strategy),
			logging.String("event_id", event.ID),
			logging.String("title", event.Name),
			logging.String("league_id", leagueID))...)...)
	return Result{League: league, Event: event, Strategy: strategy}, true
}

func (r *Resolver) byEventID(ctx context.Context, logger *slog.Logger, id string) (Result, bool) {
	event, err := r.catalog.LookupEvent(ctx, id)
	if err != nil {
		r.fetchFailed(logger, "event lookup failed", err, logging.String("event_id", id))
		return Result{}, false
	}
	league, err := r.catalog.LookupLeague(ctx, event.LeagueID)
	if err != nil {
		r.fetchFailed(logger, "league lookup failed", err, logging.String("league_id", event.LeagueID))
		return Result{}, false
	}
	logger.Info("catalog event taken from sidecar",
		logging.Args(append(logging.DecisionAttrs("catalog_match", "matched", "explicit event id"),
			logging.String("event_id", id))...)...)
	return Result{League: league, Event: event, Strategy: "event_id"}, true
}

// eventText is the event description with any session marker removed.
func eventText(req Request) string {
	if req.Session.EventName != "" {
		return req.Session.EventName
	}
	return req.Episode.Event
}

// seasonEvents lists the seasons of a league whose name contains year and
// gathers their events. filter selects the team-game endpoint.
func (r *Resolver) seasonEvents(ctx context.Context, logger *slog.Logger, leagueID, year string, filter bool) ([]string, []sportsdb.Event, bool) {
	year = strings.TrimSpace(year)
	if year == "" {
		logger.Info("no catalog match",
			logging.Args(logging.DecisionAttrs("catalog_match", "no_match", "no year to select a season")...)...)
		return nil, nil, false
	}
	seasons, err := r.catalog.ListSeasons(ctx, leagueID)
	if err != nil {
		r.fetchFailed(logger, "season list failed", err, logging.String("league_id", leagueID))
		return nil, nil, false
	}
	var (
		names  []string
		events []sportsdb.Event
	)
	for _, season := range seasons {
		if !strings.Contains(season.Name, year) {
			continue
		}
		names = append(names, season.Name)
		var batch []sportsdb.Event
		if filter {
			batch, err = r.catalog.FilterEvents(ctx, leagueID, season.Name)
		} else {
			batch, err = r.catalog.ScheduleEvents(ctx, leagueID, season.Name)
		}
		if err != nil {
			r.fetchFailed(logger, "season events failed", err,
				logging.String("league_id", leagueID),
				logging.String("season", season.Name))
			continue
		}
		events = append(events, batch...)
	}
	logger.Debug("season events loaded",
		logging.String("league_id", leagueID),
		logging.Int("seasons", len(names)),
		logging.Int("events", len(events)))
	return names, events, true
}

func (r *Resolver) fetchFailed(logger *slog.Logger, msg string, err error, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check catalog connectivity and the api key"),
		logging.String(logging.FieldImpact, "file is treated as unmatched"),
	)
	logging.WarnWithContext(logger, msg, "catalog_fetch_failed", attrs...)
}
