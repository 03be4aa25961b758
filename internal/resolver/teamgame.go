package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"jellysports/internal/logging"
	"jellysports/internal/sportsdb"
	"jellysports/internal/textutil"
)

var (
	homeVsAway = regexp.MustCompile(`(?i)^(?P<home>.*) vs (?P<away>.*)$`)
	awayAtHome = regexp.MustCompile(`(?i)^(?P<away>.*) (?:@|at) (?P<home>.*)$`)
)

// Round thresholds of the catalog convention.
const (
	playoffRound   = 100
	preseasonRound = 500
)

// parseTeams reads home and away team keys from "home vs away" or
// "away at home".
func parseTeams(text string) (home, away string, ok bool) {
	for _, rx := range []*regexp.Regexp{homeVsAway, awayAtHome} {
		m := rx.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		home = textutil.TeamKey(m[rx.SubexpIndex("home")])
		away = textutil.TeamKey(m[rx.SubexpIndex("away")])
		return home, away, home != "" && away != ""
	}
	return "", "", false
}

// sameTeam accepts containment in either direction.
func sameTeam(parsed, catalog string) bool {
	if catalog == "" {
		return false
	}
	return strings.Contains(catalog, parsed) || strings.Contains(parsed, catalog)
}

type tieBreak struct {
	name string
	keep func(sportsdb.Event) bool
}

func (r *Resolver) teamGame(ctx context.Context, logger *slog.Logger, leagueID string, req Request) (sportsdb.Event, bool) {
	home, away, ok := parseTeams(eventText(req))
	if !ok {
		logger.Info("no catalog match",
			logging.Args(append(logging.DecisionAttrs("team_game", "no_match", "teams not found in event text"),
				logging.String("event", eventText(req)))...)...)
		return sportsdb.Event{}, false
	}
	logger.Debug("teams parsed", logging.String("home", home), logging.String("away", away))

	_, events, ok := r.seasonEvents(ctx, logger, leagueID, req.Episode.Year, true)
	if !ok {
		return sportsdb.Event{}, false
	}

	var matches []sportsdb.Event
	for _, event := range events {
		if sameTeam(home, textutil.TeamKey(event.HomeTeam)) && sameTeam(away, textutil.TeamKey(event.AwayTeam)) {
			matches = append(matches, event)
		}
	}

	switch len(matches) {
	case 0:
		logger.Info("no catalog match",
			logging.Args(append(logging.DecisionAttrs("team_game", "no_match", "no event with both teams"),
				logging.String("home", home),
				logging.String("away", away))...)...)
		return sportsdb.Event{}, false
	case 1:
		return r.lookup(ctx, logger, matches[0].ID)
	}

	// Several games between the same teams: work with full records.
	candidates := make([]sportsdb.Event, 0, len(matches))
	for _, match := range matches {
		full, err := r.catalog.LookupEvent(ctx, match.ID)
		if err != nil {
			r.fetchFailed(logger, "event lookup failed", err, logging.String("event_id", match.ID))
			continue
		}
		candidates = append(candidates, full)
	}
	highest := 0
	for _, c := range candidates {
		if round := int(c.Round); round < playoffRound && round > highest {
			highest = round
		}
	}

	ep := req.Episode
	breaks := []tieBreak{
		{"air_date", func(e sportsdb.Event) bool { return req.AirDate != "" && e.Date == req.AirDate }},
		{"preseason", func(e sportsdb.Event) bool { return ep.Preseason && int(e.Round) >= preseasonRound }},
		{"playoff", func(e sportsdb.Event) bool { return ep.Week > highest && int(e.Round) > playoffRound }},
		{"week", func(e sportsdb.Event) bool { return ep.Week == int(e.Round) }},
	}
	event, reason, ok := narrow(candidates, breaks)
	if !ok {
		logger.Info("no catalog match",
			logging.Args(append(logging.DecisionAttrs("team_game", "no_match", "ambiguous after tie-breaks"),
				logging.Int("candidates", len(candidates)))...)...)
		return sportsdb.Event{}, false
	}
	logger.Info("team game tie-break applied",
		logging.Args(append(logging.DecisionAttrs("team_game", "matched", reason),
			logging.String("event_id", event.ID))...)...)
	return event, true
}

// narrow applies each tie-break in order. A filter that leaves one event
// decides; one that leaves several narrows the set; one that leaves none is
// skipped.
func narrow(candidates []sportsdb.Event, breaks []tieBreak) (sportsdb.Event, string, bool) {
	if len(candidates) == 1 {
		return candidates[0], "single candidate", true
	}
	for _, tb := range breaks {
		var kept []sportsdb.Event
		for _, c := range candidates {
			if tb.keep(c) {
				kept = append(kept, c)
			}
		}
		switch len(kept) {
		case 0:
			continue
		case 1:
			return kept[0], tb.name, true
		default:
			candidates = kept
		}
	}
	return sportsdb.Event{}, "", false
}

func (r *Resolver) lookup(ctx context.Context, logger *slog.Logger, id string) (sportsdb.Event, bool) {
	event, err := r.catalog.LookupEvent(ctx, id)
	if err != nil {
		r.fetchFailed(logger, "event lookup failed", err, logging.String("event_id", id))
		return sportsdb.Event{}, false
	}
	return event, true
}
