package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"jellysports/internal/logging"
	"jellysports/internal/session"
	"jellysports/internal/sportsdb"
)

var eventAtVenue = regexp.MustCompile(`(?i)^(?P<event>.*) (?:@|at) (?P<venue>.*)$`)

// bareRace matches "race" as a whole word.
var bareRace = regexp.MustCompile(`(^|[^a-z])race([^a-z]|$)`)

// IsMainEvent reports whether a catalog event name looks like the main
// event of a meeting rather than a support session.
func IsMainEvent(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range []string{"main", "feature", "grand prix", "final"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return bareRace.MatchString(lower)
}

// wantsMainEvent reports whether the file's session is the main race.
func wantsMainEvent(s session.Info) bool {
	if s.Kind != session.KindRace {
		return false
	}
	name := strings.ToLower(s.Name)
	for _, word := range []string{"race", "feature", "main"} {
		if strings.Contains(name, word) {
			return true
		}
	}
	return false
}

func splitVenue(text string) (name, venue string) {
	if m := eventAtVenue.FindStringSubmatch(text); m != nil {
		return m[eventAtVenue.SubexpIndex("event")], strings.TrimSpace(m[eventAtVenue.SubexpIndex("venue")])
	}
	return text, ""
}

func (r *Resolver) singleEvent(ctx context.Context, logger *slog.Logger, leagueID string, req Request) (sportsdb.Event, bool, string) {
	text := eventText(req)
	name, venue := splitVenue(text)
	name = strings.ToLower(name)
	logger.Debug("event parsed", logging.String("event", name), logging.String("venue", venue))

	ep := req.Episode
	seasons, events, ok := r.seasonEvents(ctx, logger, leagueID, ep.Year, false)
	if !ok {
		return sportsdb.Event{}, false, ""
	}
	inSeason := func(e sportsdb.Event) bool {
		return ep.Week != 0 && ep.Week == int(e.Round) &&
			(len(seasons) > 0 || (len(e.Date) >= 4 && e.Date[:4] == ep.Year))
	}

	// Exact pass: round, season and venue all agree.
	var exact []sportsdb.Event
	for _, e := range events {
		if !inSeason(e) {
			continue
		}
		atVenue := text != "" && strings.Contains(e.Venue, text)
		if venue != "" && strings.Contains(strings.ToLower(e.Venue), strings.ToLower(venue)) {
			atVenue = true
		}
		if atVenue {
			exact = append(exact, e)
		}
	}
	if len(exact) == 1 {
		event, ok := r.lookup(ctx, logger, exact[0].ID)
		return event, ok, "round_and_venue"
	}

	// Scored pass.
	mainRace := wantsMainEvent(req.Session)
	var (
		best     sportsdb.Event
		topScore float64
		tied     bool
	)
	for _, e := range events {
		score := r.score(name, strings.ReplaceAll(e.Name, ".", " "))
		if mainRace && IsMainEvent(e.Name) && score < mainEventScore {
			score = mainEventScore
		}
		switch {
		case score > topScore:
			best, topScore, tied = e, score, false
		case score == topScore && score > 0:
			tied = true
		}
	}
	if topScore > r.threshold && !tied {
		logger.Info("fuzzy event winner",
			logging.Args(append(logging.DecisionAttrs("single_event", "matched", "fuzzy name score"),
				logging.String("event_id", best.ID),
				logging.Float64("score", topScore))...)...)
		event, ok := r.lookup(ctx, logger, best.ID)
		return event, ok, "fuzzy_name"
	}
	logger.Debug("fuzzy pass inconclusive", logging.Float64("score", topScore), logging.Bool("tied", tied))

	// Last resort without a venue: the round alone.
	if venue == "" && ep.Week != 0 {
		var byRound []sportsdb.Event
		for _, e := range events {
			if inSeason(e) {
				byRound = append(byRound, e)
			}
		}
		if len(byRound) == 1 {
			event, ok := r.lookup(ctx, logger, byRound[0].ID)
			return event, ok, "round_only"
		}
	}
	logger.Info("no catalog match",
		logging.Args(append(logging.DecisionAttrs("single_event", "no_match", "no unique event above threshold"),
			logging.Float64("score", topScore))...)...)
	return sportsdb.Event{}, false, ""
}
