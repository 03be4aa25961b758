package processor

import (
	"fmt"
	"strconv"
	"strings"

	"jellysports/internal/artwork"
	"jellysports/internal/episode"
	"jellysports/internal/normalize"
	"jellysports/internal/session"
	"jellysports/internal/sidecar"
	"jellysports/internal/sportsdb"
)

// nonChampionship names season 0.
const nonChampionship = "Non-Championship"

// Derived is everything read from a file name alone.
type Derived struct {
	Name    string
	Title   normalize.Title
	Episode episode.Info
	Session session.Info
}

// Record is the resolved metadata of one file.
type Record struct {
	Path  string
	Depth int

	Show    string
	Season  int
	Episode int
	Title   string
	Year    string
	AirDate string

	SeasonName string
	// EventName is the event text without its session marker.
	EventName string
	Venue     string

	LeagueID string
	EventID  string
	// Strategy names how the catalog event was found; empty when it was not.
	Strategy string

	Artwork artwork.Set
}

// Matched reports whether a catalog event was found.
func (r Record) Matched() bool {
	return r.Strategy != ""
}

func (r Record) missing() []string {
	var fields []string
	if r.Show == "" {
		fields = append(fields, "show")
	}
	if r.Title == "" {
		fields = append(fields, "title")
	}
	if r.Episode == 0 {
		fields = append(fields, "episode")
	}
	return fields
}

// fromName builds the record a file name alone supports.
func fromName(d Derived) Record {
	ep, sess := d.Episode, d.Session
	rec := Record{
		Title:     strings.TrimSpace(ep.Event),
		EventName: strings.TrimSpace(ep.Event),
		Episode:   ep.Number,
		Year:      ep.Year,
		AirDate:   ep.AirDate,
	}
	if !ep.Matched() {
		return rec
	}

	suffix := ep.Year
	if suffix == "" {
		suffix = strconv.Itoa(ep.Season)
	}
	rec.Show = ep.Show + " (" + suffix + ")"
	switch {
	case ep.Week == episode.WeekNotApplicable:
		rec.Season = ep.Season
	case !ep.Preseason:
		rec.Season = ep.Week
	}

	if sess.Label != "" {
		rec.EventName = strings.TrimSpace(sess.EventName)
		rec.Title = joinTitle(rec.EventName, sess.Label)
		if ep.Week != 0 && ep.Week != episode.WeekNotApplicable {
			rec.Title = strconv.Itoa(ep.Week) + ": " + rec.Title
		}
		if ep.Preseason {
			rec.Title = "Preseason " + rec.Title
		}
	}
	if sess.Number != 0 {
		rec.Episode = sess.Number
	}
	return rec
}

// overlaySidecar copies every field the operator supplied.
func overlaySidecar(rec *Record, meta sidecar.Metadata) {
	if meta.Show != "" {
		rec.Show = meta.Show
	}
	if meta.HasSeason {
		rec.Season = meta.Season
	}
	if meta.HasEpisode {
		rec.Episode = meta.Episode
	}
	if meta.Title != "" {
		rec.Title = meta.Title
	}
	if meta.AirDate != "" {
		rec.AirDate = meta.AirDate
	}
}

// overlayCatalog applies the matched event. Callers re-apply the sidecar
// afterwards.
func overlayCatalog(rec *Record, league sportsdb.League, event sportsdb.Event, sess session.Info) {
	rec.LeagueID = league.ID
	rec.EventID = event.ID
	if event.League != "" {
		rec.Show = fmt.Sprintf("%s (%s)", event.League, event.Season)
	}
	if name := strings.TrimSpace(event.Name); name != "" {
		if session.HasSession(name) {
			name = session.RemoveSession(name)
		}
		rec.EventName = name
		rec.Title = joinTitle(name, sess.Label)
	}
	if event.Venue != "" {
		rec.Venue = event.Venue
	}
	if event.Date != "" {
		rec.AirDate = event.Date
	}
	if rec.Year == "" {
		rec.Year = event.Season
	}
}

func joinTitle(event, label string) string {
	switch {
	case label == "":
		return event
	case event == "":
		return label
	}
	return event + " - " + label
}

// seasonName is the display name of the record's season.
func seasonName(season int, event, venue string) string {
	switch {
	case season == 0:
		return nonChampionship
	case venue == "":
		return fmt.Sprintf("%02d : %s", season, event)
	default:
		return fmt.Sprintf("%02d : %s @ %s", season, event, venue)
	}
}
