package sportsdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sport formats reported in strFormat.
const (
	FormatTeamVsTeam = "TeamvsTeam"
	FormatEvent      = "EventSport"
)

// League is a catalog league record.
type League struct {
	ID          string `json:"idLeague"`
	Name        string `json:"strLeague"`
	Alternate   string `json:"strLeagueAlternate"`
	Sport       string `json:"strSport"`
	Description string `json:"strDescriptionEN"`
	Poster      string `json:"strPoster"`
	Banner      string `json:"strBanner"`
	Badge       string `json:"strBadge"`
}

// Names returns the league name followed by each alternate name, trimmed.
func (l League) Names() []string {
	names := make([]string, 0, 2)
	if name := strings.TrimSpace(l.Name); name != "" {
		names = append(names, name)
	}
	for _, alt := range strings.Split(l.Alternate, ",") {
		if alt = strings.TrimSpace(alt); alt != "" {
			names = append(names, alt)
		}
	}
	return names
}

// Sport is a catalog sport record.
type Sport struct {
	Name   string `json:"strSport"`
	Format string `json:"strFormat"`
}

// Season is one entry of a league's season list.
type Season struct {
	Name string `json:"strSeason"`
}

// Event is a catalog event record. Round follows the catalog convention:
// values of 100 and up are playoff rounds, 500 and up preseason.
type Event struct {
	ID          string `json:"idEvent"`
	LeagueID    string `json:"idLeague"`
	League      string `json:"strLeague"`
	Season      string `json:"strSeason"`
	Name        string `json:"strEvent"`
	Venue       string `json:"strVenue"`
	Date        string `json:"dateEvent"`
	Round       Round  `json:"intRound"`
	HomeTeam    string `json:"strHomeTeam"`
	AwayTeam    string `json:"strAwayTeam"`
	Description string `json:"strDescriptionEN"`
	Poster      string `json:"strPoster"`
	Banner      string `json:"strBanner"`
	Square      string `json:"strSquare"`
	Thumb       string `json:"strThumb"`
}

// Round is a round number that the API sends either as a number or as a
// string. Null and empty values decode to zero.
type Round int

func (r *Round) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Round(n)
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Round", string(data))
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*r = 0
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return fmt.Errorf("parse round %q: %w", *s, err)
	}
	*r = Round(parsed)
	return nil
}

type allLeaguesResponse struct {
	All []League `json:"all"`
}

type allSportsResponse struct {
	All []Sport `json:"all"`
}

type searchLeaguesResponse struct {
	Search []League `json:"search"`
}

type lookupLeagueResponse struct {
	Lookup []League `json:"lookup"`
}

type lookupEventResponse struct {
	Lookup []Event `json:"lookup"`
}

type seasonsResponse struct {
	List []Season `json:"list"`
}

type filterResponse struct {
	Filter []Event `json:"filter"`
}

type scheduleResponse struct {
	Schedule []Event `json:"schedule"`
}
