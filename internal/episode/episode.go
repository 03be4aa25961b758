// Package episode extracts structured episode information from a clean title.
package episode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"jellysports/internal/textutil"
)

// Kind names the pattern that produced an Info.
type Kind string

const (
	KindNone        Kind = ""
	KindDated       Kind = "dated"
	KindSingleEvent Kind = "single_event"
	KindMatch       Kind = "match"
	KindPackEvent   Kind = "pack_event"
	KindEpisodic    Kind = "episodic"
)

// WeekNotApplicable marks entries that are identified by date, not by week.
const WeekNotApplicable = 9999

// Info is the structured reading of a clean title.
type Info struct {
	Kind Kind
	// Title is the clean title the fields were extracted from.
	Title string
	Show  string
	// Year is the four-digit year (or two-to-four digit season token) as written.
	Year string
	// Season is the year for week, pack and dated entries and the explicit
	// season code for episodic entries.
	Season    int
	Week      int
	Preseason bool
	Event     string
	// Number is the provisional episode number.
	Number int
	// AirDate is set for dated entries as YYYY-MM-DD.
	AirDate string
}

// Matched reports whether any pattern matched.
func (i Info) Matched() bool {
	return i.Kind != KindNone
}

type pattern struct {
	kind Kind
	rx   *regexp.Regexp
	// accept runs checks the regexp engine cannot express.
	accept func(groups map[string]string) bool
}

// patterns are tried in order; the first hit wins.
var patterns = []pattern{
	{
		kind: KindDated,
		rx:   regexp.MustCompile(`(?i)^(?P<show>.*?)[^0-9a-zA-Z]+(?P<year>[0-9]{4})[^0-9a-zA-Z]+(?P<month>[0-9]{2})[^0-9a-zA-Z]+(?P<day>[0-9]{2})[^0-9a-zA-Z]+(?P<event>.*)$`),
	},
	{
		kind:   KindSingleEvent,
		rx:     regexp.MustCompile(`(?i)^(?P<show>[a-z]+.*?)[ ]+(?P<season>[0-9]{2,4})[ ]+(?P<preseason>PS)?[ ]?[wekround]+[ ]?(?P<week>[0-9]+)[ ]+(?P<event>.*?)$`),
		accept: isSingleEvent,
	},
	{
		kind: KindMatch,
		rx:   regexp.MustCompile(`(?i)^(?P<show>[^0-9]*?)[ ]+(?P<season>[0-9]{2,4})[ ]+(?P<preseason>PS)?[ ]?[wekround]+[ ]?(?P<week>[0-9]+)[ ]+(?P<event>[a-z0-9 ]+[ ]+(@|vs|at)[ ]+[a-z0-9 ]*?[ ]*)$`),
	},
	{
		kind: KindPackEvent,
		rx:   regexp.MustCompile(`(?i)^(?P<ep>[0-9]*)[ ]+(?P<show>.+)[ ]+(?P<season>[0-9]{4})[ ]+(?P<preseason>PS)?[ ]?[wekround]*[ ]*(?P<week>[0-9]+)[ ]+(?P<event>.*)$`),
	},
	{
		kind: KindEpisodic,
		rx:   regexp.MustCompile(`(?i)^(?P<show>.*?)[ ](?P<year>[0-9]{4})[ ]+s(?P<season>[0-9]+)[ ]*e(?P<ep>[0-9]+)[ ]*(?P<event>.*)$`),
	},
}

// isSingleEvent rejects event text that names an opponent; those titles
// belong to the match pattern.
func isSingleEvent(groups map[string]string) bool {
	event := strings.ToLower(groups["event"])
	return !strings.Contains(event, "@") &&
		!strings.Contains(event, "vs ") &&
		!strings.Contains(event, "at ")
}

// Extract applies the episode patterns to a clean title. When nothing matches
// the returned Info has KindNone and Event set to the title.
func Extract(title string) Info {
	for _, p := range patterns {
		groups, ok := match(p.rx, title)
		if !ok {
			continue
		}
		if p.accept != nil && !p.accept(groups) {
			continue
		}
		return build(p.kind, title, groups)
	}
	return Info{Kind: KindNone, Title: title, Event: title}
}

// Kinds lists the pattern kinds in evaluation order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(patterns))
	for _, p := range patterns {
		kinds = append(kinds, p.kind)
	}
	return kinds
}

func match(rx *regexp.Regexp, s string) (map[string]string, bool) {
	m := rx.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	groups := make(map[string]string, len(m))
	for i, name := range rx.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups, true
}

func build(kind Kind, title string, g map[string]string) Info {
	info := Info{
		Kind:  kind,
		Title: title,
		Show:  strings.TrimSpace(g["show"]),
		Event: g["event"],
	}
	switch kind {
	case KindDated:
		month, _ := strconv.Atoi(g["month"])
		day, _ := strconv.Atoi(g["day"])
		info.Year = g["year"]
		info.Season, _ = strconv.Atoi(g["year"])
		info.Week = WeekNotApplicable
		info.AirDate = fmt.Sprintf("%s-%s-%s", g["year"], g["month"], g["day"])
		info.Number = DatedNumber(g["year"], month, day, textutil.Fingerprint3(title))
	case KindEpisodic:
		info.Year = g["year"]
		info.Season, _ = strconv.Atoi(g["season"])
		info.Week = info.Season
		info.Number, _ = strconv.Atoi(g["ep"])
	case KindPackEvent:
		info.Year = g["season"]
		info.Season, _ = strconv.Atoi(g["season"])
		info.Week, _ = strconv.Atoi(g["week"])
		info.Preseason = g["preseason"] != ""
		info.Number, _ = strconv.Atoi(g["ep"])
	default:
		info.Year = g["season"]
		info.Season, _ = strconv.Atoi(g["season"])
		info.Week, _ = strconv.Atoi(g["week"])
		info.Preseason = g["preseason"] != ""
	}
	return info
}

// DatedNumber builds YYMMDDhhh from a four-digit year, the month, the day and a
// three-digit fingerprint that separates double-headers on one date.
func DatedNumber(year string, month, day, fingerprint int) int {
	yy := year
	if len(yy) > 2 {
		yy = yy[len(yy)-2:]
	}
	n, err := strconv.Atoi(fmt.Sprintf("%s%02d%02d%03d", yy, month, day, fingerprint%1000))
	if err != nil {
		return 0
	}
	return n
}
