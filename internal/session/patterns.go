package session

import (
	"regexp"
	"strings"

	"jellysports/internal/textutil"
)

// Kind classifies a session marker.
type Kind string

const (
	KindNone       Kind = ""
	KindPractice   Kind = "practice"
	KindQualifying Kind = "qualifying"
	KindShootout   Kind = "shootout"
	KindRace       Kind = "race"
	KindSplit      Kind = "split"
	KindExtra      Kind = "extra_time"
	KindFull       Kind = "full"
	// KindEvent is reported when no session marker was found.
	KindEvent Kind = "event"
)

const (
	ordinalPrefix = `(((?P<ses1nr>[0-9]+)(?P<sestxt>st|nd|rd|th))[ ]?)?`
	numericTail   = `(?P<ses2nr>[0-9]+)?[ ]?((?P<part>part)[ ]?)?(?P<ses3nr>[0-9]+)?`
	qualifyName   = `q(ual(y|i(fying( practice)?|fication( practice)?|fier(s)?)?)?)?`
)

type pattern struct {
	kind Kind
	base int
	rx   *regexp.Regexp
	// keywords are capture groups whose end must not be followed by a letter.
	keywords []string
}

// patterns are evaluated in order and the first acceptable match wins.
var patterns = []pattern{
	{
		kind: KindShootout,
		base: 300,
		rx:   compile(` ` + ordinalPrefix + `((?P<sesname>(top[ ]?([0-9]{1,2}[ ]?)|heat[ ]?)(races|shootout|` + qualifyName + `))[ ]?)` + numericTail),
	},
	{
		kind: KindQualifying,
		base: 200,
		rx:   compile(` ` + ordinalPrefix + `((?P<sesname>` + qualifyName + `)[ ]?)` + numericTail),
	},
	{
		kind: KindPractice,
		base: 100,
		rx:   compile(` ` + ordinalPrefix + `((?P<sesname>(free[ ]?)?practice|fp)[ ]?)` + numericTail),
	},
	{
		kind:     KindRace,
		base:     400,
		rx:       compile(` ` + ordinalPrefix + `((?P<sesname>((full|sprint|feature|main)[ ]?)?((?P<race>race)[a-z ]*|(?P<stage>stage|day|finals|sprint)))[ ]?)` + numericTail),
		keywords: []string{"race", "stage"},
	},
	{
		kind: KindSplit,
		base: 100,
		rx:   compile(` ` + ordinalPrefix + `((?P<sesname>half|period|quarter|inning|set)[ ]?)((?P<ses2nr>[0-9]+)[ ]?)?[ ]?((?P<part>part)[ ]?)?(?P<ses3nr>[0-9]+)?`),
	},
	{
		kind:     KindExtra,
		base:     100,
		rx:       compile(` ` + ordinalPrefix + `((?P<sesname>(o(ver)?|e(xtra)?)[ ]?(?P<time>t(ime)?))[ ]?)` + numericTail),
		keywords: []string{"time"},
	},
	{
		kind: KindFull,
		base: 100,
		rx:   compile(` ((?P<sesname>(full[ ]?)?(game|match))[ ]?)` + numericTail),
	},
}

func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// hit is one accepted match of a pattern against event text.
type hit struct {
	pattern *pattern
	text    string
	groups  map[string]string
}

func (h hit) has(name string) bool {
	return h.groups[name] != ""
}

// find returns the first acceptable match of p in s.
func (p *pattern) find(s string) (hit, bool) {
	names := p.rx.SubexpNames()
	for _, loc := range p.rx.FindAllStringSubmatchIndex(s, -1) {
		groups := make(map[string]string, len(names))
		for i, name := range names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			groups[name] = s[loc[2*i]:loc[2*i+1]]
		}
		if !p.acceptable(s, loc, names) {
			continue
		}
		return hit{pattern: p, text: s[loc[0]:loc[1]], groups: groups}, true
	}
	return hit{}, false
}

// acceptable enforces word endings: a session name or keyword may not run
// straight into further letters ("qatar" is not "q", "racers" is not "race").
func (p *pattern) acceptable(s string, loc []int, names []string) bool {
	check := append([]string{"sesname"}, p.keywords...)
	for _, want := range check {
		for i, name := range names {
			if name != want || loc[2*i] < 0 {
				continue
			}
			end := loc[2*i+1]
			if want == "sesname" && p.kind == KindRace {
				// The race name absorbs trailing words on its own.
				continue
			}
			if end < len(s) && isLetter(s[end]) {
				return false
			}
		}
	}
	return true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// HasSession reports whether text carries any session marker.
func HasSession(text string) bool {
	for i := range patterns {
		if _, ok := patterns[i].find(text); ok {
			return true
		}
	}
	return false
}

// RemoveSession strips the first recognised session marker from text.
func RemoveSession(text string) string {
	for i := range patterns {
		if h, ok := patterns[i].find(text); ok {
			return textutil.CollapseSpaces(strings.Replace(text, h.text, " ", 1))
		}
	}
	return text
}
