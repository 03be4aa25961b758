// Package session detects sub-event markers (practice, qualifying, race,
// halves and the like) in event text and derives a sortable episode number.
package session

import (
	"strconv"
	"strings"

	"jellysports/internal/episode"
	"jellysports/internal/textutil"
)

// DefaultNumber is the episode number used when no session marker is found.
const DefaultNumber = 101

// DefaultLabel names the session when no marker is found.
const DefaultLabel = "full game"

// Info is the session reading of an episode's event text.
type Info struct {
	Kind Kind
	// Label is the human form of the marker, e.g. "2nd Qualifying".
	Label string
	// Name is the bare session name with any inner number, e.g. "Qualifying".
	Name string
	// Ordinal separates same-named sessions.
	Ordinal int
	// EventName is the event text with the marker removed.
	EventName string
	// Number is the final episode number.
	Number int
}

// Found reports whether a session marker was recognised.
func (i Info) Found() bool {
	return i.Kind != KindEvent && i.Kind != KindNone
}

// Extract reads the session marker from ep.Event. Callers should only pass
// episodes whose pattern matched.
func Extract(ep episode.Info) Info {
	for i := range patterns {
		h, ok := patterns[i].find(ep.Event)
		if !ok {
			continue
		}
		return fromHit(ep, h)
	}
	return fallback(ep)
}

func fallback(ep episode.Info) Info {
	number := DefaultNumber
	switch {
	case ep.Week != 0 && ep.Preseason:
		number = concat(ep.Week, DefaultNumber, textutil.Fingerprint3(ep.Event))
	case ep.Week == 0:
		number = concat(textutil.Fingerprint3(ep.Title), DefaultNumber)
	}
	if ep.Kind == episode.KindEpisodic {
		number = ep.Number
	}
	return Info{
		Kind:      KindEvent,
		Label:     DefaultLabel,
		Ordinal:   1,
		EventName: ep.Event,
		Number:    number,
	}
}

func fromHit(ep episode.Info, h hit) Info {
	base := h.pattern.base
	name := strings.TrimSpace(h.groups["sesname"])
	s1, s2, s3 := atoi(h.groups["ses1nr"]), atoi(h.groups["ses2nr"]), atoi(h.groups["ses3nr"])
	n1, n2, n3 := h.groups["ses1nr"], h.groups["ses2nr"], h.groups["ses3nr"]
	ordinal := n1 + h.groups["sestxt"]

	var (
		label   string
		number  int
		seq     int
		session = name
	)
	switch {
	case h.has("part") && h.has("ses1nr") && h.has("ses2nr"):
		label = n1 + " " + name + n2 + " part " + n3
		number = base + 10*s1 + 20*s2 + s3
		seq = s1
		session = name + n2
	case h.has("part") && h.has("ses1nr"):
		label = name + " " + n1 + " part " + n3
		number = base + 10*s1 + s3
		seq = s1
	case h.has("part") && h.has("ses2nr"):
		label = name + " " + n2 + " part " + n3
		number = base + 10*s2 + s3
		seq = s2
	case h.has("part"):
		label = name + " part " + n3
		number = base + 10 + s3
		seq = 1
	case h.has("ses1nr") && h.has("ses2nr") && h.has("ses3nr"):
		label = ordinal + " " + name + n2 + " part " + n3
		number = base + 10*s1 + 20*s2 + s3
		seq = s1
		session = name + n2
	case h.has("ses1nr") && h.has("ses2nr"):
		label = ordinal + " " + name + " part " + n2
		number = base + 10*s1 + s2
		seq = s1
	case h.has("ses1nr"):
		label = ordinal + " " + name
		number = base + 10*s1 + 1
		seq = s1
	case h.has("ses2nr") && h.has("ses3nr"):
		label = name + " " + n2 + " part " + n3
		number = base + 10*s2 + s3
		seq = s2
	case h.has("ses2nr"):
		label = name + " " + n2
		number = base + 10*s2 + 1
		seq = s2
	default:
		label = name
		number = base + 11
		seq = 1
	}

	// A sprint precedes the main race that shares its base number.
	if strings.Contains(strings.ToLower(name), "sprint") {
		number -= 5
	}

	// Trailing spaces stay behind so words around the marker do not fuse.
	marker := strings.TrimRight(h.text, " ")
	remainder := textutil.CollapseSpaces(strings.Replace(ep.Event, marker, "", -1))
	switch {
	case ep.Week != 0 && ep.Preseason:
		number = concat(ep.Week, textutil.Fingerprint3(remainder), number)
	case ep.Week == 0:
		number = concat(textutil.Fingerprint3(remainder), number)
	}
	if ep.Kind == episode.KindEpisodic {
		number = ep.Number
	}

	var eventName string
	if strings.Count(ep.Event, marker) > 1 {
		eventName = textutil.CollapseSpaces(textutil.RemoveLast(ep.Event, marker))
	} else {
		eventName = textutil.CollapseSpaces(strings.Replace(ep.Event, marker, "", 1))
	}

	return Info{
		Kind:      h.pattern.kind,
		Label:     strings.TrimSpace(label),
		Name:      session,
		Ordinal:   seq,
		EventName: eventName,
		Number:    number,
	}
}

// concat joins the decimal forms of parts into one number, the way a
// preseason week, a fingerprint and a session number are chained.
func concat(parts ...int) int {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(p))
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
