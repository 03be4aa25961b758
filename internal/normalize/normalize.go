package normalize

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"jellysports/internal/textutil"
)

var (
	yearPattern       = regexp.MustCompile(`([\(\[\.\-])([1-2][0-9]{3})([\.\-\)\]_,+])`)
	bracketPattern    = regexp.MustCompile(`\[[^\]]+\]`)
	resolutionPattern = regexp.MustCompile(`(?i)(480|540|576|720|1080|2160|4320)[ip][0-9]{1,3}`)
	ordinalPattern    = regexp.MustCompile(`([0-9])(St|Nd|Rd|Th)\b`)
	audioPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([^0-9])5\.1[ ]*ch(.)`),
		regexp.MustCompile(`(?i)([^0-9])5\.1([^0-9]?)`),
		regexp.MustCompile(`(?i)([^0-9])7\.1[ ]*ch(.)`),
		regexp.MustCompile(`(?i)([^0-9])7\.1([^0-9])`),
	}
)

// Title is the outcome of cleaning one file name.
type Title struct {
	// Clean is the de-noised, title-cased name.
	Clean string
	// Year is a plausible four-digit year found between punctuation, or 0.
	Year int
	// Reversed reports that the name was mirrored before cleaning.
	Reversed bool
}

// Normalizer cleans file names. The zero value is not usable; use New.
type Normalizer struct {
	clock    clockwork.Clock
	networks []string
	garbage  map[string]struct{}
	reversed map[string]struct{}
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock used to bound plausible years.
func WithClock(clock clockwork.Clock) Option {
	return func(n *Normalizer) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithNetworks replaces the broadcaster list.
func WithNetworks(networks []string) Option {
	return func(n *Normalizer) {
		n.networks = lowerAll(networks)
	}
}

// New builds a Normalizer with the default token tables.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		clock:    clockwork.NewRealClock(),
		networks: lowerAll(DefaultNetworks),
		garbage:  make(map[string]struct{}),
		reversed: make(map[string]struct{}),
	}
	for _, group := range [][]string{subtitleTokens, miscTokens, formatTokens, editionTokens, sourceTokens, videoExtensions} {
		for _, token := range group {
			n.garbage[token] = struct{}{}
		}
	}
	for _, group := range [][]string{formatTokens, sourceTokens} {
		for _, token := range group {
			// Short tokens reversed collide with real words too easily.
			if len(token) > 3 {
				n.reversed[reverse(strings.ToLower(token))] = struct{}{}
			}
		}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Clean normalizes name with the default tables and the wall clock.
func Clean(name string) string {
	return defaultNormalizer.Normalize(name).Clean
}

// Normalize cleans a base file name (without directory or extension).
func (n *Normalizer) Normalize(name string) Title {
	var out Title

	if n.looksReversed(name) {
		name = reverse(name)
		out.Reversed = true
	}

	name = norm.NFC.String(name)
	name = strings.ToLower(name)

	if m := yearPattern.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		if year > 1900 && year <= n.clock.Now().Year()+1 {
			out.Year = year
		}
	}

	for bracketPattern.MatchString(name) {
		name = bracketPattern.ReplaceAllString(name, "")
	}

	for _, suffix := range bogusSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}

	name += " "
	for _, rx := range audioPatterns {
		name = rx.ReplaceAllString(name, " ")
	}

	tokens := tokenize(name)
	kept := n.stripGarbage(tokens)
	if len(kept) == 0 && len(tokens) > 0 {
		kept = tokens[:1]
	}

	cleaned := n.removeNetwork(strings.Join(kept, " "))
	out.Clean = norm.NFC.String(titleCase(cleaned))
	return out
}

// titleCase capitalizes words, keeping ordinal suffixes ("1st") and inner
// small words ("vs", "of") lower case.
func titleCase(s string) string {
	// Casers carry state and must not be shared across goroutines.
	cased := cases.Title(language.Und).String(s)
	cased = ordinalPattern.ReplaceAllStringFunc(cased, strings.ToLower)

	words := strings.Split(cased, " ")
	for i := 1; i < len(words)-1; i++ {
		lower := strings.ToLower(words[i])
		if _, ok := smallWords[lower]; ok {
			words[i] = lower
		}
	}
	return strings.Join(words, " ")
}

func (n *Normalizer) looksReversed(name string) bool {
	hits := 0
	seen := make(map[string]struct{})
	for _, token := range tokenize(name) {
		token = strings.ToLower(token)
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := n.reversed[token]; ok {
			hits++
		}
	}
	return hits > 2
}

// stripGarbage classifies tokens walking from the end, where release noise
// usually sits, then keeps good tokens from the front until two bad ones
// have been passed.
func (n *Normalizer) stripGarbage(tokens []string) []string {
	good := make([]bool, len(tokens))
	consumed := make(map[string]struct{})
	for i := len(tokens) - 1; i >= 0; i-- {
		token := strings.ToLower(tokens[i])
		if m := resolutionPattern.FindStringSubmatch(token); m != nil {
			token = canonicalResolution(m[0])
		}
		_, isGarbage := n.garbage[token]
		_, repeat := consumed[token]
		if isGarbage && !repeat {
			consumed[token] = struct{}{}
			continue
		}
		good[i] = true
	}

	short := len(tokens) <= 2
	bad := 0
	kept := make([]string, 0, len(tokens))
	for i, token := range tokens {
		ok := good[i] || short
		if ok && bad < 2 {
			kept = append(kept, token)
		} else if !ok && strings.EqualFold(token, "web") && i+1 < len(tokens) {
			next := strings.ToLower(tokens[i+1])
			if next == "dl" || next == "rip" {
				good[i+1] = false
			}
		}
		if !ok {
			bad++
		}
	}
	return kept
}

func (n *Normalizer) removeNetwork(name string) string {
	longest := ""
	for _, network := range n.networks {
		if len(network) > len(longest) && strings.Contains(name, network) {
			longest = network
		}
	}
	if longest != "" {
		name = strings.ReplaceAll(name, longest, "")
	}
	return textutil.CollapseSpaces(name)
}

// canonicalResolution maps "720p60" to "720p".
func canonicalResolution(match string) string {
	match = strings.ToLower(match)
	if idx := strings.IndexAny(match, "ip"); idx > 0 {
		return match[:idx+1]
	}
	return match
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '-', '_', '.', '(', ')', '+':
		return true
	default:
		return false
	}
}

func tokenize(name string) []string {
	return strings.FieldsFunc(name, isSeparator)
}

func reverse(s string) string {
	runes := []rune(s)
	slices.Reverse(runes)
	return string(runes)
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
