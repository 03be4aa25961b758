package textutil

import "strings"

// RemoveLast deletes the final occurrence of sub from s. When sub is absent
// the input is returned unchanged.
func RemoveLast(s, sub string) string {
	if sub == "" {
		return s
	}
	idx := strings.LastIndex(s, sub)
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(sub):]
}

// CollapseSpaces trims s and folds runs of whitespace into a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TeamKey lowercases a team name and drops dots, dashes and underscores so
// "L.A. Rams" and "la rams" compare equal.
func TeamKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch r {
		case '.', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Atoi parses the leading run of decimal digits in s, ignoring surrounding
// whitespace. It reports false when s does not start with a digit.
func Atoi(s string) (int, bool) {
	s = strings.TrimSpace(s)
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		n = n*10 + int(r-'0')
	}
	return n, seen
}
