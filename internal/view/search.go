package view

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher finds any of a set of search terms inside node labels,
// case-insensitively, with one pass per label.
type Matcher struct {
	terms []string
	ac    ahocorasick.AhoCorasick
}

// NewMatcher builds a matcher for a comma separated query. Blank
// alternatives are ignored; a blank query matches nothing.
func NewMatcher(query string) Matcher {
	var terms []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(query, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	m := Matcher{terms: terms}
	if len(terms) == 0 {
		return m
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	m.ac = builder.Build(terms)
	return m
}

// Active reports whether the query had any terms.
func (m Matcher) Active() bool {
	return len(m.terms) > 0
}

// Match reports whether label contains any term.
func (m Matcher) Match(label string) bool {
	if !m.Active() {
		return false
	}
	return len(m.ac.FindAll(strings.ToLower(label))) > 0
}
