// Package region resolves free-text region hints (state codes, state or
// province names) to canonical tokens used for relevance and exclusion
// matching.
package region

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pfrederiksen/park-fees/internal/textnorm"
)

// Region is a named sub-national region.
type Region struct {
	Code string // e.g. "TX"
	Name string // e.g. "Texas"
}

// Table is a read-only code <-> name lookup table.
type Table struct {
	regions []Region
	byCode  map[string]int
	byName  map[string]int
}

// NewTable builds a table from one or more region lists. Later duplicates of
// a code or name are ignored.
func NewTable(sets ...[]Region) *Table {
	t := &Table{
		byCode: make(map[string]int),
		byName: make(map[string]int),
	}
	for _, set := range sets {
		for _, r := range set {
			code := strings.ToUpper(r.Code)
			name := nameKey(r.Name)
			if _, dup := t.byCode[code]; dup {
				continue
			}
			if _, dup := t.byName[name]; dup {
				continue
			}
			t.byCode[code] = len(t.regions)
			t.byName[name] = len(t.regions)
			t.regions = append(t.regions, Region{Code: code, Name: r.Name})
		}
	}
	return t
}

// DefaultTable returns the US state table.
func DefaultTable() *Table {
	return NewTable(USStates())
}

func nameKey(s string) string {
	return strings.Join(textnorm.Words(s), " ")
}

// Lookup resolves a code ("tx"), a name ("Texas") or a slug ("west-virginia").
func (t *Table) Lookup(hint string) (Region, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return Region{}, false
	}
	if i, ok := t.byCode[strings.ToUpper(hint)]; ok {
		return t.regions[i], true
	}
	if i, ok := t.byName[nameKey(hint)]; ok {
		return t.regions[i], true
	}
	return Region{}, false
}

// LookupName resolves a full region name only. Two-letter strings that happen
// to be codes ("OR", "IN") are not matched.
func (t *Table) LookupName(name string) (Region, bool) {
	if i, ok := t.byName[nameKey(name)]; ok {
		return t.regions[i], true
	}
	return Region{}, false
}

// Tokens returns the include and exclude tokens for a region hint. A known
// region includes its lowercased code and name and excludes every other
// region; an unknown hint is kept as a single free include token; an empty
// hint yields an empty set.
func (t *Table) Tokens(hint string) TokenSet {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return TokenSet{}
	}
	r, ok := t.Lookup(hint)
	if !ok {
		return TokenSet{Include: []string{nameKey(hint)}}
	}
	include := []string{strings.ToLower(r.Code), nameKey(r.Name)}
	return TokenSet{
		Include: include,
		Exclude: t.OtherTokens(include...),
	}
}

// OtherTokens returns the codes and names of every region not in excluding.
// Names contained in an excluded name are skipped too, so "virginia" is not
// reported as a different region from "west virginia".
func (t *Table) OtherTokens(excluding ...string) []string {
	skip := make(map[string]bool, len(excluding))
	for _, e := range excluding {
		skip[nameKey(e)] = true
	}

	var out []string
	for _, r := range t.regions {
		code := strings.ToLower(r.Code)
		if !skip[code] {
			out = append(out, code)
		}
		name := nameKey(r.Name)
		if skip[name] || containedInAny(name, excluding) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func containedInAny(name string, others []string) bool {
	for _, o := range others {
		o = nameKey(o)
		if len(o) > len(name) && strings.Contains(" "+o+" ", " "+name+" ") {
			return true
		}
	}
	return false
}

// DetectInText returns the region whose full name appears first in s or,
// failing that, the first region code written in upper case on word
// boundaries. Codes that are also common words only count after a comma.
func (t *Table) DetectInText(s string) (Region, bool) {
	words := " " + strings.Join(textnorm.Words(s), " ") + " "

	best, bestPos := -1, -1
	for i, r := range t.regions {
		pos := strings.Index(words, " "+nameKey(r.Name)+" ")
		if pos < 0 {
			continue
		}
		if best < 0 || pos < bestPos || (pos == bestPos && len(r.Name) > len(t.regions[best].Name)) {
			best, bestPos = i, pos
		}
	}
	if best >= 0 {
		return t.regions[best], true
	}

	for i, r := range t.regions {
		pos := codeIndex(s, r.Code)
		if pos < 0 {
			continue
		}
		if best < 0 || pos < bestPos {
			best, bestPos = i, pos
		}
	}
	if best >= 0 {
		return t.regions[best], true
	}
	return Region{}, false
}

// codeIndex finds an upper-case code on word boundaries in s.
func codeIndex(s, code string) int {
	from := 0
	for {
		i := strings.Index(s[from:], code)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(code)
		if boundaryBefore(s, i) && boundaryAfter(s, end) {
			if !ambiguousCodes[code] || strings.HasSuffix(strings.TrimRight(s[:i], " "), ",") {
				return i
			}
		}
		from = end
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// InferFromTexts tallies DetectInText over texts and returns the region with
// the most mentions if it has at least minVotes. Ties go to the region seen
// first.
func (t *Table) InferFromTexts(texts []string, minVotes int) (Region, bool) {
	type tally struct {
		region Region
		votes  int
		first  int
	}
	counts := make(map[string]*tally)
	for i, text := range texts {
		r, ok := t.DetectInText(text)
		if !ok {
			continue
		}
		if c, exists := counts[r.Code]; exists {
			c.votes++
			continue
		}
		counts[r.Code] = &tally{region: r, votes: 1, first: i}
	}

	ranked := make([]*tally, 0, len(counts))
	for _, c := range counts {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].votes != ranked[j].votes {
			return ranked[i].votes > ranked[j].votes
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) == 0 || ranked[0].votes < minVotes {
		return Region{}, false
	}
	return ranked[0].region, true
}

// TokenSet holds the region tokens a candidate should mention (Include) and
// the tokens of other regions that mark it as off-region (Exclude). Tokens
// are lowercase; two-letter tokens are codes, longer ones are names.
type TokenSet struct {
	Include []string
	Exclude []string
}

// Required reports whether candidates must mention the region.
func (ts TokenSet) Required() bool {
	return len(ts.Include) > 0
}

func isCode(tok string) bool {
	return len(tok) == 2
}

// govCodeLabel reports whether labels[i] sits where a government host puts
// its region code: before "gov" ("parks.ca.gov"), after "gov"
// ("www2.gov.bc.ca") or as the second-level label of a ".us" host
// ("state.tx.us", "co.travis.tx.us"). County prefixes such as "co" and "ci"
// in "co.travis.tx.us" never qualify.
func govCodeLabel(labels []string, i int) bool {
	n := len(labels)
	switch {
	case i+1 < n && labels[i+1] == "gov":
		return true
	case i > 0 && labels[i-1] == "gov" && i < n-1:
		return true
	case n >= 2 && labels[n-1] == "us" && i == n-2:
		return true
	}
	return false
}

// MatchURL counts include and exclude tokens in a URL. Codes only match host
// labels in a government position (see govCodeLabel); names match path or
// host tokens exactly, as a token prefix ("texasstateparks") or, for
// multi-word names, in hyphenated or compact form ("new-york", "newyork").
func (ts TokenSet) MatchURL(u *url.URL) (include, exclude int) {
	host := strings.ToLower(u.Hostname())
	labels := strings.Split(host, ".")
	parts := textnorm.Words(host + " " + u.Path)
	joined := " " + strings.Join(parts, " ") + " "

	match := func(tok string) bool {
		if isCode(tok) {
			for i, l := range labels {
				if l == tok && govCodeLabel(labels, i) {
					return true
				}
			}
			return false
		}
		if strings.Contains(joined, " "+tok+" ") {
			return true
		}
		compact := strings.ReplaceAll(tok, " ", "")
		for _, p := range parts {
			if strings.HasPrefix(p, compact) {
				return true
			}
		}
		return false
	}

	for _, tok := range ts.Include {
		if match(tok) {
			include++
		}
	}
	for _, tok := range ts.Exclude {
		if match(tok) {
			exclude++
		}
	}
	return include, exclude
}

// MatchText counts include and exclude tokens in free text. Names match on
// word boundaries; include codes match only when written in upper case
// ("Austin, TX"). Exclude codes are never matched in text.
func (ts TokenSet) MatchText(text string) (include, exclude int) {
	words := " " + strings.Join(textnorm.Words(text), " ") + " "

	for _, tok := range ts.Include {
		if isCode(tok) {
			if codeIndex(text, strings.ToUpper(tok)) >= 0 {
				include++
			}
			continue
		}
		if strings.Contains(words, " "+tok+" ") {
			include++
		}
	}
	for _, tok := range ts.Exclude {
		if isCode(tok) {
			continue
		}
		if strings.Contains(words, " "+tok+" ") {
			exclude++
		}
	}
	return include, exclude
}
