// Package textnorm canonicalizes names and page text for comparison.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips diacritics and apostrophes, replaces
// punctuation other than ": / . _ -" with spaces and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune(":/._-", r):
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// StripDiacritics removes combining marks ("Café Rivière" -> "Cafe Riviere").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug normalizes s and joins its alphanumeric runs with "-".
func Slug(s string) string {
	return strings.Join(Words(s), "-")
}

// Words returns the alphanumeric runs of Normalize(s).
func Words(s string) []string {
	return splitAlnum(Normalize(s))
}

func splitAlnum(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalizer compares names using configurable stop words and generic words.
type Normalizer struct {
	stop    map[string]struct{}
	generic map[string]struct{}
}

// New creates a Normalizer. stopWords are ignored by Tokens and
// TokenSimilarity; genericWords are ignored by CoreNameTokens.
func New(stopWords, genericWords []string) *Normalizer {
	return &Normalizer{
		stop:    toSet(stopWords),
		generic: toSet(genericWords),
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[Normalize(w)] = struct{}{}
	}
	return set
}

// Tokens returns the normalized alphanumeric tokens of s without stop words.
// If s consists only of stop words, the unfiltered tokens are returned.
func (n *Normalizer) Tokens(s string) []string {
	all := Words(s)
	kept := make([]string, 0, len(all))
	for _, tok := range all {
		if _, ok := n.stop[tok]; !ok {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return all
	}
	return kept
}

// TokenSet returns the set of all normalized alphanumeric tokens in s,
// stop words included.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Words(s) {
		set[tok] = struct{}{}
	}
	return set
}

// TokenSimilarity is the Dice coefficient 2|A∩B| / (|A|+|B|) of the token
// sets of a and b. It is symmetric, lies in [0,1] and is 0 when both sets are
// empty.
func (n *Normalizer) TokenSimilarity(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, tok := range n.Tokens(a) {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, tok := range n.Tokens(b) {
		setB[tok] = struct{}{}
	}

	total := len(setA) + len(setB)
	if total == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	return 2 * float64(inter) / float64(total)
}

// CoreNameTokens returns the distinctive tokens of name: length of at least
// three runes and not a generic word such as "park" or "state", deduplicated
// in order of appearance.
func (n *Normalizer) CoreNameTokens(name string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range Words(name) {
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, ok := n.generic[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
