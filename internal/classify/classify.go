// Package classify decides whether a fetched page is evidence of an entrance
// fee, a parking fee, or no fee at all.
package classify

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/textnorm"
	"github.com/pfrederiksen/park-fees/internal/verdict"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

// MaxTextChars caps the page text considered by the classifier.
const MaxTextChars = 400000

// Page is a fetched candidate.
type Page struct {
	URL     string
	Title   string
	Snippet string
	Body    string
}

// Target is the place a page must be about.
type Target struct {
	DisplayName string
	Tokens      region.TokenSet
}

// Classifier applies the relevance gates and fee heuristics.
type Classifier struct {
	vocab    *vocab.Vocabulary
	norm     *textnorm.Normalizer
	prefixRe *regexp.Regexp
	suffixRe *regexp.Regexp
}

// New builds a classifier and its currency patterns from v.
func New(v *vocab.Vocabulary) *Classifier {
	// One to three digits, then thousands groups and cents. The patterns
	// below reject a following digit so "$2024" is not read as "$202".
	num := `\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?`
	units := make([]string, len(v.UnitNouns))
	for i, u := range v.UnitNouns {
		units[i] = regexp.QuoteMeta(u)
	}
	qual := `(?:(?:\s*/\s*|\s+(?i:per|a|an|each)\s+)((?i:` + strings.Join(units, "|") + `))s?\b)?`

	return &Classifier{
		vocab:    v,
		norm:     textnorm.New(v.StopWords, v.GenericNameWords),
		prefixRe: regexp.MustCompile(`(` + alternation(v.CurrencyPrefixes) + `)\s?(` + num + `)` + qual + `(?:\D|$)`),
		suffixRe: regexp.MustCompile(`\b(` + num + `)\s?(` + alternation(v.CurrencySuffixes) + `)` + qual + `(?:[^\p{L}\p{N}]|$)`),
	}
}

// alternation quotes symbols longest first so "US$" wins over "$".
func alternation(symbols []string) string {
	sorted := append([]string(nil), symbols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	quoted := make([]string, len(sorted))
	for i, s := range sorted {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(quoted, "|")
}

// amount is one currency match in the page text.
type amount struct {
	pos  int
	text string
}

func (c *Classifier) amounts(text string) []amount {
	var out []amount
	for _, m := range c.prefixRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, amount{pos: m[0], text: formatAmount(text[m[2]:m[5]], text, m[6], m[7])})
	}
	for _, m := range c.suffixRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, amount{pos: m[0], text: formatAmount(text[m[2]:m[5]], text, m[6], m[7])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

func formatAmount(base, text string, unitStart, unitEnd int) string {
	s := strings.Join(strings.Fields(base), " ")
	if unitStart >= 0 {
		s += " per " + strings.ToLower(text[unitStart:unitEnd])
	}
	return s
}

// ExtractAmount returns the first currency amount in text with its
// per-unit qualifier, e.g. "$5 per vehicle" or "12 CHF per person", or ""
// when there is none.
func (c *Classifier) ExtractAmount(text string) string {
	found := c.amounts(text)
	if len(found) == 0 {
		return ""
	}
	return found[0].text
}

func (c *Classifier) text(p Page) string {
	text := p.Title + "\n" + p.Snippet + "\n" + p.Body
	if len(text) <= MaxTextChars {
		return text
	}
	text = text[:MaxTextChars]
	for len(text) > 0 {
		r, size := utf8.DecodeLastRuneInString(text)
		if r != utf8.RuneError || size != 1 {
			break
		}
		text = text[:len(text)-1]
	}
	return text
}

// Relevant reports whether a page passes the name-token gate and, when the
// target has a region, the region gate.
func (c *Classifier) Relevant(p Page, t Target) bool {
	text := c.text(p)
	if !c.nameGate(text, t.DisplayName) {
		return false
	}
	if t.Tokens.Required() && !c.regionGate(p, text, t.Tokens) {
		return false
	}
	return true
}

// nameGate requires min(3, n) of the display name's n distinctive tokens in
// the page text.
func (c *Classifier) nameGate(text, displayName string) bool {
	core := c.norm.CoreNameTokens(displayName)
	need := len(core)
	if need > 3 {
		need = 3
	}
	if need == 0 {
		return true
	}
	tokens := textnorm.TokenSet(text)
	found := 0
	for _, tok := range core {
		if _, ok := tokens[tok]; ok {
			found++
		}
	}
	return found >= need
}

// regionGate requires an include token in the URL or text and no exclude
// token in the URL, title or snippet. The body is not checked for exclude
// tokens because official pages routinely name neighbouring regions.
func (c *Classifier) regionGate(p Page, text string, ts region.TokenSet) bool {
	var urlInclude, urlExclude int
	if u, err := url.Parse(p.URL); err == nil {
		urlInclude, urlExclude = ts.MatchURL(u)
	}
	if urlExclude > 0 {
		return false
	}
	if _, headExclude := ts.MatchText(p.Title + " " + p.Snippet); headExclude > 0 {
		return false
	}
	if urlInclude > 0 {
		return true
	}
	textInclude, _ := ts.MatchText(text)
	return textInclude > 0
}

// Classify returns a no-fee, general or parking verdict and true when the
// page is fee evidence for the target, or false when the caller should try
// the next candidate.
func (c *Classifier) Classify(p Page, t Target) (verdict.Verdict, bool) {
	if !c.Relevant(p, t) {
		return verdict.NotVerified(), false
	}

	text := c.text(p)
	lower := lowerKeepOffsets(text)
	window := c.vocab.ProximityWindow
	amounts := c.amounts(text)
	entrance := findTerms(lower, c.vocab.EntranceTerms)

	if len(amounts) == 0 && near(findTerms(lower, c.vocab.NoFeeTerms), entrance, window) {
		return verdict.NoFee(p.URL, p.Title), true
	}

	fees := findTerms(lower, c.vocab.FeeTerms)
	feeEvidence := len(amounts) > 0 && (len(entrance) > 0 || len(fees) > 0)
	if !feeEvidence && len(fees) > 0 {
		if u, err := url.Parse(p.URL); err == nil && c.vocab.IsFeePath(u.Path) {
			feeEvidence = true
		}
	}
	if !feeEvidence {
		return verdict.NotVerified(), false
	}

	amountPos := make([]int, len(amounts))
	for i, a := range amounts {
		amountPos[i] = a.pos
	}
	if near(amountPos, entrance, window) {
		return verdict.General(p.URL, p.Title, closest(amounts, entrance)), true
	}

	parking := findTerms(lower, c.vocab.ParkingTerms)
	for _, pos := range parking {
		if !near([]int{pos}, entrance, window) {
			return verdict.Parking(p.URL, p.Title, closest(amounts, parking)), true
		}
	}
	return verdict.General(p.URL, p.Title, closest(amounts, entrance)), true
}

// closest returns the amount nearest to any of positions, or the first
// amount when positions is empty.
func closest(amounts []amount, positions []int) string {
	if len(amounts) == 0 {
		return ""
	}
	best, bestDist := 0, -1
	for i, a := range amounts {
		for _, p := range positions {
			if d := abs(a.pos - p); bestDist < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
	}
	return amounts[best].text
}

// near reports whether some position in a is within window bytes of some
// position in b.
func near(a, b []int, window int) bool {
	for _, x := range a {
		for _, y := range b {
			if abs(x-y) <= window {
				return true
			}
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// findTerms returns the sorted start offsets of every occurrence of any term
// in s, matched on letter/digit boundaries.
func findTerms(s string, terms []string) []int {
	var out []int
	for _, term := range terms {
		if term == "" {
			continue
		}
		from := 0
		for {
			i := strings.Index(s[from:], term)
			if i < 0 {
				break
			}
			i += from
			end := i + len(term)
			if boundaryBefore(s, i) && boundaryAfter(s, end) {
				out = append(out, i)
			}
			from = i + 1
		}
	}
	sort.Ints(out)
	return out
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

// lowerKeepOffsets lower-cases s rune by rune, keeping any rune whose lower
// case form has a different UTF-8 length, so byte offsets stay valid in s.
func lowerKeepOffsets(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteByte(s[i])
			i++
			continue
		}
		if l := unicode.ToLower(r); utf8.RuneLen(l) == size {
			sb.WriteRune(l)
		} else {
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	return sb.String()
}
