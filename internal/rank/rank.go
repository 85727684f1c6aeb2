// Package rank orders search results by how likely each is to be the
// authoritative fee page for a place.
//
// Scoring is a pure function of the URL and the lookup context: government
// domains dominate, agency and park-organisation hosts and fee-like paths
// add smaller bonuses, region agreement and name similarity break ties, and
// off-region or aggregator pages are pushed down.
package rank

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/search"
	"github.com/pfrederiksen/park-fees/internal/textnorm"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

// RejectScore is given to URLs that cannot be parsed. It is below any score
// a valid URL can reach.
const RejectScore = math.MinInt32

// ErrMalformedURL is returned by ParseCandidate for URLs that are not
// absolute http(s) URLs.
var ErrMalformedURL = errors.New("malformed candidate URL")

// Weights are the additive scoring terms.
type Weights struct {
	Gov                   int
	NationalParkNational  int
	NationalParkExplicit  int
	NationalParkSubnation int
	NationalParkDefault   int
	Agency                int
	ParkHost              int
	FeePath               int
	RegionInclude         int
	RegionExclude         int
	NameSimilarity        int
	SlugInPath            int
	Aggregator            int
}

// DefaultWeights returns the built-in weights. The exclude penalty is larger
// than the include bonus, and the government bonus outweighs everything else.
func DefaultWeights() Weights {
	return Weights{
		Gov:                   100,
		NationalParkNational:  40,
		NationalParkExplicit:  -80,
		NationalParkSubnation: -40,
		NationalParkDefault:   20,
		Agency:                30,
		ParkHost:              30,
		FeePath:               25,
		RegionInclude:         15,
		RegionExclude:         -60,
		NameSimilarity:        40,
		SlugInPath:            20,
		Aggregator:            -50,
	}
}

// Intent describes what kind of place a query names.
type Intent struct {
	National bool
	// Subnational is set for state, provincial, regional, county or city
	// places.
	Subnational bool
	// ExplicitSubnational is set when the text literally says "state park",
	// "regional park" and the like.
	ExplicitSubnational bool
}

var (
	nationalWords    = []string{"national"}
	subnationalWords = []string{"state", "provincial", "regional", "county", "city", "municipal", "metro", "metropark"}
	explicitPhrases  = []string{
		"state park", "regional park", "provincial park", "county park", "city park",
		"state forest", "state recreation area", "state natural area", "metro park",
	}
)

// DetectIntent reads the intent of a display name or query.
func DetectIntent(text string) Intent {
	words := " " + strings.Join(textnorm.Words(text), " ") + " "
	has := func(terms []string) bool {
		for _, t := range terms {
			if strings.Contains(words, " "+t+" ") {
				return true
			}
		}
		return false
	}
	return Intent{
		National:            has(nationalWords),
		Subnational:         has(subnationalWords),
		ExplicitSubnational: has(explicitPhrases),
	}
}

// Context is what the scorer knows about the lookup.
type Context struct {
	DisplayName string
	Query       string
	Intent      Intent
	Tokens      region.TokenSet
}

// Scored is a search result with its score.
type Scored struct {
	search.Result
	Score int
}

// Scorer ranks candidate URLs.
type Scorer struct {
	vocab   *vocab.Vocabulary
	norm    *textnorm.Normalizer
	gov     []*regexp.Regexp
	weights Weights
}

// NewScorer compiles the vocabulary's government domain patterns. It panics
// if a pattern is invalid.
func NewScorer(v *vocab.Vocabulary) *Scorer {
	s := &Scorer{
		vocab:   v,
		norm:    textnorm.New(v.StopWords, v.GenericNameWords),
		weights: DefaultWeights(),
	}
	for _, p := range v.GovDomainPatterns {
		s.gov = append(s.gov, regexp.MustCompile(p))
	}
	return s
}

// WithWeights returns a copy of the scorer using w.
func (s *Scorer) WithWeights(w Weights) *Scorer {
	c := *s
	c.weights = w
	return &c
}

// ParseCandidate parses an absolute http or https URL.
func ParseCandidate(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrMalformedURL)
	}
	return u, nil
}

// IsGov reports whether host matches a government domain pattern.
func (s *Scorer) IsGov(host string) bool {
	host = strings.ToLower(host)
	for _, re := range s.gov {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}

func (s *Scorer) agency(host string) (vocab.Agency, bool) {
	for _, a := range s.vocab.Agencies {
		if vocab.DomainIn(host, []string{a.Domain}) {
			return a, true
		}
	}
	return vocab.Agency{}, false
}

func (s *Scorer) isParkHost(host string) bool {
	for _, label := range strings.Split(host, ".") {
		for _, kw := range s.vocab.ParkHostKeywords {
			if label == kw || (len(kw) >= 4 && strings.Contains(label, kw)) {
				return true
			}
		}
	}
	return false
}

// Score rates one candidate URL. Malformed URLs get RejectScore.
func (s *Scorer) Score(rawURL string, ctx Context) int {
	u, err := ParseCandidate(rawURL)
	if err != nil {
		return RejectScore
	}
	w := s.weights
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.EscapedPath())
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	score := 0
	gov := s.IsGov(host)
	if gov {
		score += w.Gov
	}

	if a, ok := s.agency(host); ok {
		if a.NationalPark {
			switch {
			case ctx.Intent.National:
				score += w.NationalParkNational
			case ctx.Intent.ExplicitSubnational:
				score += w.NationalParkExplicit
			case ctx.Intent.Subnational:
				score += w.NationalParkSubnation
			default:
				score += w.NationalParkDefault
			}
		} else {
			score += w.Agency
		}
	} else if !gov && s.isParkHost(host) {
		score += w.ParkHost
	}

	if s.vocab.IsFeePath(path) {
		score += w.FeePath
	}

	include, exclude := ctx.Tokens.MatchURL(u)
	score += include*w.RegionInclude + exclude*w.RegionExclude

	if ctx.DisplayName != "" {
		sim := math.Max(
			s.norm.TokenSimilarity(ctx.DisplayName, host),
			math.Max(
				s.norm.TokenSimilarity(ctx.DisplayName, path),
				s.norm.TokenSimilarity(ctx.DisplayName, ctx.Query),
			),
		)
		score += int(math.Round(sim * float64(w.NameSimilarity)))

		if slug := textnorm.Slug(ctx.DisplayName); slug != "" && strings.Contains(path, slug) {
			score += w.SlugInPath
		}
	}

	if s.vocab.IsAggregator(host) {
		score += w.Aggregator
	}
	return score
}

// Rank scores results, drops repeated URLs and sorts by score, highest
// first. Equal scores keep search order.
func (s *Scorer) Rank(results []search.Result, ctx Context) []Scored {
	seen := make(map[string]bool, len(results))
	out := make([]Scored, 0, len(results))
	for _, r := range results {
		key := strings.TrimSpace(r.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Scored{Result: r, Score: s.Score(r.URL, ctx)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
