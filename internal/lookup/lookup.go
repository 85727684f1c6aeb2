package lookup

import (
	"context"
	"strings"
	"time"

	"github.com/pfrederiksen/park-fees/internal/classify"
	"github.com/pfrederiksen/park-fees/internal/listing"
	"github.com/pfrederiksen/park-fees/internal/logger"
	"github.com/pfrederiksen/park-fees/internal/query"
	"github.com/pfrederiksen/park-fees/internal/rank"
	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/search"
	"github.com/pfrederiksen/park-fees/internal/verdict"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

const (
	// ResultCount is the number of results requested per search call.
	ResultCount = 20
	// MaxCandidates bounds the candidates classified per search call.
	MaxCandidates = 24
)

// Searcher is a web search provider.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]search.Result, error)
}

// Fetcher downloads candidate pages. PageText returns "" on failure.
type Fetcher interface {
	PageText(ctx context.Context, rawURL string) string
	FetchHTML(ctx context.Context, rawURL string) (string, error)
}

// Request is one lookup as submitted by a caller. Empty strings mean absent.
type Request struct {
	Query           string
	RegionHint      string
	DisplayNameHint string
	// Lenient skips the strict pass.
	Lenient bool
	// WantHomepage enables the homepage pass.
	WantHomepage bool
}

// Query is the resolved input of a lookup.
type Query struct {
	Raw         string
	RegionHint  string
	DisplayName string
}

// pass is one search pass configuration.
type pass struct {
	name     string
	tiers    []query.Tier
	minScore int
}

func (p pass) allows(t query.Tier) bool {
	for _, tier := range p.tiers {
		if tier == t {
			return true
		}
	}
	return false
}

var (
	strictPass = pass{
		name:     "strict",
		tiers:    []query.Tier{query.TierGov, query.TierAgency},
		minScore: 50,
	}
	lenientPass = pass{
		name:     "lenient",
		tiers:    []query.Tier{query.TierOrg, query.TierOpen, query.TierBroad},
		minScore: -20,
	}
	homepagePass = pass{
		name:     "homepage",
		tiers:    []query.Tier{query.TierGov, query.TierAgency, query.TierOpen},
		minScore: 50,
	}
)

// Service performs fee lookups.
type Service struct {
	searcher Searcher
	fetcher  Fetcher

	vocab   *vocab.Vocabulary
	regions *region.Table

	queries    *query.Builder
	scorer     *rank.Scorer
	classifier *classify.Classifier
	listing    *listing.Extractor

	resultCount   int
	maxCandidates int
}

// Option configures a Service.
type Option func(*Service)

// WithVocabulary replaces the default vocabulary.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(s *Service) { s.vocab = v }
}

// WithRegions replaces the default region table.
func WithRegions(t *region.Table) Option {
	return func(s *Service) { s.regions = t }
}

// WithResultCount sets the number of results requested per search call.
func WithResultCount(n int) Option {
	return func(s *Service) { s.resultCount = n }
}

// WithMaxCandidates bounds the candidates classified per search call.
func WithMaxCandidates(n int) Option {
	return func(s *Service) { s.maxCandidates = n }
}

// New creates a lookup service.
func New(searcher Searcher, fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		searcher:      searcher,
		fetcher:       fetcher,
		vocab:         vocab.Default(),
		regions:       region.DefaultTable(),
		resultCount:   ResultCount,
		maxCandidates: MaxCandidates,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queries = query.NewBuilder(s.vocab)
	s.scorer = rank.NewScorer(s.vocab)
	s.classifier = classify.New(s.vocab)
	s.listing = listing.New(fetcher, s.regions, s.vocab)
	return s
}

// run is the mutable state of one lookup.
type run struct {
	q      Query
	seen   map[string]bool
	sample []string
}

// LookupFee runs every pass until one yields a verdict. It never fails;
// exhausting all passes yields a not-verified verdict.
func (s *Service) LookupFee(ctx context.Context, req Request) verdict.Verdict {
	start := time.Now()
	q := s.Resolve(ctx, req)

	v := s.lookup(ctx, q, req)

	duration := time.Since(start)
	logger.RecordTiming("lookup.duration", duration)
	logger.IncrCounter("lookup.kind." + string(v.Kind))
	logger.Info("Lookup finished", logger.Fields{
		"query":        q.Raw,
		"display_name": q.DisplayName,
		"region":       q.RegionHint,
		"kind":         string(v.Kind),
		"url":          v.URL,
		"duration_ms":  duration.Milliseconds(),
	})
	return v
}

func (s *Service) lookup(ctx context.Context, q Query, req Request) verdict.Verdict {
	if q.DisplayName == "" {
		return verdict.NotVerified()
	}
	r := &run{q: q, seen: make(map[string]bool)}

	if !req.Lenient {
		if v, ok := s.feePass(ctx, r, strictPass); ok {
			return v
		}
	}
	if v, ok := s.feePass(ctx, r, lenientPass); ok {
		return v
	}

	if r.q.RegionHint == "" && ctx.Err() == nil {
		inferred, ok := s.regions.InferFromTexts(r.sample, s.vocab.RegionInferenceMinVotes)
		if ok {
			logger.Debug("Inferred region from search results", logger.Fields{
				"display_name": r.q.DisplayName,
				"region":       inferred.Name,
			})
			r.q.RegionHint = inferred.Name
			if v, ok := s.feePass(ctx, r, strictPass); ok {
				return v
			}
		}
	}

	if req.WantHomepage && ctx.Err() == nil {
		if v, ok := s.homepage(ctx, r); ok {
			return v
		}
	}
	return verdict.NotVerified()
}

// Resolve turns a request into a Query. Listing URLs are resolved to the
// managing park; otherwise the raw input is the display name and a region
// named in it is used when no hint was given.
func (s *Service) Resolve(ctx context.Context, req Request) Query {
	q := Query{
		Raw:         strings.TrimSpace(req.Query),
		RegionHint:  strings.TrimSpace(req.RegionHint),
		DisplayName: strings.TrimSpace(req.DisplayNameHint),
	}
	if q.Raw == "" {
		return q
	}

	if s.listing.Applies(q.Raw) {
		res := s.listing.Resolve(ctx, q.Raw)
		if q.DisplayName == "" {
			q.DisplayName = res.ParkName
		}
		if q.DisplayName == "" {
			q.DisplayName = listing.NameFromURL(q.Raw)
		}
		if q.RegionHint == "" {
			q.RegionHint = res.Region
		}
	} else if q.RegionHint == "" {
		if r, ok := s.regions.DetectInText(q.Raw); ok {
			q.RegionHint = r.Name
		}
	}

	if q.DisplayName == "" {
		q.DisplayName = q.Raw
	}
	return q
}

// regionParts returns the region name and code used in query strings.
func (s *Service) regionParts(hint string) (name, code string) {
	if r, ok := s.regions.Lookup(hint); ok {
		return r.Name, r.Code
	}
	return hint, ""
}

func (s *Service) target(q Query) (classify.Target, rank.Context) {
	tokens := s.regions.Tokens(q.RegionHint)
	return classify.Target{DisplayName: q.DisplayName, Tokens: tokens},
		rank.Context{
			DisplayName: q.DisplayName,
			Query:       q.Raw,
			Intent:      rank.DetectIntent(q.DisplayName),
			Tokens:      tokens,
		}
}

// candidates searches one variant and returns its ranked results above the
// pass threshold. Search failures yield no candidates.
func (s *Service) candidates(ctx context.Context, r *run, p pass, v query.Variant, rc rank.Context) []rank.Scored {
	results, err := s.searcher.Search(ctx, v.Text, s.resultCount)
	if err != nil {
		logger.Warn("Search failed", logger.Fields{"pass": p.name, "tier": v.Tier.String(), "query": v.Text}, err)
		return nil
	}
	for _, res := range results {
		if len(r.sample) >= s.vocab.RegionInferenceSample {
			break
		}
		r.sample = append(r.sample, res.Title+" "+res.Snippet+" "+res.URL)
	}

	ranked := s.scorer.Rank(results, rc)
	out := ranked[:0]
	for _, c := range ranked {
		if c.Score < p.minScore || len(out) >= s.maxCandidates {
			break
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) feePass(ctx context.Context, r *run, p pass) (verdict.Verdict, bool) {
	name, code := s.regionParts(r.q.RegionHint)
	target, rc := s.target(r.q)
	targetKey := r.q.DisplayName + "|" + strings.Join(target.Tokens.Include, ",")

	for _, v := range s.queries.FeeQueries(r.q.DisplayName, name, code) {
		if !p.allows(v.Tier) {
			continue
		}
		if ctx.Err() != nil {
			return verdict.Verdict{}, false
		}
		for _, c := range s.candidates(ctx, r, p, v, rc) {
			key := targetKey + "|" + c.URL
			if r.seen[key] {
				continue
			}
			r.seen[key] = true

			page := classify.Page{
				URL:     c.URL,
				Title:   c.Title,
				Snippet: c.Snippet,
				Body:    s.fetcher.PageText(ctx, c.URL),
			}
			if found, ok := s.classifier.Classify(page, target); ok {
				logger.Debug("Classified candidate", logger.Fields{
					"pass":  p.name,
					"tier":  v.Tier.String(),
					"url":   c.URL,
					"score": c.Score,
					"kind":  string(found.Kind),
				})
				return found, true
			}
			if ctx.Err() != nil {
				return verdict.Verdict{}, false
			}
		}
	}
	return verdict.Verdict{}, false
}

// homepage looks for an official-looking page about the target. Titles and
// snippets are checked first; the page is only fetched when they do not
// pass the relevance gates on their own.
func (s *Service) homepage(ctx context.Context, r *run) (verdict.Verdict, bool) {
	name, code := s.regionParts(r.q.RegionHint)
	target, rc := s.target(r.q)

	for _, v := range s.queries.HomepageQueries(r.q.DisplayName, name, code) {
		if !homepagePass.allows(v.Tier) {
			continue
		}
		if ctx.Err() != nil {
			return verdict.Verdict{}, false
		}
		for _, c := range s.candidates(ctx, r, homepagePass, v, rc) {
			page := classify.Page{URL: c.URL, Title: c.Title, Snippet: c.Snippet}
			if !s.classifier.Relevant(page, target) {
				page.Body = s.fetcher.PageText(ctx, c.URL)
				if !s.classifier.Relevant(page, target) {
					continue
				}
			}
			return verdict.HomepageOnly(c.URL, c.Title), true
		}
	}
	return verdict.Verdict{}, false
}
