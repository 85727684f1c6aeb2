package rank

import (
	"errors"
	"testing"

	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/search"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

func newContext(display, hint string) Context {
	return Context{
		DisplayName: display,
		Query:       display,
		Intent:      DetectIntent(display),
		Tokens:      region.DefaultTable().Tokens(hint),
	}
}

func TestGovernmentBeatsNonGovernment(t *testing.T) {
	s := NewScorer(vocab.Default())
	ctx := newContext("Example Lake Park", "")

	paths := []string{"/fees", "/example-lake-park", "/about/contact", "/"}
	for _, p := range paths {
		gov := s.Score("https://parks.example.gov"+p, ctx)
		com := s.Score("https://parks.example.com"+p, ctx)
		if gov <= com {
			t.Errorf("path %s: gov score %d <= non-gov score %d", p, gov, com)
		}
	}
}

func TestWrongRegionScoresLower(t *testing.T) {
	s := NewScorer(vocab.Default())
	ctx := newContext("Example State Park", "TX")

	texas := s.Score("https://www.example.org/parks/texas/example-state-park/fees", ctx)
	california := s.Score("https://www.example.org/parks/california/example-state-park/fees", ctx)
	if california >= texas {
		t.Errorf("california score %d >= texas score %d", california, texas)
	}

	neutral := s.Score("https://www.example.org/parks/example-state-park/fees", ctx)
	if california >= neutral {
		t.Errorf("excluded region should score below a page with no region: %d >= %d", california, neutral)
	}
}

func TestNationalParkAgencyIntent(t *testing.T) {
	s := NewScorer(vocab.Default())

	statePark := newContext("Example State Park", "")
	nps := s.Score("https://www.nps.gov/example/planyourvisit/fees.htm", statePark)
	state := s.Score("https://tpwd.texas.gov/example/planyourvisit/fees.htm", statePark)
	if nps >= state {
		t.Errorf("nps.gov should lose to a state agency for a state park: nps=%d state=%d", nps, state)
	}

	nationalPark := newContext("Example National Park", "")
	nps = s.Score("https://www.nps.gov/example/planyourvisit/fees.htm", nationalPark)
	state = s.Score("https://tpwd.texas.gov/example/planyourvisit/fees.htm", nationalPark)
	if nps <= state {
		t.Errorf("nps.gov should win for a national park: nps=%d state=%d", nps, state)
	}
}

func TestAgencyIntentWeights(t *testing.T) {
	w := Weights{
		NationalParkNational:  1,
		NationalParkExplicit:  2,
		NationalParkSubnation: 3,
		NationalParkDefault:   4,
		Agency:                5,
	}
	s := NewScorer(vocab.Default()).WithWeights(w)

	tests := []struct {
		name   string
		url    string
		intent Intent
		want   int
	}{
		{"national", "https://www.nps.gov/x", Intent{National: true}, 1},
		{"explicit subnational", "https://www.nps.gov/x", Intent{Subnational: true, ExplicitSubnational: true}, 2},
		{"subnational", "https://www.nps.gov/x", Intent{Subnational: true}, 3},
		{"no intent", "https://www.nps.gov/x", Intent{}, 4},
		{"other agency", "https://www.blm.gov/x", Intent{ExplicitSubnational: true}, 5},
		{"canada", "https://parks.canada.ca/x", Intent{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.url, Context{Intent: tt.intent}); got != tt.want {
				t.Errorf("Score(%s) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func TestIndividualWeights(t *testing.T) {
	base := NewScorer(vocab.Default())

	tests := []struct {
		name    string
		weights Weights
		url     string
		ctx     Context
		want    int
	}{
		{"fee path", Weights{FeePath: 7}, "https://example.com/plan-your-visit/fees", Context{}, 7},
		{"slug in path", Weights{SlugInPath: 9}, "https://example.com/parks/example-state-park", Context{DisplayName: "Example State Park"}, 9},
		{"aggregator", Weights{Aggregator: -11}, "https://www.tripadvisor.com/x", Context{}, -11},
		{"travel blog", Weights{Aggregator: -11}, "https://myhikingblog.net/x", Context{}, -11},
		{"park host", Weights{ParkHost: 13}, "https://www.exampleparks.org/x", Context{}, 13},
		{"park host not applied to gov", Weights{ParkHost: 13}, "https://parks.example.gov/x", Context{}, 0},
		{"region include", Weights{RegionInclude: 2}, "https://tpwd.texas.gov/x", Context{Tokens: region.DefaultTable().Tokens("TX")}, 2},
		{"region exclude", Weights{RegionExclude: -3}, "https://parks.ca.gov/x", Context{Tokens: region.DefaultTable().Tokens("TX")}, -3},
		{"exact name", Weights{NameSimilarity: 40}, "https://example.com/x", Context{DisplayName: "Muir Woods", Query: "Muir Woods"}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.WithWeights(tt.weights)
			if got := s.Score(tt.url, tt.ctx); got != tt.want {
				t.Errorf("Score(%s) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func TestMalformedURLIsRejected(t *testing.T) {
	s := NewScorer(vocab.Default())
	ctx := newContext("Example Park", "TX")

	for _, raw := range []string{"", "not a url", "ftp://example.gov/fees", "https://", "http://%zz"} {
		if got := s.Score(raw, ctx); got != RejectScore {
			t.Errorf("Score(%q) = %d, want RejectScore", raw, got)
		}
		if _, err := ParseCandidate(raw); !errors.Is(err, ErrMalformedURL) {
			t.Errorf("ParseCandidate(%q) error = %v, want ErrMalformedURL", raw, err)
		}
	}
}

func TestRank(t *testing.T) {
	s := NewScorer(vocab.Default())
	ctx := newContext("Example State Park", "TX")

	results := []search.Result{
		{URL: "https://www.tripadvisor.com/Attraction-example"},
		{URL: "::bad::"},
		{URL: "https://tpwd.texas.gov/state-parks/example/fees"},
		{URL: "https://www.example.org/california/example"},
		{URL: "https://tpwd.texas.gov/state-parks/example/fees"},
	}

	ranked := s.Rank(results, ctx)
	if len(ranked) != 4 {
		t.Fatalf("len(ranked) = %d, want 4 after dedupe", len(ranked))
	}
	if ranked[0].URL != "https://tpwd.texas.gov/state-parks/example/fees" {
		t.Errorf("top result = %s", ranked[0].URL)
	}
	if ranked[len(ranked)-1].Score != RejectScore {
		t.Errorf("malformed URL should rank last, got %+v", ranked[len(ranked)-1])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("not sorted at %d: %d > %d", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestRankKeepsSearchOrderOnTies(t *testing.T) {
	s := NewScorer(vocab.Default()).WithWeights(Weights{})
	results := []search.Result{
		{URL: "https://a.example.com/"},
		{URL: "https://b.example.com/"},
		{URL: "https://c.example.com/"},
	}
	ranked := s.Rank(results, Context{})
	for i, r := range ranked {
		if r.URL != results[i].URL {
			t.Errorf("ranked[%d] = %s, want %s", i, r.URL, results[i].URL)
		}
	}
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"Yosemite National Park", Intent{National: true}},
		{"Palo Duro Canyon State Park", Intent{Subnational: true, ExplicitSubnational: true}},
		{"Tilden Regional Park", Intent{Subnational: true, ExplicitSubnational: true}},
		{"County Line Trail", Intent{Subnational: true}},
		{"Muir Woods", Intent{}},
		{"United States Forest", Intent{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := DetectIntent(tt.text); got != tt.want {
				t.Errorf("DetectIntent(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
