package region

import (
	"net/url"
	"testing"
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestLookup(t *testing.T) {
	table := NewTable(USStates(), CanadianProvinces())

	tests := []struct {
		hint     string
		wantCode string
		wantOK   bool
	}{
		{"TX", "TX", true},
		{"tx", "TX", true},
		{"Texas", "TX", true},
		{" new york ", "NY", true},
		{"west-virginia", "WV", true},
		{"Québec", "QC", true},
		{"Narnia", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got, ok := table.Lookup(tt.hint)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.hint, ok, tt.wantOK)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Lookup(%q) = %q, want %q", tt.hint, got.Code, tt.wantCode)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	table := DefaultTable()

	t.Run("known region", func(t *testing.T) {
		ts := table.Tokens("Texas")
		if !ts.Required() {
			t.Fatal("Required() = false, want true")
		}
		if !contains(ts.Include, "tx") || !contains(ts.Include, "texas") {
			t.Errorf("Include = %v, want tx and texas", ts.Include)
		}
		if contains(ts.Exclude, "texas") || contains(ts.Exclude, "tx") {
			t.Errorf("Exclude contains the requested region: %v", ts.Exclude)
		}
		if !contains(ts.Exclude, "california") || !contains(ts.Exclude, "ca") {
			t.Errorf("Exclude = %v, want california and ca", ts.Exclude)
		}
	})

	t.Run("unknown hint is a free token", func(t *testing.T) {
		ts := table.Tokens("Lake District")
		if len(ts.Include) != 1 || ts.Include[0] != "lake district" {
			t.Errorf("Include = %v, want [lake district]", ts.Include)
		}
		if len(ts.Exclude) != 0 {
			t.Errorf("Exclude = %v, want empty", ts.Exclude)
		}
	})

	t.Run("empty hint", func(t *testing.T) {
		if ts := table.Tokens("  "); ts.Required() {
			t.Errorf("Tokens(empty) = %+v, want empty set", ts)
		}
	})
}

func TestOtherTokensSkipsContainedNames(t *testing.T) {
	table := DefaultTable()

	others := table.OtherTokens("wv", "west virginia")
	if contains(others, "virginia") {
		t.Error("virginia should not be excluded for west virginia")
	}
	if !contains(others, "va") {
		t.Error("va code should still be excluded")
	}

	others = table.OtherTokens("ks", "kansas")
	if !contains(others, "arkansas") {
		t.Error("arkansas should be excluded for kansas")
	}
}

func TestDetectInText(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{"full name", "Hiking near Austin, Texas this weekend", "TX", true},
		{"first name wins", "Drive from Oregon to California", "OR", true},
		{"multi word name", "Located in West Virginia", "WV", true},
		{"upper case code", "Zion National Park UT", "UT", true},
		{"lowercase code ignored", "ut enim ad minim", "", false},
		{"ambiguous code needs comma", "OPEN DAILY OR BY APPOINTMENT", "", false},
		{"ambiguous code after comma", "Portland, OR 97201", "OR", true},
		{"name beats code", "TX border with New Mexico", "NM", true},
		{"nothing", "A quiet lake", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.DetectInText(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("DetectInText(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got.Code != tt.wantCode {
				t.Errorf("DetectInText(%q) = %q, want %q", tt.text, got.Code, tt.wantCode)
			}
		})
	}
}

func TestInferFromTexts(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name     string
		texts    []string
		minVotes int
		wantCode string
		wantOK   bool
	}{
		{
			name:     "majority over threshold",
			texts:    []string{"Camping in Texas", "Texas Parks and Wildlife", "Oklahoma lakes", "no region"},
			minVotes: 2,
			wantCode: "TX",
			wantOK:   true,
		},
		{
			name:     "single mention is not trusted",
			texts:    []string{"Camping in Texas", "no region here"},
			minVotes: 2,
			wantOK:   false,
		},
		{
			name:     "tie goes to first seen",
			texts:    []string{"Utah trip", "Nevada trip", "Nevada again", "Utah again"},
			minVotes: 2,
			wantCode: "UT",
			wantOK:   true,
		},
		{
			name:     "empty",
			minVotes: 2,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.InferFromTexts(tt.texts, tt.minVotes)
			if ok != tt.wantOK {
				t.Fatalf("InferFromTexts() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferFromTexts() = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestMatchURL(t *testing.T) {
	table := DefaultTable()
	texas := table.Tokens("TX")

	tests := []struct {
		name        string
		rawURL      string
		wantInclude int
		wantExclude int
	}{
		{"state agency host", "https://tpwd.texas.gov/state-parks/example/fees", 1, 0},
		{"code host label", "https://www.example.state.tx.us/fees", 1, 0},
		{"compact name in host", "https://texasstateparks.reserveamerica.com/", 1, 0},
		{"other state in path", "https://www.example.org/california/example-park", 0, 1},
		{"other code host label", "https://parks.ca.gov/?page_id=1", 0, 1},
		{"code words in path ignored", "https://example.org/things-to-do-in-or-near-me", 0, 0},
		{"multi word name hyphenated", "https://example.org/new-mexico/parks", 0, 1},
		{"county prefix is not colorado", "https://www.co.travis.tx.us/parks/hamilton-pool/fees", 1, 0},
		{"city prefix is not a region", "https://www.ci.austin.tx.us/parks", 1, 0},
		{"country tld is not a region", "https://www.example.de/texas-parks", 1, 0},
		{"code outside government host", "https://co.example.com/parks", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatal(err)
			}
			inc, exc := texas.MatchURL(u)
			if inc != tt.wantInclude || exc != tt.wantExclude {
				t.Errorf("MatchURL(%s) = (%d, %d), want (%d, %d)", tt.rawURL, inc, exc, tt.wantInclude, tt.wantExclude)
			}
		})
	}
}

func TestMatchText(t *testing.T) {
	texas := DefaultTable().Tokens("Texas")

	inc, exc := texas.MatchText("Located near Fort Davis, TX. Closest airport is in New Mexico.")
	if inc != 1 {
		t.Errorf("include = %d, want 1 (code only)", inc)
	}
	if exc != 1 {
		t.Errorf("exclude = %d, want 1 (new mexico)", exc)
	}

	inc, exc = texas.MatchText("Welcome to Texas. Open in the morning or evening.")
	if inc != 1 || exc != 0 {
		t.Errorf("MatchText() = (%d, %d), want (1, 0)", inc, exc)
	}
}

func TestLookupName(t *testing.T) {
	table := DefaultTable()
	if r, ok := table.LookupName("Virginia"); !ok || r.Code != "VA" {
		t.Errorf("LookupName(Virginia) = %+v, %v", r, ok)
	}
	if _, ok := table.LookupName("OR"); ok {
		t.Error("LookupName should not resolve codes")
	}
}
