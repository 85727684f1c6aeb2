package textnorm

import (
	"math"
	"reflect"
	"testing"
)

func testNormalizer() *Normalizer {
	return New(
		[]string{"the", "of", "and"},
		[]string{"the", "park", "state", "national", "trail"},
	)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase and collapse", "  Example   State Park ", "example state park"},
		{"diacritics", "Parc national de la Jacques-Cartier", "parc national de la jacques-cartier"},
		{"accented letters", "Réserve Faunique", "reserve faunique"},
		{"apostrophes removed", "Devil’s Lake & Bear's Den", "devils lake bears den"},
		{"url punctuation kept", "https://www.alltrails.com/trail/us", "https://www.alltrails.com/trail/us"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Example State Park", "example-state-park"},
		{"  Lac-Mégantic  (Québec) ", "lac-megantic-quebec"},
		{"--", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenSimilarity(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Example State Park", "Example State Park", 1},
		{"both empty", "", "", 0},
		{"one empty", "Example", "", 0},
		{"disjoint", "Zion", "Yosemite", 0},
		{"half overlap", "Garner State Park", "Garner Lake", 0.4},
		{"stop words ignored", "The Park of Example", "Example Park", 1},
		{"only stop words", "the", "the", 1},
		{"case and accents", "Réserve", "reserve", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.TokenSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TokenSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTokenSimilarityProperties(t *testing.T) {
	n := testNormalizer()
	inputs := []string{
		"Example State Park",
		"Big Bend Ranch",
		"parks.texas.gov state-parks big-bend-ranch",
		"Parc national du Mont-Tremblant",
		"!!!",
		"",
	}

	for _, a := range inputs {
		for _, b := range inputs {
			ab := n.TokenSimilarity(a, b)
			ba := n.TokenSimilarity(b, a)
			if ab != ba {
				t.Errorf("not symmetric: sim(%q,%q)=%v sim(%q,%q)=%v", a, b, ab, b, a, ba)
			}
			if ab < 0 || ab > 1 || math.IsNaN(ab) {
				t.Errorf("sim(%q,%q)=%v out of [0,1]", a, b, ab)
			}
		}
		if len(n.Tokens(a)) > 0 && n.TokenSimilarity(a, a) != 1 {
			t.Errorf("sim(%q,%q) = %v, want 1", a, a, n.TokenSimilarity(a, a))
		}
	}
}

func TestCoreNameTokens(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		input string
		want  []string
	}{
		{"Example State Park", []string{"example"}},
		{"Big Bend Ranch State Park", []string{"big", "bend", "ranch"}},
		{"The National Trail", nil},
		{"Lake Lake Ox", []string{"lake"}},
		{"Mont-Tremblant", []string{"mont", "tremblant"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := n.CoreNameTokens(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoreNameTokens(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("Welcome to Example State Park! Entrance fee: $5.")
	for _, tok := range []string{"welcome", "example", "entrance", "fee", "5"} {
		if _, ok := set[tok]; !ok {
			t.Errorf("TokenSet missing %q", tok)
		}
	}
}
