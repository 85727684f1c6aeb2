package vocab

import "testing"

func TestIsFeePath(t *testing.T) {
	v := Default()

	tests := []struct {
		path string
		want bool
	}{
		{"/state-parks/example/fees", true},
		{"/planyourvisit/fees.htm", true},
		{"/plan-your-visit", true},
		{"/parks/example/day_use", true},
		{"/parks/example/dayuse", true},
		{"/about/history", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := v.IsFeePath(tt.path); got != tt.want {
				t.Errorf("IsFeePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDomainIn(t *testing.T) {
	domains := []string{"nps.gov", "alltrails.com"}

	tests := []struct {
		host string
		want bool
	}{
		{"nps.gov", true},
		{"www.nps.gov", true},
		{"WWW.AllTrails.com", true},
		{"notnps.gov", false},
		{"nps.gov.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := DomainIn(tt.host, domains); got != tt.want {
				t.Errorf("DomainIn(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestIsAggregator(t *testing.T) {
	v := Default()

	if !v.IsAggregator("www.tripadvisor.com") {
		t.Error("tripadvisor should be an aggregator")
	}
	if !v.IsAggregator("hikingblog.example.net") {
		t.Error("blog hosts should be aggregators")
	}
	if v.IsAggregator("tpwd.texas.gov") {
		t.Error("state agency should not be an aggregator")
	}
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := Default()
	b := Default()

	a.FeeTerms = append(a.FeeTerms, "entreegeld")
	a.ProximityWindow = 10

	if len(b.FeeTerms) == len(a.FeeTerms) {
		t.Error("modifying one vocabulary changed another")
	}
	if b.ProximityWindow != 250 {
		t.Errorf("ProximityWindow = %d, want 250", b.ProximityWindow)
	}
}
