// Package vocab holds the term lists and tunable numbers used by the fee
// lookup heuristics.
//
// A Vocabulary is plain data. Components receive one at construction time and
// never mutate it; Default returns a fresh copy on every call so tests can add
// languages or domains without affecting anything else.
package vocab

import (
	"strings"
	"unicode"
)

// Agency is a national land-management agency domain.
type Agency struct {
	Domain string
	// NationalPark marks agencies whose pages are about national parks
	// specifically, which are a poor match for state or regional parks.
	NationalPark bool
}

// Vocabulary is the immutable configuration shared by the query builder,
// scorer and classifier.
type Vocabulary struct {
	// Terms that indicate a fee is charged.
	FeeTerms []string
	// Terms that assert there is no fee.
	NoFeeTerms []string
	// Entrance/admission vocabulary used for proximity checks.
	EntranceTerms []string
	// Parking-specific vocabulary.
	ParkingTerms []string
	// Terms that bias a search toward an official homepage.
	HomepageTerms []string
	// Disjunction appended to fee search queries.
	QueryFeeTerms []string

	// Words ignored when computing distinctive name tokens.
	GenericNameWords []string
	// Words ignored by token similarity.
	StopWords []string
	// Keywords that make a string look like the name of a managed area.
	ParkNameKeywords []string
	// Qualifiers that make a park name look like a managing unit.
	ParkQualifiers []string

	// Currency symbols written before the amount, e.g. "$5".
	CurrencyPrefixes []string
	// Currency symbols or codes written after the amount, e.g. "5 €".
	CurrencySuffixes []string
	// Nouns accepted in a "per vehicle" style qualifier.
	UnitNouns []string

	// Path tokens of fee, admission and visitor-info pages.
	FeePathTokens []string
	// Regular expressions matched against a lowercase hostname.
	GovDomainPatterns []string
	Agencies          []Agency
	// Host keywords of park, recreation and conservation organisations.
	ParkHostKeywords []string
	// Travel, review and social sites that are never primary sources.
	AggregatorDomains []string
	// Third-party trail listing hosts.
	ListingHosts []string

	// Maximum distance in characters between two terms to count as related.
	ProximityWindow int
	// Minimum votes before a region inferred from search snippets is trusted.
	RegionInferenceMinVotes int
	// Number of search results sampled for region inference.
	RegionInferenceSample int
}

// Default returns the built-in vocabulary (English plus French, Spanish,
// German, Italian and Dutch fee terms).
func Default() *Vocabulary {
	return &Vocabulary{
		FeeTerms: []string{
			"fee", "fees", "entrance fee", "admission", "admission fee", "day-use", "day use",
			"day-use fee", "ticket", "tickets", "price", "prices", "pricing", "rate", "rates",
			"pass", "passes", "permit", "parking fee", "vehicle fee", "per vehicle", "per person",
			"tarif", "tarifs", "droit d'entrée", "tarifa", "tarifas", "precio", "precios",
			"entrada", "gebühr", "gebühren", "eintritt", "eintrittspreise", "preise",
			"biglietto", "tariffe", "prezzi", "toegangsprijs", "tarieven",
		},
		NoFeeTerms: []string{
			"free", "no fee", "no fees", "no charge", "free of charge", "no entrance fee",
			"no admission fee", "free entry", "free admission", "free to enter", "no day-use fee",
			"gratuit", "gratuite", "entrée libre", "gratis", "gratuito", "gratuita", "sin costo",
			"kostenlos", "eintritt frei", "ingresso libero", "vrij toegang",
		},
		EntranceTerms: []string{
			"admission", "entrance", "entry", "entrance fee", "day-use", "day use", "access",
			"entrée", "accès", "entrada", "acceso", "ingreso", "eintritt", "zutritt", "ingresso",
			"toegang",
		},
		ParkingTerms: []string{
			"parking", "parking fee", "parking lot", "lot", "trailhead", "vehicle fee",
			"stationnement", "estacionamiento", "aparcamiento", "parkplatz", "parkgebühr",
			"parcheggio", "parkeren",
		},
		HomepageTerms: []string{"official", "homepage", "plan your visit"},
		QueryFeeTerms: []string{
			"entrance fee", "admission", "day-use", "tickets", "price", "rates", "pass",
			"parking", "tarif", "eintritt", "precio",
		},

		GenericNameWords: []string{
			"the", "and", "park", "parks", "state", "national", "trail", "trails", "trailhead",
			"area", "areas", "recreation", "recreational", "regional", "county", "city",
			"provincial", "preserve", "reserve", "nature", "natural", "center", "historic",
			"historical", "site", "memorial", "monument", "forest", "wilderness", "open",
			"space", "loop", "public", "lands",
		},
		StopWords: []string{
			"a", "an", "the", "of", "and", "at", "in", "on", "for", "to", "by", "de", "la", "le",
			"du", "des", "del", "el", "und", "der", "die", "das",
		},
		ParkNameKeywords: []string{
			"park", "forest", "reserve", "preserve", "recreation", "national", "state",
			"provincial", "wilderness", "monument", "conservation area", "seashore", "lakeshore",
		},
		ParkQualifiers: []string{"national", "state", "provincial", "regional", "county"},

		CurrencyPrefixes: []string{
			"US$", "CA$", "C$", "A$", "AU$", "NZ$", "R$", "MX$", "HK$", "S$",
			"$", "€", "£", "¥", "₹", "₩", "₱", "₪", "₺", "₫", "฿", "₴", "₦", "₡", "₲", "CHF",
		},
		CurrencySuffixes: []string{"€", "EUR", "USD", "CAD", "CHF", "GBP", "kr", "zł", "Kč", "Ft", "lei"},
		UnitNouns:        []string{"vehicle", "car", "person", "adult", "day"},

		FeePathTokens: []string{
			"fee", "fees", "admission", "admissions", "pricing", "price", "prices", "rates",
			"pass", "passes", "permit", "permits", "entrance", "dayuse", "ticket", "tickets",
			"parking", "planyourvisit", "visit", "visitor", "basicinfo", "tarif", "tarifs",
			"preise", "eintritt", "precios", "tarifas", "entrada",
		},
		GovDomainPatterns: []string{
			`(^|\.)gov$`,
			`(^|\.)mil$`,
			`\.gov\.[a-z]{2}$`,
			`\.gob\.[a-z]{2}$`,
			`\.gouv\.[a-z]{2}$`,
			`\.go\.[a-z]{2}$`,
			`\.govt\.nz$`,
			`\.gc\.ca$`,
			`(^|\.)canada\.ca$`,
			`\.gv\.at$`,
			`\.admin\.ch$`,
			`\.state\.[a-z]{2}\.us$`,
			`(^|\.)(ci|co|city|county)\.[a-z.]+\.us$`,
		},
		Agencies: []Agency{
			{Domain: "nps.gov", NationalPark: true},
			{Domain: "pc.gc.ca", NationalPark: true},
			{Domain: "parks.canada.ca", NationalPark: true},
			{Domain: "fs.usda.gov"},
			{Domain: "usda.gov"},
			{Domain: "blm.gov"},
			{Domain: "fws.gov"},
			{Domain: "recreation.gov"},
			{Domain: "usace.army.mil"},
		},
		ParkHostKeywords: []string{
			"park", "parks", "recreation", "rec", "conservation", "conservancy", "trust",
			"wildlife", "outdoors", "nature", "audubon", "forest", "preserve",
		},
		AggregatorDomains: []string{
			"tripadvisor.com", "yelp.com", "alltrails.com", "wikipedia.org", "facebook.com",
			"instagram.com", "reddit.com", "pinterest.com", "youtube.com", "twitter.com", "x.com",
			"tiktok.com", "blogspot.com", "wordpress.com", "medium.com", "onlyinyourstate.com",
			"lonelyplanet.com", "expedia.com", "booking.com", "hikingproject.com",
			"outdoorproject.com", "hipcamp.com", "campendium.com", "thetravel.com",
			"timeout.com", "fodors.com", "frommers.com", "roadtrippers.com",
		},
		ListingHosts: []string{"alltrails.com", "hikingproject.com", "trailforks.com", "outdooractive.com"},

		ProximityWindow:         250,
		RegionInferenceMinVotes: 2,
		RegionInferenceSample:   10,
	}
}

// IsFeePath reports whether a URL path looks like a fee, admission, pricing or
// visitor-information page.
func (v *Vocabulary) IsFeePath(path string) bool {
	return HasToken(path, v.FeePathTokens)
}

// IsListingHost reports whether host belongs to a third-party trail listing site.
func (v *Vocabulary) IsListingHost(host string) bool {
	return DomainIn(host, v.ListingHosts)
}

// IsAggregator reports whether host belongs to a known non-official site.
func (v *Vocabulary) IsAggregator(host string) bool {
	if DomainIn(host, v.AggregatorDomains) {
		return true
	}
	return strings.Contains(host, "blog")
}

// HasToken reports whether any alphanumeric token of s, or any run of tokens
// joined without separators ("plan-your-visit" -> "planyourvisit"), is in
// tokens.
func HasToken(s string, tokens []string) bool {
	parts := SplitAlnum(strings.ToLower(s))
	if len(parts) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	for i := range parts {
		joined := ""
		for j := i; j < len(parts) && j < i+3; j++ {
			joined += parts[j]
			if _, ok := set[joined]; ok {
				return true
			}
		}
	}
	return false
}

// DomainIn reports whether host equals one of domains or is a subdomain of one.
func DomainIn(host string, domains []string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// SplitAlnum splits s into runs of letters and digits.
func SplitAlnum(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
