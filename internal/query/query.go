// Package query builds the ordered search query variants for a fee lookup.
package query

import (
	"strings"

	"github.com/pfrederiksen/park-fees/internal/vocab"
)

// Tier is the scope of a query variant, from narrowest to widest.
type Tier int

const (
	TierGov Tier = iota
	TierAgency
	TierOrg
	TierOpen
	TierBroad
)

func (t Tier) String() string {
	switch t {
	case TierGov:
		return "gov"
	case TierAgency:
		return "agency"
	case TierOrg:
		return "org"
	case TierOpen:
		return "open"
	case TierBroad:
		return "broad"
	default:
		return "unknown"
	}
}

// Variant is one search query string with its scope tier.
type Variant struct {
	Text string
	Tier Tier
}

// Builder produces query variants from a vocabulary.
type Builder struct {
	vocab *vocab.Vocabulary
}

// NewBuilder creates a query builder.
func NewBuilder(v *vocab.Vocabulary) *Builder {
	return &Builder{vocab: v}
}

// FeeQueries returns up to six variants for name in region, widening in
// scope: government sites, government plus agency sites, government plus
// .org and .com, unscoped, then two unquoted broad queries. regionCode
// enables the region's own government domains in the agency scope.
func (b *Builder) FeeQueries(name, region, regionCode string) []Variant {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	region = strings.TrimSpace(region)
	head := phrase(name) + regionPhrase(region)
	fees := disjunction(b.vocab.QueryFeeTerms)

	variants := []Variant{
		{Text: head + " " + fees + " (site:.gov)", Tier: TierGov},
		{Text: head + " " + fees + " " + b.agencyScope(regionCode), Tier: TierAgency},
		{Text: head + " " + fees + " (site:.gov OR site:.org OR site:.com)", Tier: TierOrg},
		{Text: head + " " + fees, Tier: TierOpen},
		{Text: broad(name, region, "entrance fee"), Tier: TierBroad},
		{Text: broad(name, region, "parking fee"), Tier: TierBroad},
	}
	return dedupe(variants)
}

// HomepageQueries returns up to three variants biased toward an official
// homepage rather than a fee page.
func (b *Builder) HomepageQueries(name, region, regionCode string) []Variant {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	head := phrase(name) + regionPhrase(strings.TrimSpace(region))
	terms := disjunction(b.vocab.HomepageTerms)

	return dedupe([]Variant{
		{Text: head + " " + terms + " (site:.gov)", Tier: TierGov},
		{Text: head + " " + terms + " " + b.agencyScope(regionCode), Tier: TierAgency},
		{Text: head + " " + terms, Tier: TierOpen},
	})
}

func (b *Builder) agencyScope(regionCode string) string {
	sites := []string{"site:.gov"}
	for _, a := range b.vocab.Agencies {
		sites = append(sites, "site:"+a.Domain)
	}
	if code := strings.ToLower(strings.TrimSpace(regionCode)); code != "" {
		sites = append(sites,
			"site:"+code+".gov",
			"site:stateparks."+code+".gov",
			"site:state."+code+".us",
		)
	}
	return "(" + strings.Join(sites, " OR ") + ")"
}

func phrase(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

func regionPhrase(region string) string {
	if region == "" {
		return ""
	}
	return " " + phrase(region)
}

// disjunction joins terms with OR, quoting multi-word terms.
func disjunction(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if strings.ContainsAny(t, " ") {
			t = phrase(t)
		}
		parts = append(parts, t)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func broad(name, region, suffix string) string {
	parts := []string{strings.ReplaceAll(name, `"`, "")}
	if region != "" {
		parts = append(parts, region)
	}
	parts = append(parts, suffix)
	return strings.Join(parts, " ")
}

func dedupe(variants []Variant) []Variant {
	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if seen[v.Text] {
			continue
		}
		seen[v.Text] = true
		out = append(out, v)
	}
	return out
}
