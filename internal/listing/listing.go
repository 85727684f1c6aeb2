// Package listing resolves third-party trail listing pages to the park that
// manages the trail.
//
// Listing pages name trails, not the managing area, and fee information
// lives on the park's own site. The extractor reads the page's embedded data
// to find the managing-area name and its region so the lookup can search for
// the park instead of the trail.
package listing

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/park-fees/internal/logger"
	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/textnorm"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

const (
	maxNameChars = 80
	maxNameWords = 8
)

// Fetcher downloads the HTML of a listing page.
type Fetcher interface {
	FetchHTML(ctx context.Context, rawURL string) (string, error)
}

// Result is what could be recovered from a listing page. Either field may
// be empty.
type Result struct {
	ParkName string
	Region   string
}

// Empty reports whether nothing was recovered.
func (r Result) Empty() bool {
	return r.ParkName == "" && r.Region == ""
}

// Extractor resolves listing page URLs.
type Extractor struct {
	fetcher Fetcher
	regions *region.Table
	vocab   *vocab.Vocabulary
	norm    *textnorm.Normalizer
}

// New creates an extractor.
func New(fetcher Fetcher, regions *region.Table, v *vocab.Vocabulary) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		regions: regions,
		vocab:   v,
		norm:    textnorm.New(v.StopWords, v.GenericNameWords),
	}
}

// Applies reports whether rawURL is a page on a known listing host.
func (e *Extractor) Applies(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return false
	}
	return e.vocab.IsListingHost(u.Hostname())
}

// Resolve fetches a listing page and extracts the managing area. Fetch
// failures yield an empty Result.
func (e *Extractor) Resolve(ctx context.Context, rawURL string) Result {
	html, err := e.fetcher.FetchHTML(ctx, rawURL)
	if err != nil {
		logger.Warn("Listing page unavailable", logger.Fields{"url": rawURL}, err)
		return Result{}
	}
	res := e.Extract(html, rawURL)
	logger.Debug("Resolved listing page", logger.Fields{
		"url":       rawURL,
		"park_name": res.ParkName,
		"region":    res.Region,
	})
	return res
}

// Extract reads a listing page. The park name comes from the first source
// that yields one: the framework hydration blob, linked-data blocks, links to
// a park page, then the page title. The region comes from the structured
// data, the URL path, then the page text.
func (e *Extractor) Extract(html, pageURL string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{Region: e.regionFromPath(pageURL)}
	}

	var blobs []interface{}
	if raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text()); raw != "" {
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			blobs = append(blobs, v)
		}
	}
	nextCount := len(blobs)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err == nil {
			blobs = append(blobs, v)
		}
	})

	var res Result
	if name := e.bestName(blobs[:nextCount]); name != "" {
		res.ParkName = name
	} else if name := e.bestName(blobs[nextCount:]); name != "" {
		res.ParkName = name
	} else if name := e.parkLinkName(doc, pageURL); name != "" {
		res.ParkName = name
	} else {
		res.ParkName = titleName(doc.Find("title").First().Text())
	}

	res.Region = e.regionFromBlobs(blobs)
	if res.Region == "" {
		res.Region = e.regionFromPath(pageURL)
	}
	if res.Region == "" {
		doc.Find("script, style, noscript").Remove()
		if r, ok := e.regions.DetectInText(doc.Find("body").Text()); ok {
			res.Region = r.Name
		}
	}
	return res
}

// walk visits every string in a decoded JSON value with the key it was
// found under. Object keys are visited in sorted order.
func walk(v interface{}, key string, visit func(key, value string)) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(t[k], k, visit)
		}
	case []interface{}:
		for _, item := range t {
			walk(item, key, visit)
		}
	case string:
		visit(key, t)
	}
}

func (e *Extractor) bestName(blobs []interface{}) string {
	best, bestScore := "", -1
	for _, blob := range blobs {
		walk(blob, "", func(key, value string) {
			value = strings.TrimSpace(value)
			if !e.isParkName(value) {
				return
			}
			if score := e.parkLikeness(value); score > bestScore {
				best, bestScore = value, score
			}
		})
	}
	return best
}

// isParkName reports whether s is short enough to be a name and contains a
// park keyword.
func (e *Extractor) isParkName(s string) bool {
	if s == "" || len(s) > maxNameChars || strings.ContainsAny(s, "<>{}\n") {
		return false
	}
	words := textnorm.Words(s)
	if len(words) == 0 || len(words) > maxNameWords {
		return false
	}
	norm := " " + strings.Join(words, " ") + " "
	for _, kw := range e.vocab.ParkNameKeywords {
		if strings.Contains(norm, " "+kw+" ") {
			return true
		}
	}
	return false
}

func (e *Extractor) parkLikeness(name string) int {
	norm := " " + strings.Join(textnorm.Words(name), " ") + " "
	score := 0
	for _, q := range e.vocab.ParkQualifiers {
		if strings.Contains(norm, " "+q+" ") {
			score += 3
			break
		}
	}
	if strings.Contains(norm, " park ") {
		score += 3
	}
	for _, kw := range e.vocab.ParkNameKeywords {
		if kw == "park" || containsString(e.vocab.ParkQualifiers, kw) {
			continue
		}
		if strings.Contains(norm, " "+kw+" ") {
			score++
			break
		}
	}
	return score + len(e.norm.CoreNameTokens(name))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parkLinkName returns the text of the first link to a park page, or the
// de-slugged last path segment when the link has no text.
func (e *Extractor) parkLinkName(doc *goquery.Document, pageURL string) string {
	base, _ := url.Parse(pageURL)
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		if base != nil {
			u = base.ResolveReference(u)
		}
		segments := pathSegments(u.Path)
		idx := -1
		for i, seg := range segments {
			if seg == "park" || seg == "parks" {
				idx = i
				break
			}
		}
		if idx < 0 || idx == len(segments)-1 {
			return true
		}
		name := strings.Join(strings.Fields(s.Text()), " ")
		if name == "" {
			name = deslug(segments[len(segments)-1])
		}
		if name == "" {
			return true
		}
		found = name
		return false
	})
	return found
}

func pathSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, strings.ToLower(seg))
		}
	}
	return out
}

// NameFromURL turns the last path segment of a listing URL into a title-cased
// name ("summit-trail" becomes "Summit Trail"). It returns "" when the URL has
// no path.
func NameFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	segments := pathSegments(u.Path)
	if len(segments) == 0 {
		return ""
	}
	return deslug(segments[len(segments)-1])
}

func deslug(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

var titleSeparators = []string{" | ", " - ", " – ", " — ", " · ", " :: "}

// titleName strips site-name suffixes from a page title.
func titleName(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

func (e *Extractor) regionFromBlobs(blobs []interface{}) string {
	var byKey, byName string
	for _, blob := range blobs {
		walk(blob, "", func(key, value string) {
			if byKey != "" {
				return
			}
			k := strings.ToLower(key)
			if strings.Contains(k, "state") || strings.Contains(k, "region") || strings.Contains(k, "province") {
				if r, ok := e.regions.Lookup(value); ok {
					byKey = r.Name
					return
				}
			}
			if byName == "" {
				if r, ok := e.regions.LookupName(value); ok {
					byName = r.Name
				}
			}
		})
	}
	if byKey != "" {
		return byKey
	}
	return byName
}

// regionFromPath reads /trail/<country>/<region>/... listing paths.
func (e *Extractor) regionFromPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	segments := pathSegments(u.Path)
	for i := 0; i+2 < len(segments); i++ {
		if segments[i] != "trail" {
			continue
		}
		if r, ok := e.regions.Lookup(segments[i+2]); ok {
			return r.Name
		}
	}
	return ""
}

// CleanURL reduces a listing URL to scheme, host and path without a trailing
// slash, so the same trail shared with different tracking parameters groups
// together. Unparseable input is returned unchanged.
func CleanURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return "https://" + u.Hostname() + strings.TrimRight(u.Path, "/")
}
