package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pfrederiksen/park-fees/internal/fetch"
	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) FetchHTML(_ context.Context, rawURL string) (string, error) {
	html, ok := f.pages[rawURL]
	if !ok {
		return "", fetch.ErrUnavailable
	}
	return html, nil
}

func newExtractor(pages map[string]string) *Extractor {
	return New(&fakeFetcher{pages: pages}, region.DefaultTable(), vocab.Default())
}

const nextDataPage = `<html><head><title>Old Rag Mountain Loop | Map, Guide - Virginia | AllTrails</title>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"trail":{
  "name":"Old Rag Mountain Loop",
  "description":"Generally considered a challenging route near Shenandoah National Park and the Blue Ridge",
  "area":{"name":"Shenandoah National Park","slug":"shenandoah-national-park"},
  "location":{"city":"Etlan","regionName":"Virginia","country":"United States"}
}}}}
</script></head><body><h1>Old Rag Mountain Loop</h1></body></html>`

func TestExtractHydrationData(t *testing.T) {
	e := newExtractor(nil)
	got := e.Extract(nextDataPage, "https://www.alltrails.com/trail/us/virginia/old-rag-mountain-loop")

	if got.ParkName != "Shenandoah National Park" {
		t.Errorf("ParkName = %q, want %q", got.ParkName, "Shenandoah National Park")
	}
	if got.Region != "Virginia" {
		t.Errorf("Region = %q, want %q", got.Region, "Virginia")
	}
}

func TestExtractPrefersMostParkLikeName(t *testing.T) {
	page := `<html><body><script id="__NEXT_DATA__">
{"a":{"name":"Pine Ridge Forest"},"b":{"name":"Custer State Park"},"c":{"name":"Sylvan Lake Trail"}}
</script></body></html>`

	got := newExtractor(nil).Extract(page, "https://www.alltrails.com/trail/x")
	if got.ParkName != "Custer State Park" {
		t.Errorf("ParkName = %q, want Custer State Park", got.ParkName)
	}
}

func TestExtractLinkedData(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{"@type":"Place","name":"Emerald Lake Trail","containedInPlace":{"@type":"Park","name":"Rocky Mountain National Park","address":{"addressRegion":"CO"}}}</script>
</head><body></body></html>`

	got := newExtractor(nil).Extract(page, "https://www.hikingproject.com/trail/7001/emerald-lake")
	if got.ParkName != "Rocky Mountain National Park" {
		t.Errorf("ParkName = %q", got.ParkName)
	}
	if got.Region != "Colorado" {
		t.Errorf("Region = %q, want Colorado", got.Region)
	}
}

func TestExtractParkLink(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "link text",
			html: `<a href="/about">About</a><a href="/parks/us/utah/zion-national-park">Zion National Park</a>`,
			want: "Zion National Park",
		},
		{
			name: "slug when link has no text",
			html: `<a href="https://www.alltrails.com/parks/us/utah/bryce-canyon-national-park"><img src="x.png"></a>`,
			want: "Bryce Canyon National Park",
		},
		{
			name: "bare parks index is ignored",
			html: `<a href="/parks">All parks</a><title>Angels Landing - Utah | AllTrails</title>`,
			want: "Angels Landing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newExtractor(nil).Extract("<html>"+tt.html+"</html>", "https://www.alltrails.com/trail/us/utah/x")
			if got.ParkName != tt.want {
				t.Errorf("ParkName = %q, want %q", got.ParkName, tt.want)
			}
		})
	}
}

func TestExtractRegionFallbacks(t *testing.T) {
	e := newExtractor(nil)

	got := e.Extract(`<html><title>Trail</title></html>`, "https://www.alltrails.com/trail/us/new-mexico/la-luz-trail")
	if got.Region != "New Mexico" {
		t.Errorf("Region from path = %q, want New Mexico", got.Region)
	}

	got = e.Extract(`<html><body><p>A loop in the Ozarks of Arkansas.</p><script>var s = "Texas";</script></body></html>`,
		"https://www.trailforks.com/trails/ozark-loop/")
	if got.Region != "Arkansas" {
		t.Errorf("Region from text = %q, want Arkansas", got.Region)
	}
}

func TestApplies(t *testing.T) {
	e := newExtractor(nil)

	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.alltrails.com/trail/us/virginia/old-rag", true},
		{"https://alltrails.com/trail/x", true},
		{"https://www.trailforks.com/region/x", true},
		{"https://www.nps.gov/shen/index.htm", false},
		{"Shenandoah National Park", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := e.Applies(tt.in); got != tt.want {
			t.Errorf("Applies(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trail/us/virginia/old-rag-mountain-loop" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(nextDataPage))
	}))
	defer server.Close()

	e := New(fetch.New(), region.DefaultTable(), vocab.Default())

	got := e.Resolve(context.Background(), server.URL+"/trail/us/virginia/old-rag-mountain-loop")
	if got.ParkName != "Shenandoah National Park" || got.Region != "Virginia" {
		t.Errorf("Resolve() = %+v", got)
	}

	got = e.Resolve(context.Background(), server.URL+"/missing")
	if !got.Empty() {
		t.Errorf("Resolve(missing) = %+v, want empty", got)
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.alltrails.com/trail/us/virginia/old-rag/?ref=share#map", "https://www.alltrails.com/trail/us/virginia/old-rag"},
		{"http://alltrails.com/trail/x///", "https://alltrails.com/trail/x"},
		{"Old Rag", "Old Rag"},
	}
	for _, tt := range tests {
		if got := CleanURL(tt.in); got != tt.want {
			t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.alltrails.com/trail/us/texas/summit-trail", "Summit Trail"},
		{"https://www.alltrails.com/trail/us/virginia/old_rag/?ref=share", "Old Rag"},
		{"https://www.alltrails.com/", ""},
	}
	for _, tt := range tests {
		if got := NameFromURL(tt.in); got != tt.want {
			t.Errorf("NameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
