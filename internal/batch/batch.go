package batch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/park-fees/internal/listing"
	"github.com/pfrederiksen/park-fees/internal/logger"
	"github.com/pfrederiksen/park-fees/internal/lookup"
	"github.com/pfrederiksen/park-fees/internal/region"
	"github.com/pfrederiksen/park-fees/internal/textnorm"
	"github.com/pfrederiksen/park-fees/internal/verdict"
	"github.com/pfrederiksen/park-fees/internal/vocab"
)

// DefaultConcurrency is the number of lookups run at once.
const DefaultConcurrency = 4

// Looker performs one fee lookup.
type Looker interface {
	LookupFee(ctx context.Context, req lookup.Request) verdict.Verdict
}

// Group is a set of rows that share one lookup.
type Group struct {
	Key     string
	Display string
	Request lookup.Request
	Rows    []int
}

// GroupResult is the verdict shared by the rows of one group. Rows are
// zero-based data row indexes.
type GroupResult struct {
	Name    string          `json:"name"`
	Region  string          `json:"state,omitempty"`
	Rows    []int           `json:"rows"`
	Verdict verdict.Verdict `json:"verdict"`
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Rows     int
	Groups   int
	Skipped  int
	Verified int
	ByKind   map[verdict.Kind]int
	Results  []GroupResult
	Duration time.Duration
}

// Runner processes tables.
type Runner struct {
	looker      Looker
	vocab       *vocab.Vocabulary
	regions     *region.Table
	concurrency int
	homepage    bool
	progress    func(done, total int)
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency sets the worker count.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithHomepage controls whether lookups fall back to an official homepage.
func WithHomepage(enabled bool) Option {
	return func(r *Runner) { r.homepage = enabled }
}

// WithProgress registers a callback invoked after each group with the
// number of rows done so far.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithVocabulary replaces the vocabulary used to recognise listing URLs.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(r *Runner) { r.vocab = v }
}

// WithRegions sets the region table used to group rows whose region is
// written differently ("TX", "Texas").
func WithRegions(t *region.Table) Option {
	return func(r *Runner) { r.regions = t }
}

// NewRunner creates a batch runner.
func NewRunner(looker Looker, opts ...Option) *Runner {
	r := &Runner{
		looker:      looker,
		vocab:       vocab.Default(),
		regions:     region.DefaultTable(),
		concurrency: DefaultConcurrency,
		homepage:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// regionKey returns the region code for hint, or the normalized hint when the
// table does not know it.
func (r *Runner) regionKey(hint string) string {
	if reg, ok := r.regions.Lookup(hint); ok {
		return reg.Code
	}
	return textnorm.Normalize(hint)
}

func (r *Runner) isListing(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	return r.vocab.IsListingHost(u.Hostname())
}

// Plan groups the rows of t. Listing URLs take precedence over names and
// are cleaned so share links of the same trail group together. Rows with
// neither a name nor a URL are left out.
func (r *Runner) Plan(t *Table) []Group {
	nameCol := t.Column(NameColumns...)
	urlCol := t.Column(URLColumns...)
	regionCol := t.Column(RegionColumns...)

	var groups []Group
	index := make(map[string]int)
	for i, row := range t.Rows {
		name := t.cell(row, nameCol)
		link := t.cell(row, urlCol)
		regionHint := t.cell(row, regionCol)

		listingURL := link != "" && r.isListing(link)
		q := name
		if listingURL {
			q = listing.CleanURL(link)
		} else if q == "" {
			q = link
		}
		if q == "" {
			continue
		}

		key := textnorm.Normalize(q) + "|" + r.regionKey(regionHint)
		if gi, ok := index[key]; ok {
			groups[gi].Rows = append(groups[gi].Rows, i)
			continue
		}

		display := name
		if display == "" {
			display = q
		}
		req := lookup.Request{Query: q, RegionHint: regionHint, WantHomepage: r.homepage}
		if !listingURL {
			req.DisplayNameHint = display
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Display: display, Request: req, Rows: []int{i}})
	}
	return groups
}

// Run looks up every group of t and returns a copy of t with the output
// columns filled in. Rows that could not be grouped are marked unverified.
func (r *Runner) Run(ctx context.Context, t *Table) (*Table, Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	groups := r.Plan(t)

	summary := Summary{
		RunID:  runID,
		Rows:   len(t.Rows),
		Groups: len(groups),
		ByKind: make(map[verdict.Kind]int),
	}
	logger.AddCounter("batch.rows", int64(len(t.Rows)))
	logger.AddCounter("batch.groups", int64(len(groups)))
	logger.Info("Starting batch run", logger.Fields{
		"run_id":      runID,
		"rows":        len(t.Rows),
		"groups":      len(groups),
		"concurrency": r.concurrency,
	})

	results := r.lookupAll(ctx, groups, len(t.Rows))
	if err := ctx.Err(); err != nil {
		return nil, summary, fmt.Errorf("batch run %s cancelled: %w", runID, err)
	}

	out := &Table{Header: append([]string(nil), t.Header...)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	infoCol := out.ensureColumn(ColFeeInfo)
	sourceCol := out.ensureColumn(ColFeeSource)
	alertCol := out.ensureColumn(ColAlert)

	grouped := make([]bool, len(out.Rows))
	for _, g := range groups {
		v := results[g.Key]
		summary.ByKind[v.Kind]++
		if v.Verified() {
			summary.Verified++
		}
		summary.Results = append(summary.Results, GroupResult{
			Name:    g.Display,
			Region:  g.Request.RegionHint,
			Rows:    g.Rows,
			Verdict: v,
		})
		a := Augment(g.Display, v)
		for _, i := range g.Rows {
			out.Rows[i][infoCol] = a.FeeInfo
			out.Rows[i][sourceCol] = a.FeeSource
			out.Rows[i][alertCol] = a.Alert
			grouped[i] = true
		}
	}
	for i, ok := range grouped {
		if ok {
			continue
		}
		summary.Skipped++
		a := Augment("", verdict.NotVerified())
		out.Rows[i][infoCol] = a.FeeInfo
		out.Rows[i][sourceCol] = a.FeeSource
		out.Rows[i][alertCol] = a.Alert
	}

	summary.Duration = time.Since(start)
	logger.Info("Finished batch run", logger.Fields{
		"run_id":      runID,
		"verified":    summary.Verified,
		"skipped":     summary.Skipped,
		"duration_ms": summary.Duration.Milliseconds(),
	})
	return out, summary, nil
}

// lookupAll runs one lookup per group on the worker pool.
func (r *Runner) lookupAll(ctx context.Context, groups []Group, totalRows int) map[string]verdict.Verdict {
	results := make(map[string]verdict.Verdict, len(groups))
	var mu sync.Mutex
	done := 0

	jobs := make(chan Group)
	var wg sync.WaitGroup

	workers := r.concurrency
	if workers > len(groups) {
		workers = len(groups)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				v := r.looker.LookupFee(ctx, g.Request)

				mu.Lock()
				results[g.Key] = v
				done += len(g.Rows)
				if r.progress != nil {
					r.progress(done, totalRows)
				}
				mu.Unlock()
			}
		}()
	}

	for _, g := range groups {
		if ctx.Err() != nil {
			break
		}
		jobs <- g
	}
	close(jobs)
	wg.Wait()
	return results
}

// Augmented holds the output columns for one row.
type Augmented struct {
	FeeInfo   string
	FeeSource string
	Alert     string
}

// Augment renders a verdict as output columns. The fee source falls back to
// the homepage when there is no fee page.
func Augment(displayName string, v verdict.Verdict) Augmented {
	source := v.URL
	if source == "" {
		source = v.Homepage
	}
	info := v.FeeInfo
	if info == "" {
		info = verdict.InfoNotVerified
	}

	alert := "unverified"
	switch v.Kind {
	case verdict.KindNoFee:
		alert = "no fee"
	case verdict.KindGeneral:
		alert = fmt.Sprintf("%s charges a fee to enter. For more information, please visit %s.", displayName, source)
	case verdict.KindParking:
		alert = fmt.Sprintf("There is a fee to park at %s. For more information, please visit %s.", displayName, source)
	case verdict.KindHomepage, verdict.KindNotVerified:
	}
	return Augmented{FeeInfo: info, FeeSource: source, Alert: alert}
}
