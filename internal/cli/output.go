package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/park-fees/internal/batch"
	"github.com/pfrederiksen/park-fees/internal/verdict"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// LookupResult is the output of the lookup command
type LookupResult struct {
	CheckedAt time.Time       `json:"checked_at"`
	Query     string          `json:"query"`
	State     string          `json:"state,omitempty"`
	Verdict   verdict.Verdict `json:"verdict"`
}

// BatchResult is the report of the batch command
type BatchResult struct {
	CheckedAt  time.Time            `json:"checked_at"`
	RunID      string               `json:"run_id"`
	Output     string               `json:"output,omitempty"`
	RowCount   int                  `json:"row_count"`
	GroupCount int                  `json:"group_count"`
	Skipped    int                  `json:"skipped"`
	Verified   int                  `json:"verified"`
	ByKind     map[verdict.Kind]int `json:"by_kind"`
	Results    []batch.GroupResult  `json:"results"`
	DurationMS int64                `json:"duration_ms"`
}

func newBatchResult(s batch.Summary, output string) *BatchResult {
	return &BatchResult{
		CheckedAt:  time.Now().UTC(),
		RunID:      s.RunID,
		Output:     output,
		RowCount:   s.Rows,
		GroupCount: s.Groups,
		Skipped:    s.Skipped,
		Verified:   s.Verified,
		ByKind:     s.ByKind,
		Results:    append([]batch.GroupResult(nil), s.Results...),
		DurationMS: s.Duration.Milliseconds(),
	}
}

// WriteLookup writes a lookup result in the specified format
func WriteLookup(w io.Writer, result *LookupResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeLookupText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteBatch writes a batch report in the specified format, with results in
// the given order
func WriteBatch(w io.Writer, result *BatchResult, format OutputFormat, verbose bool, order SortOrder) error {
	sortResults(result.Results, order)
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeBatchText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeLookupText(w io.Writer, result *LookupResult, verbose bool) error {
	v := result.Verdict
	label := result.Query
	if result.State != "" {
		label = fmt.Sprintf("%s (%s)", result.Query, result.State)
	}

	fmt.Fprintf(w, "%s\n", label)
	fmt.Fprintf(w, "  Fee: %s\n", v.FeeInfo)
	switch v.Kind {
	case verdict.KindNoFee, verdict.KindGeneral, verdict.KindParking:
		fmt.Fprintf(w, "  Source: %s\n", v.URL)
	case verdict.KindHomepage:
		fmt.Fprintf(w, "  Homepage: %s\n", v.Homepage)
	case verdict.KindNotVerified:
		fmt.Fprintln(w, "  No supporting page found.")
	}

	if verbose {
		fmt.Fprintf(w, "  Kind: %s\n", v.Kind)
		if v.Title != "" {
			fmt.Fprintf(w, "  Title: %s\n", v.Title)
		}
		if d := v.Domain(); d != "" {
			fmt.Fprintf(w, "  Domain: %s\n", d)
		}
	}
	return nil
}

func writeBatchText(w io.Writer, result *BatchResult, verbose bool) error {
	if result.RowCount == 0 {
		fmt.Fprintln(w, "No rows found.")
		return nil
	}

	for _, r := range result.Results {
		name := r.Name
		if r.Region != "" {
			name = fmt.Sprintf("%s (%s)", r.Name, r.Region)
		}
		fmt.Fprintf(w, "%-13s %s: %s\n", "["+string(r.Verdict.Kind)+"]", name, r.Verdict.FeeInfo)
		if verbose {
			if src := batch.Augment(r.Name, r.Verdict).FeeSource; src != "" {
				fmt.Fprintf(w, "              Source: %s\n", src)
			}
			fmt.Fprintf(w, "              Rows: %d\n", len(r.Rows))
		}
	}

	fmt.Fprintf(w, "\nTotal: %d rows in %d groups, %d verified", result.RowCount, result.GroupCount, result.Verified)
	if result.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", result.Skipped)
	}
	fmt.Fprintln(w)
	if result.Output != "" {
		fmt.Fprintf(w, "Wrote %s\n", result.Output)
	}
	if verbose {
		fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	}
	return nil
}
