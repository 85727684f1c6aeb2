package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Output column names.
const (
	ColFeeInfo   = "Fee Info"
	ColFeeSource = "Fee Source"
	ColAlert     = "Alert"
)

// Input column names, in priority order.
var (
	NameColumns   = []string{"name", "trail_name", "park", "Park Name", "Park"}
	URLColumns    = []string{"url", "link"}
	RegionColumns = []string{"state", "State"}
)

// Table is a CSV file with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses CSV with a header row. Short rows are padded to the
// header width and blank rows are skipped.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading CSV: missing header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := &Table{Header: header}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// WriteTable writes the header and rows as CSV.
func WriteTable(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}

// Column returns the index of the first header among names, or -1.
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
	}
	return -1
}

// ensureColumn returns the index of name, appending it to the header and
// every row when missing.
func (t *Table) ensureColumn(name string) int {
	if i := t.Column(name); i >= 0 {
		return i
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Header) - 1
}

func (t *Table) cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
