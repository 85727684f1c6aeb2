package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/park-fees/internal/batch"
	"github.com/pfrederiksen/park-fees/internal/verdict"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByInput SortOrder = "input"
	SortByName  SortOrder = "name"
	SortByKind  SortOrder = "kind"
)

// kindRank orders fees first, then no-fee, then the unverified kinds.
var kindRank = map[verdict.Kind]int{
	verdict.KindGeneral:     0,
	verdict.KindParking:     1,
	verdict.KindNoFee:       2,
	verdict.KindHomepage:    3,
	verdict.KindNotVerified: 4,
}

// sortResults sorts batch results based on the specified sort order
func sortResults(results []batch.GroupResult, order SortOrder) {
	switch order {
	case SortByInput:
		sort.SliceStable(results, func(i, j int) bool {
			return firstRow(results[i]) < firstRow(results[j])
		})
	case SortByName:
		sort.SliceStable(results, func(i, j int) bool {
			return compareByName(results[i], results[j])
		})
	case SortByKind:
		sort.SliceStable(results, func(i, j int) bool {
			ri, rj := kindRank[results[i].Verdict.Kind], kindRank[results[j].Verdict.Kind]
			if ri != rj {
				return ri < rj
			}
			// If kinds are equal, sort by name
			return compareByName(results[i], results[j])
		})
	}
}

// compareByName compares two results by name, then region, then input order
func compareByName(i, j batch.GroupResult) bool {
	ni, nj := strings.ToLower(i.Name), strings.ToLower(j.Name)
	if ni != nj {
		return ni < nj
	}
	if i.Region != j.Region {
		return i.Region < j.Region
	}
	return firstRow(i) < firstRow(j)
}

func firstRow(r batch.GroupResult) int {
	if len(r.Rows) == 0 {
		return -1
	}
	return r.Rows[0]
}
