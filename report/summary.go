// Package report renders agreement results: a plain text summary, tabular
// exports in the formats the loader reads, and bar charts.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/agreement"
	"github.com/nao1215/agreement/domain/model"
)

// GroupLabel is the display name of a group identifier. Text is quoted so
// "1" and 1 stay distinguishable; the implicit single group is "(all rows)".
func GroupLabel(id model.Value) string {
	switch id.Kind() {
	case model.KindText:
		return strconv.Quote(id.String())
	case model.KindNumber:
		return id.String()
	default:
		return "(all rows)"
	}
}

// WriteSummary prints one block per group:
//
//	*** Summary for group "H1"
//	- Points of comparison: 12
//	- Total agreement: 0.9166666666666666
//
// A group without points of comparison reports "n/a" as its total.
func WriteSummary(w io.Writer, groups []agreement.GroupSummary) error {
	for _, g := range groups {
		total := "n/a"
		if g.Defined() {
			total = strconv.FormatFloat(g.TotalAgreement, 'f', -1, 64)
		}
		if _, err := fmt.Fprintf(w, "*** Summary for group %s\n- Points of comparison: %d\n- Total agreement: %s\n",
			GroupLabel(g.GroupID), g.Comparisons, total); err != nil {
			return err
		}
	}
	return nil
}

// WriteDatasetSummary prints the group summaries followed by a line for rows
// that belong to no group.
func WriteDatasetSummary(w io.Writer, d *agreement.Dataset) error {
	if d == nil {
		return ErrNoDataset
	}
	if err := WriteSummary(w, d.Groups); err != nil {
		return err
	}
	if n := len(d.Unaccounted); n > 0 {
		if _, err := fmt.Fprintf(w, "*** %d row(s) without a value in %q were not analyzed\n", n, d.GroupColumn); err != nil {
			return err
		}
	}
	return nil
}
