package agreement

import (
	"fmt"

	"github.com/nao1215/agreement/domain/model"
)

// AnalyzeOptions gathers the inputs of a full analysis.
type AnalyzeOptions struct {
	// GroupColumn identifies group membership. Empty treats all rows as one group.
	GroupColumn string
	// First and Last bound the compared columns; empty means the table edges.
	First string
	Last  string
	// Form is the optional form definition used to drop non-answerable columns.
	Form []model.FormField
	// Separator delimits group prefixes in column names. Zero means ':'.
	Separator rune
	// Scoring selects the column scoring. The zero value is ScoringModal.
	Scoring Scoring
}

// Dataset is the agreement analysis of a whole table.
type Dataset struct {
	// Table is the analyzed table
	Table *model.Table
	// GroupColumn is the grouping column, empty for a single implicit group
	GroupColumn string
	// Mask is the resolved list of compared columns
	Mask []string
	// Groups holds one summary per group, in first-appearance order
	Groups []GroupSummary
	// Unaccounted lists rows whose group identifier is missing
	Unaccounted []int
}

// Analyze resolves the column mask and computes every group's agreement.
func Analyze(table *model.Table, opts AnalyzeOptions) (*Dataset, error) {
	if opts.GroupColumn != "" && !table.HasColumn(opts.GroupColumn) {
		return nil, &ColumnNotFoundError{Column: opts.GroupColumn, Role: "group"}
	}

	mask, err := ResolveMask(table.Header(), MaskOptions{
		GroupColumn: opts.GroupColumn,
		First:       opts.First,
		Last:        opts.Last,
		Form:        opts.Form,
		Separator:   opts.Separator,
	})
	if err != nil {
		return nil, err
	}

	partition, err := Partition(table, opts.GroupColumn)
	if err != nil {
		return nil, err
	}
	groups, err := computePartition(table, partition, mask, WithScoring(opts.Scoring))
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Table:       table,
		GroupColumn: opts.GroupColumn,
		Mask:        mask,
		Groups:      groups,
		Unaccounted: partition.Unassigned(),
	}, nil
}

// Len returns the number of groups.
func (d *Dataset) Len() int {
	return len(d.Groups)
}

// GroupIDs returns the group identifiers in output order.
func (d *Dataset) GroupIDs() []model.Value {
	ids := make([]model.Value, len(d.Groups))
	for i, g := range d.Groups {
		ids[i] = g.GroupID
	}
	return ids
}

// Group returns the summary of the group whose identifier equals id.
// For a dataset without a group column, pass model.MissingValue() to get
// the single implicit group.
func (d *Dataset) Group(id model.Value) (GroupSummary, error) {
	for _, g := range d.Groups {
		if g.GroupID.Key() == id.Key() {
			return g, nil
		}
	}
	return GroupSummary{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
}

// Disagreements returns the rows of group id restricted to the masked columns
// where the group answered but was not unanimous. The group column, when
// set, is kept as the first column.
func (d *Dataset) Disagreements(id model.Value) (*model.Table, error) {
	g, err := d.Group(id)
	if err != nil {
		return nil, err
	}

	var header model.Header
	if d.GroupColumn != "" {
		header = append(header, d.GroupColumn)
	}
	header = append(header, g.Disagreements()...)

	positions := make([]int, len(header))
	for i, column := range header {
		pos, ok := d.Table.ColumnIndex(column)
		if !ok {
			return nil, &ColumnNotFoundError{Column: column, Role: "mask"}
		}
		positions[i] = pos
	}

	source := d.Table.Rows()
	rows := make([]model.Row, len(g.Rows))
	for i, r := range g.Rows {
		row := make(model.Row, len(positions))
		for j, pos := range positions {
			row[j] = source[r][pos]
		}
		rows[i] = row
	}
	return model.NewTable(d.Table.Name()+"_disagreements", header, rows), nil
}
