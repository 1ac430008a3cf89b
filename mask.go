package agreement

import (
	"github.com/nao1215/agreement/domain/model"
)

// MaskOptions controls column mask resolution.
type MaskOptions struct {
	// GroupColumn is never part of the mask. Empty means no group column.
	GroupColumn string
	// First is the first column eligible for comparison. Empty means the first column.
	First string
	// Last is the last column eligible for comparison. Empty means the last column.
	Last string
	// Form, when non-nil, drops columns whose form field type carries no answer.
	Form []model.FormField
	// Separator delimits group prefixes in column names. Zero means ':'.
	Separator rune
}

// ResolveMask returns the columns, in table order, that are points of
// comparison: the inclusive range First..Last, minus the group column, minus
// columns the form declares as non-answerable (calculate, note, start, ...).
//
// Columns the form does not mention are kept. An empty result is valid.
func ResolveMask(columns []string, opts MaskOptions) ([]string, error) {
	header := model.NewHeader(columns)

	first := 0
	if opts.First != "" {
		first = header.IndexOf(opts.First)
		if first < 0 {
			return nil, &ColumnNotFoundError{Column: opts.First, Role: "first"}
		}
	}
	last := len(columns) - 1
	if opts.Last != "" {
		last = header.IndexOf(opts.Last)
		if last < 0 {
			return nil, &ColumnNotFoundError{Column: opts.Last, Role: "last"}
		}
	}
	if first > last && len(columns) > 0 {
		return nil, &InvalidRangeError{First: columns[first], Last: columns[last], FirstIndex: first, LastIndex: last}
	}

	var types *formTypes
	if opts.Form != nil {
		types = newFormTypes(opts.Form, separatorOrDefault(opts.Separator))
	}

	mask := make([]string, 0, max(0, last-first+1))
	for i := first; i <= last; i++ {
		column := columns[i]
		if opts.GroupColumn != "" && column == opts.GroupColumn {
			continue
		}
		if types != nil && types.skipped(column) {
			continue
		}
		mask = append(mask, column)
	}
	return mask, nil
}

func separatorOrDefault(sep rune) rune {
	if sep == 0 {
		return model.DefaultSeparator
	}
	return sep
}

// formTypes indexes declared field types by full name and by leaf name.
type formTypes struct {
	sep    rune
	byFull map[string]string
	byLeaf map[string]string
}

func newFormTypes(fields []model.FormField, sep rune) *formTypes {
	ft := &formTypes{
		sep:    sep,
		byFull: make(map[string]string, len(fields)),
		byLeaf: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		if _, ok := ft.byFull[f.FullName(sep)]; !ok {
			ft.byFull[f.FullName(sep)] = f.Type
		}
		// The first declaration of a leaf name wins, like the form's own order.
		if _, ok := ft.byLeaf[f.Name]; !ok {
			ft.byLeaf[f.Name] = f.Type
		}
	}
	return ft
}

// skipped reports whether column maps to a non-answerable form field.
func (ft *formTypes) skipped(column string) bool {
	if t, ok := ft.byFull[column]; ok {
		return model.IsSkippedType(t)
	}
	if t, ok := ft.byLeaf[model.LeafName(column, ft.sep)]; ok {
		return model.IsSkippedType(t)
	}
	return false
}
