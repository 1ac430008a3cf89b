// Package model provides the domain model for agreement analysis: typed cell
// values, in-memory tables, form metadata and group partitions.
package model

// Header is the ordered list of column names of a table.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// IndexOf returns the position of name in the header, or -1.
func (h Header) IndexOf(name string) int {
	for i, v := range h {
		if v == name {
			return i
		}
	}
	return -1
}

// Record is a raw, untyped file record.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Row is one typed table row, aligned with the table header.
type Row []Value

// Equal compare Row cell by cell. Missing cells compare equal to each other
// here, unlike Value.Equal, because this is structural equality.
func (r Row) Equal(r2 Row) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v.Key() != r2[i].Key() {
			return false
		}
	}
	return true
}

// ColumnType represents the inferred type of a column
type ColumnType int

const (
	// ColumnTypeText represents a column of free text answers
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents a column whose answers are all integers
	ColumnTypeInteger
	// ColumnTypeReal represents a numeric column with at least one fractional answer
	ColumnTypeReal
)

// String returns the column type name
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeText:
		return "text"
	case ColumnTypeInteger:
		return "integer"
	case ColumnTypeReal:
		return "real"
	default:
		return "text"
	}
}

// IsNumeric reports whether cells of this column are parsed as numbers.
func (ct ColumnType) IsNumeric() bool {
	return ct == ColumnTypeInteger || ct == ColumnTypeReal
}

// ColumnInfo represents column information with name and inferred type
type ColumnInfo struct {
	Name string
	Type ColumnType
}
