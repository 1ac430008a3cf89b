package model

import (
	"path/filepath"
	"strings"
)

// Table is an in-memory dataset: an ordered header and typed rows.
// Every row has exactly one cell per header column.
type Table struct {
	// name is derived from the file path.
	name string
	// header is the ordered column list.
	header Header
	// rows are padded or truncated to len(header).
	rows []Row
	// columnInfo contains the type of each column
	columnInfo []ColumnInfo
	// index maps column name to position
	index map[string]int
}

// NewTable creates a Table from typed rows. Short rows are padded with
// missing values and long rows truncated to the header width.
func NewTable(name string, header Header, rows []Row) *Table {
	normalized := make([]Row, len(rows))
	for i, row := range rows {
		normalized[i] = fitRow(row, len(header))
	}
	return newTable(name, header, normalized, columnInfoFromRows(header, normalized))
}

// NewTableFromRecords creates a Table from raw string records, inferring
// each column's type and converting cells accordingly.
func NewTableFromRecords(name string, header Header, records []Record, missing MissingSet) *Table {
	info := InferColumnsInfo(header, records, missing)
	rows := make([]Row, len(records))
	for i, record := range records {
		row := make(Row, len(header))
		for j := range header {
			if j < len(record) {
				row[j] = ParseValue(record[j], info[j].Type, missing)
			}
		}
		rows[i] = row
	}
	return newTable(name, header, rows, info)
}

func newTable(name string, header Header, rows []Row, info []ColumnInfo) *Table {
	index := make(map[string]int, len(header))
	for i, col := range header {
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	return &Table{
		name:       name,
		header:     header,
		rows:       rows,
		columnInfo: info,
		index:      index,
	}
}

func fitRow(row Row, width int) Row {
	out := make(Row, width)
	copy(out, row)
	return out
}

// Name return table name.
func (t *Table) Name() string {
	return t.name
}

// Header return table header.
func (t *Table) Header() Header {
	return t.header
}

// Rows return table rows.
func (t *Table) Rows() []Row {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// ColumnInfo returns column information with inferred types
func (t *Table) ColumnInfo() []ColumnInfo {
	return t.columnInfo
}

// ColumnIndex returns the position of a column and whether it exists.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns all cells of the named column in row order.
func (t *Table) Column(name string) ([]Value, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &ColumnNotFoundError{Column: name}
	}
	values := make([]Value, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return values, nil
}

// Equal compare Table.
func (t *Table) Equal(t2 *Table) bool {
	if t.Name() != t2.Name() {
		return false
	}
	if !t.header.Equal(t2.header) {
		return false
	}
	if len(t.Rows()) != len(t2.Rows()) {
		return false
	}
	for i, row := range t.Rows() {
		if !row.Equal(t2.Rows()[i]) {
			return false
		}
	}
	return true
}

// TableFromFilePath creates table name from file path
func TableFromFilePath(filePath string) string {
	fileName := filepath.Base(filePath)
	// Remove compression extensions first
	for _, ext := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		if strings.HasSuffix(fileName, ext) {
			fileName = strings.TrimSuffix(fileName, ext)
			break
		}
	}
	// Then remove the file type extension
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
