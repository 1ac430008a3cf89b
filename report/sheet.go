package report

import (
	"strconv"

	"github.com/nao1215/agreement"
	"github.com/nao1215/agreement/domain/model"
)

// cellKind is the storage type of an exported column.
type cellKind int

const (
	kindString cellKind = iota
	kindInt
	kindFloat
	kindBool
)

// sheet is a typed rectangular result ready for any output format.
// Cells hold string, int, float64, bool or nil.
type sheet struct {
	name   string
	header []string
	kinds  []cellKind
	rows   [][]any
}

// summarySheet has one row per group.
func summarySheet(d *agreement.Dataset) *sheet {
	s := &sheet{
		name:   "agreement",
		header: []string{"group", "size", "comparisons", "total_agreement", "defined", "scoring", "disagreements"},
		kinds:  []cellKind{groupKind(d), kindInt, kindInt, kindFloat, kindBool, kindString, kindInt},
	}
	for _, g := range d.Groups {
		s.rows = append(s.rows, []any{
			valueCell(g.GroupID),
			g.Size,
			g.Comparisons,
			g.TotalAgreement,
			g.Defined(),
			g.Scoring.String(),
			len(g.Disagreements()),
		})
	}
	return s
}

// columnSheet has one row per group and masked column.
func columnSheet(d *agreement.Dataset) *sheet {
	s := &sheet{
		name: "columns",
		header: []string{
			"group", "column", "observed", "missing", "modal_count",
			"rate", "answer", "tied", "unanimous",
		},
		kinds: []cellKind{
			groupKind(d), kindString, kindInt, kindInt, kindInt,
			kindFloat, kindString, kindBool, kindBool,
		},
	}
	for _, g := range d.Groups {
		for _, c := range g.Columns {
			var answer any
			if !c.Answer.IsMissing() {
				answer = c.Answer.String()
			}
			s.rows = append(s.rows, []any{
				valueCell(g.GroupID),
				c.Column,
				c.Observed,
				c.Missing,
				c.ModalCount,
				c.Rate,
				answer,
				c.Tied,
				c.Unanimous,
			})
		}
	}
	return s
}

// tableSheet converts a table. Numeric columns stay numeric.
func tableSheet(t *model.Table) *sheet {
	s := &sheet{
		name:   t.Name(),
		header: append([]string(nil), t.Header()...),
		kinds:  make([]cellKind, len(t.Header())),
	}
	for i, info := range t.ColumnInfo() {
		if info.Type.IsNumeric() {
			s.kinds[i] = kindFloat
		}
	}
	for _, row := range t.Rows() {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = valueCell(v)
			if cells[i] != nil && s.kinds[i] == kindString {
				cells[i] = v.String()
			}
		}
		s.rows = append(s.rows, cells)
	}
	return s
}

// groupKind is float when every group identifier is a number.
func groupKind(d *agreement.Dataset) cellKind {
	if len(d.Groups) == 0 {
		return kindString
	}
	for _, g := range d.Groups {
		if _, ok := g.GroupID.Float(); !ok {
			return kindString
		}
	}
	return kindFloat
}

func valueCell(v model.Value) any {
	switch v.Kind() {
	case model.KindNumber:
		f, _ := v.Float()
		return f
	case model.KindText:
		return v.String()
	default:
		return nil
	}
}

// formatCell renders a cell for the text formats. Nil is empty.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return ""
	}
}

// records renders the header and rows as strings.
func (s *sheet) records() [][]string {
	out := make([][]string, 0, len(s.rows)+1)
	out = append(out, s.header)
	for _, row := range s.rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCell(v)
		}
		out = append(out, record)
	}
	return out
}
