package model

import (
	"strconv"
	"strings"
)

// DefaultMissingTokens are the cell contents read as missing answers.
// Matching is exact after trimming surrounding whitespace.
var DefaultMissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "#N/A"}

// MissingSet is a set of cell contents that denote a missing answer.
type MissingSet map[string]struct{}

// NewMissingSet builds a MissingSet. The empty string is always included.
func NewMissingSet(tokens []string) MissingSet {
	set := MissingSet{"": {}}
	for _, t := range tokens {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	return set
}

// Contains reports whether raw denotes a missing answer.
func (m MissingSet) Contains(raw string) bool {
	_, ok := m[strings.TrimSpace(raw)]
	return ok
}

// InferColumnType infers whether a column holds integers, reals or text.
// Missing cells are skipped; a column with no answers at all is text.
func InferColumnType(values []string, missing MissingSet) ColumnType {
	hasReal := false
	hasInteger := false

	for _, value := range values {
		if missing.Contains(value) {
			continue
		}
		value = strings.TrimSpace(value)

		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			hasInteger = true
			continue
		}
		if isFloat(value) {
			hasReal = true
			continue
		}
		// One text answer makes the whole column text
		return ColumnTypeText
	}

	if hasReal {
		return ColumnTypeReal
	}
	if hasInteger {
		return ColumnTypeInteger
	}
	return ColumnTypeText
}

// isFloat accepts decimal numbers only; strconv also accepts "Inf" and "NaN"
// spellings which are answers, not numbers, in survey data.
func isFloat(value string) bool {
	hasDigit := false
	for _, r := range value {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

// ParseValue converts a raw cell into a Value according to its column type.
// Text columns keep the raw string untrimmed.
func ParseValue(raw string, ct ColumnType, missing MissingSet) Value {
	if missing.Contains(raw) {
		return MissingValue()
	}
	if ct.IsNumeric() {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return NumberValue(f)
		}
	}
	return TextValue(raw)
}

// InferColumnsInfo infers column information from header and raw records
func InferColumnsInfo(header Header, records []Record, missing MissingSet) []ColumnInfo {
	columns := make([]ColumnInfo, len(header))
	for i, name := range header {
		values := make([]string, 0, len(records))
		for _, record := range records {
			if i < len(record) {
				values = append(values, record[i])
			}
		}
		columns[i] = ColumnInfo{Name: name, Type: InferColumnType(values, missing)}
	}
	return columns
}

// columnInfoFromRows derives column types from already typed rows.
func columnInfoFromRows(header Header, rows []Row) []ColumnInfo {
	columns := make([]ColumnInfo, len(header))
	for i, name := range header {
		ct := ColumnTypeText
		numbers, texts := 0, 0
		integral := true
		for _, row := range rows {
			f, ok := row[i].Float()
			switch {
			case ok:
				numbers++
				if f != float64(int64(f)) {
					integral = false
				}
			case row[i].Kind() == KindText:
				texts++
			}
		}
		if numbers > 0 && texts == 0 {
			ct = ColumnTypeReal
			if integral {
				ct = ColumnTypeInteger
			}
		}
		columns[i] = ColumnInfo{Name: name, Type: ct}
	}
	return columns
}
