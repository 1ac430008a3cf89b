package model

import "strings"

// Group nesting separators used in dataset column names. ODK Aggregate
// exports use ':', ODK Briefcase uses '-'.
const (
	DefaultSeparator   = ':'
	AlternateSeparator = '-'
)

// SkippedTypes are form field types that never carry a respondent answer
// worth comparing.
var SkippedTypes = []string{
	"type",
	"calculate",
	"note",
	"start",
	"end",
	"deviceid",
	"simserial",
	"phonenumber",
	"hidden",
	"",
}

// SkippedTypePrefixes skip every type that begins with one of them.
var SkippedTypePrefixes = []string{
	"hidden ",
	"begin ",
	"end ",
}

// IsSkippedType reports whether a form field type is excluded from comparison.
func IsSkippedType(fieldType string) bool {
	fieldType = strings.TrimSpace(fieldType)
	for _, t := range SkippedTypes {
		if fieldType == t {
			return true
		}
	}
	for _, p := range SkippedTypePrefixes {
		if strings.HasPrefix(fieldType, p) {
			return true
		}
	}
	return false
}

// FormField is one row of a form definition.
type FormField struct {
	// Type is the declared field type, e.g. "text", "select_one yes_no", "calculate"
	Type string
	// Name is the leaf field name
	Name string
	// Label is the first label column, if any
	Label string
	// Path holds the names of the enclosing groups and repeats, outermost first
	Path []string
}

// FullName joins Path and Name with sep, matching dataset column names
// such as "household:member:age".
func (f FormField) FullName(sep rune) string {
	if len(f.Path) == 0 {
		return f.Name
	}
	parts := make([]string, 0, len(f.Path)+1)
	parts = append(parts, f.Path...)
	parts = append(parts, f.Name)
	return strings.Join(parts, string(sep))
}

// Skipped reports whether the field is excluded from comparison.
func (f FormField) Skipped() bool {
	return IsSkippedType(f.Type)
}

// LeafName strips every group prefix from a column name.
func LeafName(column string, sep rune) string {
	if i := strings.LastIndex(column, string(sep)); i >= 0 {
		return column[i+len(string(sep)):]
	}
	return column
}
