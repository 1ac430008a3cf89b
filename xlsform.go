package agreement

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/agreement/domain/model"
	"github.com/xuri/excelize/v2"
)

// surveySheet is the XlsForm worksheet that lists the questions.
const surveySheet = "survey"

// LoadForm reads the survey sheet of an XlsForm (.xlsx) and returns every
// field in form order, with group and repeat nesting recorded in Path.
// Begin/end markers are included; use ResponseFields to drop them.
func LoadForm(path string) ([]model.FormField, error) {
	ec := NewErrorContext("load form", path)

	f, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ec.Error(ErrFileNotFound)
		}
		return nil, ec.Error(err)
	}
	defer f.Close()

	_, compression := model.DetectFileType(path)
	reader, cleanup, err := NewCompressionHandler(compression).CreateReader(f)
	if err != nil {
		return nil, ec.Error(err)
	}
	defer func() {
		_ = cleanup()
	}()

	fields, err := LoadFormFromReader(reader)
	if err != nil {
		return nil, ec.Error(err)
	}
	return fields, nil
}

// LoadFormFromReader reads an XlsForm workbook from r.
func LoadFormFromReader(r io.Reader) ([]model.FormField, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	defer func() {
		_ = book.Close()
	}()

	rows, err := book.GetRows(surveySheet)
	if err != nil {
		return nil, fmt.Errorf("%w: no %q sheet: %w", ErrInvalidForm, surveySheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q sheet is empty", ErrInvalidForm, surveySheet)
	}
	return parseSurveyRows(rows)
}

// parseSurveyRows turns survey sheet rows into fields. The first row is the
// header and must have "type" and "name" columns; the first column whose
// header starts with "label" supplies labels.
func parseSurveyRows(rows [][]string) ([]model.FormField, error) {
	typeCol, nameCol, labelCol := -1, -1, -1
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		switch {
		case h == "type" && typeCol < 0:
			typeCol = i
		case h == "name" && nameCol < 0:
			nameCol = i
		case strings.HasPrefix(h, "label") && labelCol < 0:
			labelCol = i
		}
	}
	if typeCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("%w: survey sheet needs type and name columns", ErrInvalidForm)
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		fields []model.FormField
		parent []string
	)
	for n, row := range rows[1:] {
		field := model.FormField{
			Type:  cell(row, typeCol),
			Name:  cell(row, nameCol),
			Label: cell(row, labelCol),
			Path:  append([]string(nil), parent...),
		}
		field.Type = normalizeMarker(field.Type)
		switch field.Type {
		case "begin group", "begin repeat":
			parent = append(parent, field.Name)
		case "end group", "end repeat":
			if len(parent) == 0 {
				return nil, fmt.Errorf("%w: unbalanced %q on survey row %d", ErrInvalidForm, field.Type, n+2)
			}
			parent = parent[:len(parent)-1]
			field.Path = append([]string(nil), parent...)
		}
		fields = append(fields, field)
	}
	if len(parent) > 0 {
		return nil, fmt.Errorf("%w: group %q is never closed", ErrInvalidForm, parent[len(parent)-1])
	}
	return fields, nil
}

// normalizeMarker spells "begin_group" style markers with a space.
func normalizeMarker(fieldType string) string {
	switch fieldType {
	case "begin_group", "begin_repeat", "end_group", "end_repeat":
		return strings.Replace(fieldType, "_", " ", 1)
	}
	return fieldType
}

// ResponseFields returns the fields that carry respondent answers, dropping
// skipped types and group markers.
func ResponseFields(fields []model.FormField) []model.FormField {
	out := make([]model.FormField, 0, len(fields))
	for _, f := range fields {
		if !f.Skipped() {
			out = append(out, f)
		}
	}
	return out
}
